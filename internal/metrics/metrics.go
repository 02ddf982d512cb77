// Package metrics exposes ptc's Prometheus counters and histograms,
// grounded on the teacher's internal/infra/observability metrics collector
// convention. cmd/ptc records turns and active sessions; the tool-dispatch
// and fault-recovered counters have no caller outside this package's tests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector wraps the Prometheus metrics ptc records. A disabled Collector
// (Enabled: false) is a safe no-op — every method checks before touching the
// registry, matching the teacher's MetricsConfig.Enabled gate.
type Collector struct {
	enabled bool

	turns           *prometheus.CounterVec
	toolDispatches  *prometheus.CounterVec
	faultsRecovered prometheus.Counter
	turnDuration    prometheus.Histogram
	activeSessions  prometheus.Gauge
}

// Config controls whether metrics are collected and where they're served.
type Config struct {
	Enabled bool
}

// New builds a Collector and registers its metrics with reg. Passing
// prometheus.NewRegistry() keeps tests isolated from the global registry.
func New(cfg Config, reg prometheus.Registerer) *Collector {
	c := &Collector{enabled: cfg.Enabled}
	if !cfg.Enabled {
		return c
	}

	c.turns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ptc",
		Name:      "turns_total",
		Help:      "Completed turns by terminal result kind.",
	}, []string{"kind"})

	c.toolDispatches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ptc",
		Name:      "tool_dispatches_total",
		Help:      "Tool calls dispatched by tool name and outcome.",
	}, []string{"tool", "outcome"})

	c.faultsRecovered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ptc",
		Name:      "sandbox_faults_recovered_total",
		Help:      "Sandbox faults that were reconnected or recreated successfully.",
	})

	c.turnDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ptc",
		Name:      "turn_duration_seconds",
		Help:      "Wall-clock duration of a single turn.",
		Buckets:   prometheus.DefBuckets,
	})

	c.activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ptc",
		Name:      "active_sessions",
		Help:      "Sandbox sessions currently acquired.",
	})

	reg.MustRegister(c.turns, c.toolDispatches, c.faultsRecovered, c.turnDuration, c.activeSessions)
	return c
}

func (c *Collector) RecordTurn(kind string, d time.Duration) {
	if !c.enabled {
		return
	}
	c.turns.WithLabelValues(kind).Inc()
	c.turnDuration.Observe(d.Seconds())
}

func (c *Collector) RecordToolDispatch(tool, outcome string) {
	if !c.enabled {
		return
	}
	c.toolDispatches.WithLabelValues(tool, outcome).Inc()
}

func (c *Collector) RecordFaultRecovered() {
	if !c.enabled {
		return
	}
	c.faultsRecovered.Inc()
}

func (c *Collector) IncrementActiveSessions() {
	if !c.enabled {
		return
	}
	c.activeSessions.Inc()
}

func (c *Collector) DecrementActiveSessions() {
	if !c.enabled {
		return
	}
	c.activeSessions.Dec()
}
