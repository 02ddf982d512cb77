package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestDisabledCollectorNeverPanics(t *testing.T) {
	c := New(Config{Enabled: false}, prometheus.NewRegistry())
	c.RecordTurn("ok", time.Second)
	c.RecordToolDispatch("read_file", "success")
	c.RecordFaultRecovered()
	c.IncrementActiveSessions()
	c.DecrementActiveSessions()
}

func TestEnabledCollectorRecordsWithoutPanicking(t *testing.T) {
	c := New(Config{Enabled: true}, prometheus.NewRegistry())
	c.RecordTurn("ok", 250*time.Millisecond)
	c.RecordToolDispatch("grep", "error")
	c.RecordFaultRecovered()
	c.IncrementActiveSessions()
	c.DecrementActiveSessions()
}
