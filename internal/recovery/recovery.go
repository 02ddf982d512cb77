// Package recovery classifies sandbox faults and performs the one-shot
// reattach-or-recreate sequence described in spec §4.6.
package recovery

import (
	"context"
	"fmt"
	"strings"

	"ptc/internal/config"
	"ptc/internal/sandbox"
)

// Kind classifies an observed error or tool-result text.
type Kind int

const (
	// None means nothing resembling a sandbox fault was observed.
	None Kind = iota
	// SandboxFault means the error text matches one of the known
	// connection-failure substrings.
	SandboxFault
)

// faultSubstrings mirrors original_source's executor.py sandbox-error
// detection: a case-insensitive substring match against any of these terms
// is treated as a sandbox fault rather than an ordinary tool error.
var faultSubstrings = []string{
	"sandbox",
	"disconnect",
	"connection refused",
	"no route",
	"timed out",
	"eof",
}

// Classify inspects err (if non-nil) and text for the fault substrings.
func Classify(err error, text string) Kind {
	haystacks := make([]string, 0, 2)
	if err != nil {
		haystacks = append(haystacks, err.Error())
	}
	if text != "" {
		haystacks = append(haystacks, text)
	}
	for _, h := range haystacks {
		lower := strings.ToLower(h)
		for _, needle := range faultSubstrings {
			if strings.Contains(lower, needle) {
				return SandboxFault
			}
		}
	}
	return None
}

// Recoverer reattaches to or recreates the sandbox behind a session. It
// never mutates a TurnState; callers own the at-most-one-retry-per-turn
// bookkeeping themselves.
type Recoverer struct {
	cfg   config.RuntimeConfig
	store SessionStore
}

// SessionStore is the subset of *session.Store Recoverer needs, kept as an
// interface so recovery tests can stub persistence.
type SessionStore interface {
	Delete(ctx context.Context, agentName string) error
}

func New(cfg config.RuntimeConfig, store SessionStore) *Recoverer {
	return &Recoverer{cfg: cfg, store: store}
}

// LivenessProbe is the subset of sandbox.RemoteSandbox the empty-result
// streak check needs.
type LivenessProbe interface {
	ListDirectory(ctx context.Context, path string) ([]string, error)
}

// Live performs the liveness probe spec §4.6 names: a trivial
// list_directory("/"). It reports whether the sandbox answered at all,
// not whether the listing is meaningful.
func Live(ctx context.Context, box LivenessProbe) bool {
	_, err := box.ListDirectory(ctx, "/")
	return err == nil
}

// Recover attempts one reconnect using the existing sandbox ID; if that
// fails, it discards the persisted record and boots a fresh sandbox.
func (r *Recoverer) Recover(ctx context.Context, sandboxID string) (*sandbox.Client, error) {
	client, err := sandbox.Dial(ctx, r.cfg.SandboxBaseURL, r.cfg.RuntimeVersion, sandboxID, r.cfg.SnapshotName)
	if err == nil {
		if pingErr := client.Ping(ctx); pingErr == nil {
			return client, nil
		}
		_ = client.Close()
	}

	_ = r.store.Delete(ctx, r.cfg.AgentName)
	fresh, err := sandbox.Dial(ctx, r.cfg.SandboxBaseURL, r.cfg.RuntimeVersion, "", r.cfg.SnapshotName)
	if err != nil {
		return nil, fmt.Errorf("recovery: recreate sandbox: %w", err)
	}
	return fresh, nil
}
