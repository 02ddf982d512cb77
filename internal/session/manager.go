package session

import (
	"context"
	"fmt"

	"ptc/internal/config"
	"ptc/internal/sandbox"
)

// Handle is the live session handle returned by Manager.Acquire: a
// connected sandbox plus the bookkeeping needed to persist or discard it on
// release.
type Handle struct {
	Sandbox        sandbox.RemoteSandbox
	ConfigHash     string
	ReusingSandbox bool
	persist        bool
	store          *Store
	agentName      string
}

// Manager implements C5: acquiring a sandbox-backed session (reusing a
// persisted one when config allows it) and releasing it when the session
// ends.
type Manager struct {
	store *Store
}

func NewManager(store *Store) *Manager {
	return &Manager{store: store}
}

// Acquire implements the six-step algorithm of spec §4.4:
//  1. compute the config fingerprint;
//  2. resolve a sandbox ID: explicitSandboxID, else a persisted record
//     whose config hash matches, else none;
//  3. attempt to dial (reattach) using that ID, refreshing the persisted
//     record's last-used time when a record-derived reattach succeeds;
//  4. on dial failure, discard the persisted record and create fresh;
//  5. save the new session only if cfg.PersistSession and the sandbox was
//     freshly created (not reused) and persistence succeeds;
//  6. return the handle.
func (m *Manager) Acquire(ctx context.Context, cfg config.RuntimeConfig, explicitSandboxID string) (*Handle, error) {
	hash := config.Fingerprint(cfg)

	sandboxID := explicitSandboxID
	reusing := false
	fromStore := false
	if sandboxID == "" {
		if rec, ok, err := m.store.Load(ctx, cfg.AgentName); err == nil && ok && rec.ConfigHash == hash {
			sandboxID = rec.SandboxID
			reusing = true
			fromStore = true
		}
	} else {
		reusing = true
	}

	client, err := sandbox.Dial(ctx, cfg.SandboxBaseURL, cfg.RuntimeVersion, sandboxID, cfg.SnapshotName)
	if err != nil {
		if sandboxID != "" {
			// A record-derived id that fails to reattach is stale and must
			// be forgotten (spec §4.4 step 4). An explicit --sandbox-id
			// that fails to dial is just a bad one-off argument: the
			// record is not deleted here, though step 5's Save replaces it
			// with the fresh sandbox when persistence is on.
			if fromStore {
				_ = m.store.Delete(ctx, cfg.AgentName)
			}
			reusing = false
			fromStore = false
			client, err = sandbox.Dial(ctx, cfg.SandboxBaseURL, cfg.RuntimeVersion, "", cfg.SnapshotName)
		}
		if err != nil {
			return nil, fmt.Errorf("session: acquire sandbox: %w", err)
		}
	}

	if fromStore {
		m.store.Touch(ctx, cfg.AgentName)
	}

	h := &Handle{
		Sandbox:        client,
		ConfigHash:     hash,
		ReusingSandbox: reusing,
		persist:        cfg.PersistSession,
		store:          m.store,
		agentName:      cfg.AgentName,
	}

	if h.persist && !h.ReusingSandbox {
		if err := m.store.Save(ctx, h.agentName, client.ID(), hash); err != nil {
			// Persistence is best-effort: a failed write should not abort
			// an otherwise healthy session.
			return h, nil
		}
	}

	return h, nil
}

// Release tears down the handle per spec §4.4's teardown rule: prefer
// `stop` (preserve the sandbox for a future reattach) when persistence is
// enabled and the turn finished without error; otherwise `cleanup`
// (destroy it). Either way, Close runs afterward to release this
// process's local connection resources.
func (m *Manager) Release(ctx context.Context, h *Handle, ok bool) error {
	if h == nil {
		return nil
	}

	var teardownErr error
	if ok && h.persist {
		m.store.Touch(ctx, h.agentName)
		teardownErr = h.Sandbox.Stop(ctx)
	} else {
		if !ok {
			_ = m.store.Delete(ctx, h.agentName)
		}
		teardownErr = h.Sandbox.Cleanup(ctx)
	}

	if closeErr := h.Sandbox.Close(); closeErr != nil && teardownErr == nil {
		teardownErr = closeErr
	}
	return teardownErr
}
