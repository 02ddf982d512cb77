// Package session implements the persisted-session store (C4) and the
// session manager that acquires and releases sandbox handles across turns
// (C5).
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ptc/internal/agenterr"
	"ptc/internal/infra/filestore"
)

// MaxAge is the maximum age a persisted session may reach before it is
// considered stale and discarded, per spec §6.1.
const MaxAge = 24 * time.Hour

// PersistedSession is the on-disk record of a reusable sandbox, written to
// <state-root>/<agent>/session.json.
type PersistedSession struct {
	SandboxID  string    `json:"sandbox_id"`
	ConfigHash string    `json:"config_hash"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsed   time.Time `json:"last_used"`
}

func (p PersistedSession) valid() bool {
	return p.SandboxID != "" && p.ConfigHash != ""
}

// Store persists and loads PersistedSession records for an agent, one file
// per agent under baseDir.
type Store struct {
	baseDir string
}

// New returns a Store rooted at baseDir (the config's resolved state root).
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) path(agentName string) (string, error) {
	if !filestore.IsPathSafe(agentName) {
		return "", fmt.Errorf("session: %w: unsafe agent name %q", agenterr.ErrAccessDenied, agentName)
	}
	return filepath.Join(s.baseDir, agentName, "session.json"), nil
}

// Load returns the persisted session for agentName, or (zero, false, nil)
// if none exists or it is invalid/expired (both cases delete the file, per
// the original implementation's "treat as absent" behavior).
func (s *Store) Load(ctx context.Context, agentName string) (PersistedSession, bool, error) {
	_ = ctx
	path, err := s.path(agentName)
	if err != nil {
		return PersistedSession{}, false, err
	}

	data, err := filestore.ReadFileOrEmpty(path)
	if err != nil {
		return PersistedSession{}, false, fmt.Errorf("session: reading %s: %w", path, err)
	}
	if data == nil {
		return PersistedSession{}, false, nil
	}

	var rec PersistedSession
	if err := json.Unmarshal(data, &rec); err != nil || !rec.valid() {
		_ = os.Remove(path)
		return PersistedSession{}, false, nil
	}

	if time.Since(rec.LastUsed) > MaxAge {
		_ = os.Remove(path)
		return PersistedSession{}, false, nil
	}

	return rec, true, nil
}

// Save writes the persisted session for agentName, creating both
// created_at and last_used as now.
func (s *Store) Save(ctx context.Context, agentName, sandboxID, configHash string) error {
	_ = ctx
	path, err := s.path(agentName)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	rec := PersistedSession{
		SandboxID:  sandboxID,
		ConfigHash: configHash,
		CreatedAt:  now,
		LastUsed:   now,
	}
	data, err := filestore.MarshalJSONIndent(rec)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := filestore.AtomicWrite(path, data, 0o644); err != nil {
		return fmt.Errorf("session: writing %s: %w", path, err)
	}
	return nil
}

// Touch refreshes last_used on an existing persisted session, silently
// doing nothing if the file is missing or unreadable — a failed refresh
// must never abort a turn.
func (s *Store) Touch(ctx context.Context, agentName string) {
	_ = ctx
	path, err := s.path(agentName)
	if err != nil {
		return
	}
	data, err := filestore.ReadFileOrEmpty(path)
	if err != nil || data == nil {
		return
	}
	var rec PersistedSession
	if err := json.Unmarshal(data, &rec); err != nil {
		return
	}
	rec.LastUsed = time.Now().UTC()
	out, err := filestore.MarshalJSONIndent(rec)
	if err != nil {
		return
	}
	_ = filestore.AtomicWrite(path, out, 0o644)
}

// Delete removes the persisted session for agentName, tolerating a missing
// file.
func (s *Store) Delete(ctx context.Context, agentName string) error {
	_ = ctx
	path, err := s.path(agentName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("session: deleting %s: %w", path, err)
	}
	return nil
}
