package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStoreSaveAndLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	ctx := context.Background()

	if err := store.Save(ctx, "agent1", "sbx-123", "abcd1234"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	rec, ok, err := store.Load(ctx, "agent1")
	if err != nil || !ok {
		t.Fatalf("Load() = %v, %v, %v", rec, ok, err)
	}
	if rec.SandboxID != "sbx-123" || rec.ConfigHash != "abcd1234" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestStoreLoadDeletesExpiredSession(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	ctx := context.Background()

	path := filepath.Join(dir, "agent1", "session.json")
	os.MkdirAll(filepath.Dir(path), 0o755)
	stale := PersistedSession{
		SandboxID:  "sbx-old",
		ConfigHash: "deadbeef",
		CreatedAt:  time.Now().Add(-48 * time.Hour),
		LastUsed:   time.Now().Add(-25 * time.Hour),
	}
	data, _ := json.Marshal(stale)
	os.WriteFile(path, data, 0o644)

	_, ok, err := store.Load(ctx, "agent1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ok {
		t.Fatal("expected expired session to be treated as absent")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected expired session file to be deleted")
	}
}

func TestStoreLoadDeletesInvalidSession(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	ctx := context.Background()

	path := filepath.Join(dir, "agent1", "session.json")
	os.MkdirAll(filepath.Dir(path), 0o755)
	os.WriteFile(path, []byte(`{"sandbox_id": ""}`), 0o644)

	_, ok, err := store.Load(ctx, "agent1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ok {
		t.Fatal("expected record missing config_hash/sandbox_id to be invalid")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected invalid session file to be deleted")
	}
}

func TestStoreRejectsPathUnsafeAgentNames(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	ctx := context.Background()

	if err := store.Save(ctx, "../escape", "sbx", "hash"); err == nil {
		t.Fatal("expected error saving session for a path-unsafe agent name")
	}
	if _, _, err := store.Load(ctx, "../escape"); err == nil {
		t.Fatal("expected error loading session for a path-unsafe agent name")
	}
}

func TestStoreDeleteToleratesMissingFile(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	if err := store.Delete(context.Background(), "nonexistent-agent"); err != nil {
		t.Fatalf("Delete() on missing session should be a no-op, got %v", err)
	}
}
