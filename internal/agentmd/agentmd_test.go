package agentmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestContentReturnsFalseWhenNoMemoryExists(t *testing.T) {
	root := t.TempDir()
	_, ok := Content(root, "default")
	if ok {
		t.Fatal("expected no memory content for a fresh state root")
	}
}

func TestContentLoadsUserInstructions(t *testing.T) {
	root := t.TempDir()
	agentDir := filepath.Join(root, "default")
	if err := os.MkdirAll(agentDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(agentDir, "agent.md"), []byte("be concise"), 0o644); err != nil {
		t.Fatal(err)
	}

	content, ok := Content(root, "default")
	if !ok {
		t.Fatal("expected memory content to be found")
	}
	if !strings.Contains(content, "User Instructions") || !strings.Contains(content, "be concise") {
		t.Fatalf("unexpected content: %s", content)
	}
}

func TestListSortsAgentsAlphabeticallyAndFlagsMemory(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"zeta", "alpha"} {
		if err := os.MkdirAll(filepath.Join(root, name), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "alpha", "agent.md"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	agents, err := List(root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(agents) != 2 || agents[0].Name != "alpha" || agents[1].Name != "zeta" {
		t.Fatalf("unexpected agents: %+v", agents)
	}
	if !agents[0].HasMemory {
		t.Fatal("expected alpha to be flagged as having memory")
	}
	if agents[1].HasMemory {
		t.Fatal("expected zeta to be flagged as having no memory")
	}
}

func TestListOnMissingStateRootReturnsEmpty(t *testing.T) {
	agents, err := List(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agents != nil {
		t.Fatalf("expected nil agents, got %+v", agents)
	}
}

func TestResetRemovesExistingMemory(t *testing.T) {
	root := t.TempDir()
	agentDir := filepath.Join(root, "default")
	if err := os.MkdirAll(agentDir, 0o755); err != nil {
		t.Fatal(err)
	}
	agentMD := filepath.Join(agentDir, "agent.md")
	if err := os.WriteFile(agentMD, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Reset(root, "default", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(agentMD); !os.IsNotExist(err) {
		t.Fatal("expected agent.md to be removed")
	}
}

func TestResetCopiesFromSourceAgent(t *testing.T) {
	root := t.TempDir()
	sourceDir := filepath.Join(root, "source")
	if err := os.MkdirAll(sourceDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sourceDir, "agent.md"), []byte("inherited"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Reset(root, "target", "source"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "target", "agent.md"))
	if err != nil {
		t.Fatalf("expected target agent.md to exist: %v", err)
	}
	if string(data) != "inherited" {
		t.Fatalf("unexpected copied content: %s", data)
	}
}
