// Package agentmd loads per-agent "memory" files (user-level and
// project-level instructions) appended to the system prompt, and
// implements the list/reset agent-management operations (spec §5
// supplement, grounded on original_source's management.py).
package agentmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Content loads and concatenates the user-level (<stateRoot>/<agent>/agent.md)
// and project-level (./.ptc/agent.md) instruction files, returning ("", false)
// if neither exists.
func Content(stateRoot, agentName string) (string, bool) {
	var parts []string

	userPath := filepath.Join(stateRoot, agentName, "agent.md")
	if data, err := os.ReadFile(userPath); err == nil {
		parts = append(parts, "## User Instructions\n"+string(data))
	}

	if data, err := os.ReadFile(filepath.Join(".ptc", "agent.md")); err == nil {
		parts = append(parts, "## Project Instructions\n"+string(data))
	}

	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "\n\n"), true
}

// AgentInfo is one entry in List's result.
type AgentInfo struct {
	Name      string
	HasMemory bool
}

// List enumerates agent directories under stateRoot.
func List(stateRoot string) ([]AgentInfo, error) {
	entries, err := os.ReadDir(stateRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("agentmd: listing %s: %w", stateRoot, err)
	}

	var agents []AgentInfo
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		_, hasMemory := os.Stat(filepath.Join(stateRoot, e.Name(), "agent.md"))
		agents = append(agents, AgentInfo{Name: e.Name(), HasMemory: hasMemory == nil})
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].Name < agents[j].Name })
	return agents, nil
}

// Reset deletes agentName's agent.md (reverting to the base system prompt),
// or copies sourceAgent's agent.md into it when sourceAgent is non-empty.
func Reset(stateRoot, agentName, sourceAgent string) (string, error) {
	agentDir := filepath.Join(stateRoot, agentName)
	agentMD := filepath.Join(agentDir, "agent.md")

	if sourceAgent != "" {
		sourceMD := filepath.Join(stateRoot, sourceAgent, "agent.md")
		data, err := os.ReadFile(sourceMD)
		if err != nil {
			return "", fmt.Errorf("agentmd: source agent %q has no agent.md", sourceAgent)
		}
		if err := os.MkdirAll(agentDir, 0o755); err != nil {
			return "", err
		}
		if err := os.WriteFile(agentMD, data, 0o644); err != nil {
			return "", err
		}
		return fmt.Sprintf("Copied agent.md from %q to %q", sourceAgent, agentName), nil
	}

	if _, err := os.Stat(agentMD); err == nil {
		if err := os.Remove(agentMD); err != nil {
			return "", err
		}
		return fmt.Sprintf("Reset %q to default (removed agent.md)", agentName), nil
	}
	return fmt.Sprintf("Agent %q already using default prompt", agentName), nil
}
