package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ptc/internal/diff"
	"ptc/internal/sandbox"
	"ptc/internal/toolregistry"
)

type readFileArgs struct {
	Path   string `json:"path"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

func readFileDescriptor() toolregistry.Descriptor {
	return toolregistry.Descriptor{
		Name:        "read_file",
		Description: "Read a file from the sandbox filesystem, returning its contents with line numbers.",
		ParameterSchema: rawSchema(`{"type":"object","properties":{
			"path":{"type":"string"},
			"offset":{"type":"integer","description":"1-indexed line to start from"},
			"limit":{"type":"integer","description":"maximum number of lines to return"}
		},"required":["path"]}`),
	}
}

func readFileHandler(box sandbox.RemoteSandbox) func(context.Context, json.RawMessage) (string, error) {
	return func(ctx context.Context, raw json.RawMessage) (string, error) {
		var a readFileArgs
		if err := parseArgs(raw, &a); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}
		content, err := box.ReadFile(ctx, a.Path)
		if err != nil {
			return "", fmt.Errorf("File not found: %s", a.Path)
		}

		lines := strings.Split(content, "\n")
		start := 0
		if a.Offset > 1 {
			start = a.Offset - 1
		}
		if start > len(lines) {
			start = len(lines)
		}
		end := len(lines)
		if a.Limit > 0 && start+a.Limit < end {
			end = start + a.Limit
		}
		windowed := strings.Join(lines[start:end], "\n")
		return numberedLinesFrom(windowed, start+1), nil
	}
}

func numberedLinesFrom(text string, startAt int) string {
	lines := strings.Split(text, "\n")
	var b strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&b, "%6d→%s\n", startAt+i, line)
	}
	return b.String()
}

type writeFileArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func writeFileDescriptor() toolregistry.Descriptor {
	return toolregistry.Descriptor{
		Name:        "write_file",
		Description: "Write content to a file in the sandbox filesystem, creating parent directories as needed.",
		ParameterSchema: rawSchema(`{"type":"object","properties":{
			"path":{"type":"string"},
			"content":{"type":"string"}
		},"required":["path","content"]}`),
	}
}

func writeFileHandler(box sandbox.RemoteSandbox) func(context.Context, json.RawMessage) (string, error) {
	return func(ctx context.Context, raw json.RawMessage) (string, error) {
		var a writeFileArgs
		if err := parseArgs(raw, &a); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}
		if err := box.WriteFile(ctx, a.Path, a.Content); err != nil {
			return "", fmt.Errorf("Access denied: %s is not in allowed directories", a.Path)
		}
		return fmt.Sprintf("Wrote %d bytes to %s", len(a.Content), sandbox.VirtualizePath(sandbox.NormalizePath(a.Path))), nil
	}
}

type editFileArgs struct {
	Path      string `json:"path"`
	OldString string `json:"old_string"`
	NewString string `json:"new_string"`
	ReplaceAll bool  `json:"replace_all"`
}

func editFileDescriptor() toolregistry.Descriptor {
	return toolregistry.Descriptor{
		Name:        "edit_file",
		Description: "Replace an exact string occurrence within a file, returning a unified diff of the change.",
		ParameterSchema: rawSchema(`{"type":"object","properties":{
			"path":{"type":"string"},
			"old_string":{"type":"string"},
			"new_string":{"type":"string"},
			"replace_all":{"type":"boolean"}
		},"required":["path","old_string","new_string"]}`),
	}
}

func editFileHandler(box sandbox.RemoteSandbox, differ *diff.Generator) func(context.Context, json.RawMessage) (string, error) {
	return func(ctx context.Context, raw json.RawMessage) (string, error) {
		var a editFileArgs
		if err := parseArgs(raw, &a); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}
		original, err := box.ReadFile(ctx, a.Path)
		if err != nil {
			return "", fmt.Errorf("File not found: %s", a.Path)
		}

		changed, message, err := box.EditFile(ctx, a.Path, a.OldString, a.NewString, a.ReplaceAll)
		if err != nil {
			return "", fmt.Errorf("editing %s: %w", a.Path, err)
		}
		if !changed {
			if message != "" {
				return message, nil
			}
			return fmt.Sprintf("No change to %s", a.Path), nil
		}

		updated, err := box.ReadFile(ctx, a.Path)
		if err != nil {
			return fmt.Sprintf("Edited %s", a.Path), nil
		}
		result, err := differ.GenerateUnified(original, updated, a.Path)
		if err != nil {
			return fmt.Sprintf("Edited %s", a.Path), nil
		}
		return result.FormatSummary() + "\n" + result.UnifiedDiff, nil
	}
}
