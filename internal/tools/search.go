package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ptc/internal/sandbox"
	"ptc/internal/toolregistry"
)

type globArgs struct {
	Pattern string `json:"pattern"`
	Path    string `json:"path"`
}

func globDescriptor() toolregistry.Descriptor {
	return toolregistry.Descriptor{
		Name:        "glob",
		Description: "Find files matching a glob pattern under a directory in the sandbox.",
		ParameterSchema: rawSchema(`{"type":"object","properties":{
			"pattern":{"type":"string"},
			"path":{"type":"string"}
		},"required":["pattern"]}`),
	}
}

func globHandler(box sandbox.RemoteSandbox) func(context.Context, json.RawMessage) (string, error) {
	return func(ctx context.Context, raw json.RawMessage) (string, error) {
		var a globArgs
		if err := parseArgs(raw, &a); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}
		dir := a.Path
		if dir == "" {
			dir = "."
		}
		matches, err := box.Glob(ctx, dir, a.Pattern)
		if err != nil {
			return "", err
		}
		if len(matches) == 0 {
			return "No files found", nil
		}
		return strings.Join(matches, "\n"), nil
	}
}

// grepArgs mirrors original_source's search/grep.py parameter surface:
// pattern, path, output_mode, glob, type, case-insensitive, line numbers,
// context lines, multiline, head_limit, offset.
type grepArgs struct {
	Pattern     string `json:"pattern"`
	Path        string `json:"path"`
	OutputMode  string `json:"output_mode"`
	Glob        string `json:"glob"`
	Type        string `json:"type"`
	I           bool   `json:"i"`
	N           bool   `json:"n"`
	A           int    `json:"A"`
	B           int    `json:"B"`
	C           int    `json:"C"`
	Multiline   bool   `json:"multiline"`
	HeadLimit   int    `json:"head_limit"`
	Offset      int    `json:"offset"`
}

func grepDescriptor() toolregistry.Descriptor {
	return toolregistry.Descriptor{
		Name:        "grep",
		Description: "Search file contents for a regular expression pattern under a directory in the sandbox.",
		ParameterSchema: rawSchema(`{"type":"object","properties":{
			"pattern":{"type":"string"},
			"path":{"type":"string"},
			"output_mode":{"type":"string","enum":["files_with_matches","content","count"]},
			"glob":{"type":"string"},
			"type":{"type":"string"},
			"i":{"type":"boolean"},
			"n":{"type":"boolean"},
			"A":{"type":"integer"},
			"B":{"type":"integer"},
			"C":{"type":"integer"},
			"multiline":{"type":"boolean"},
			"head_limit":{"type":"integer"},
			"offset":{"type":"integer"}
		},"required":["pattern"]}`),
	}
}

func grepHandler(box sandbox.RemoteSandbox) func(context.Context, json.RawMessage) (string, error) {
	return func(ctx context.Context, raw json.RawMessage) (string, error) {
		a := grepArgs{OutputMode: "files_with_matches", N: true}
		if err := parseArgs(raw, &a); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}
		dir := a.Path
		if dir == "" {
			dir = "."
		}

		before, after := a.B, a.A
		if a.C > 0 {
			before, after = a.C, a.C
		}

		lines, err := box.Grep(ctx, dir, a.Pattern, sandbox.GrepOptions{
			CaseInsensitive: a.I,
			FilePattern:     a.Glob,
			ContextBefore:   before,
			ContextAfter:    after,
			HeadLimit:       a.HeadLimit,
		})
		if err != nil {
			return "", err
		}
		if a.Offset > 0 && a.Offset < len(lines) {
			lines = lines[a.Offset:]
		}
		if len(lines) == 0 {
			return "No matches found", nil
		}
		return strings.Join(lines, "\n"), nil
	}
}
