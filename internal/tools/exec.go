package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"ptc/internal/sandbox"
	"ptc/internal/toolregistry"
)

// maxBashTimeoutMS is the 10-minute ceiling the original bash/execute.py
// tool enforces on its millisecond timeout parameter.
const maxBashTimeoutMS = 10 * 60 * 1000

type execArgs struct {
	Command     string `json:"command"`
	Description string `json:"description"`
	Timeout     int    `json:"timeout"`
	WorkingDir  string `json:"working_dir"`
}

func executeBashDescriptor() toolregistry.Descriptor {
	return toolregistry.Descriptor{
		Name:        "execute_bash",
		Description: "Run a shell command inside the sandbox, returning combined stdout and stderr.",
		ParameterSchema: rawSchema(`{"type":"object","properties":{
			"command":{"type":"string"},
			"description":{"type":"string"},
			"timeout":{"type":"integer","description":"milliseconds, max 600000"},
			"working_dir":{"type":"string"}
		},"required":["command"]}`),
	}
}

func executeBashHandler(box sandbox.RemoteSandbox) func(context.Context, json.RawMessage) (string, error) {
	return func(ctx context.Context, raw json.RawMessage) (string, error) {
		a := execArgs{WorkingDir: "/home/ptc"}
		if err := parseArgs(raw, &a); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}
		command := a.Command
		if a.WorkingDir != "" {
			command = fmt.Sprintf("cd %s && %s", a.WorkingDir, command)
		}

		res, err := box.ExecuteBash(ctx, command, boundedTimeout(a.Timeout, maxBashTimeoutMS))
		if err != nil {
			return "", err
		}
		return formatExecResult(res), nil
	}
}

type codeArgs struct {
	Source  string `json:"source"`
	Timeout int    `json:"timeout"`
}

func executeCodeDescriptor() toolregistry.Descriptor {
	return toolregistry.Descriptor{
		Name:        "execute_code",
		Description: "Run source code inside the sandbox's language runtime, returning combined stdout and stderr.",
		ParameterSchema: rawSchema(`{"type":"object","properties":{
			"source":{"type":"string"},
			"timeout":{"type":"integer","description":"milliseconds, max 600000"}
		},"required":["source"]}`),
	}
}

func executeCodeHandler(box sandbox.RemoteSandbox) func(context.Context, json.RawMessage) (string, error) {
	return func(ctx context.Context, raw json.RawMessage) (string, error) {
		var a codeArgs
		if err := parseArgs(raw, &a); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}
		res, err := box.ExecuteCode(ctx, a.Source, boundedTimeout(a.Timeout, maxBashTimeoutMS))
		if err != nil {
			return "", err
		}
		return formatExecResult(res), nil
	}
}

func formatExecResult(res sandbox.ExecResult) string {
	var b strings.Builder
	if res.Stdout != "" {
		b.WriteString(res.Stdout)
	}
	if res.Stderr != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(res.Stderr)
	}
	if res.ExitCode != 0 {
		fmt.Fprintf(&b, "\n(exit code %d)", res.ExitCode)
	}
	if b.Len() == 0 {
		return "(no output)"
	}
	return b.String()
}
