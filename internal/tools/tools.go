// Package tools adapts ptc's fixed tool set (read_file, write_file,
// edit_file, glob, grep, execute_bash, execute_code) onto a
// sandbox.RemoteSandbox, matching the parameter signatures and error
// strings of the original implementation's LangChain tool factories.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ptc/internal/diff"
	"ptc/internal/sandbox"
	"ptc/internal/toolregistry"
)

// maxResultBytes caps a tool result's text before it's handed back to the
// model, matching the spec's uniform-error-adapter truncation rule (§4.2,
// §7).
const maxResultBytes = 4000

// Wrap adapts a tool function that can fail into the registry's
// (string, error)-returning Handler by flattening any error into an
// "ERROR: ..." string instead of propagating it — a tool failure reaches
// the model as result text and does not by itself end the turn.
func Wrap(fn func(ctx context.Context, args json.RawMessage) (string, error)) toolregistry.Handler {
	return func(ctx context.Context, args json.RawMessage) (string, error) {
		result, err := fn(ctx, args)
		if err != nil {
			return truncate(fmt.Sprintf("ERROR: %s", err.Error())), nil
		}
		return truncate(result), nil
	}
}

func truncate(s string) string {
	if len(s) <= maxResultBytes {
		return s
	}
	return s[:maxResultBytes] + "... (truncated)"
}

// Register installs the fixed tool set against box into reg.
func Register(reg *toolregistry.Registry, box sandbox.RemoteSandbox, differ *diff.Generator) {
	reg.Register(readFileDescriptor(), Wrap(readFileHandler(box)))
	reg.Register(writeFileDescriptor(), Wrap(writeFileHandler(box)))
	reg.Register(editFileDescriptor(), Wrap(editFileHandler(box, differ)))
	reg.Register(globDescriptor(), Wrap(globHandler(box)))
	reg.Register(grepDescriptor(), Wrap(grepHandler(box)))
	reg.Register(executeBashDescriptor(), Wrap(executeBashHandler(box)))
	reg.Register(executeCodeDescriptor(), Wrap(executeCodeHandler(box)))
}

func rawSchema(s string) jsonRaw { return jsonRaw(s) }

type jsonRaw = json.RawMessage

func parseArgs(args json.RawMessage, dst any) error {
	if len(args) == 0 {
		return nil
	}
	return json.Unmarshal(args, dst)
}

func boundedTimeout(ms, maxMs int) time.Duration {
	if ms <= 0 {
		ms = maxMs
	}
	if ms > maxMs {
		ms = maxMs
	}
	return time.Duration(ms) * time.Millisecond
}
