// Package streaming implements the tool-call chunk buffer (C3) and the
// turn executor's Phase 0-5 state machine (C6).
package streaming

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ToolCall is a fully assembled tool invocation: a name and its decoded
// arguments, ready for dispatch.
type ToolCall struct {
	ID      string
	Name    string
	Args    json.RawMessage
	RawArgs string
}

// accumulator collects fragments for one chunk id until it's marked
// complete.
type accumulator struct {
	name string
	args strings.Builder
}

// ChunkBuffer assembles streamed tool-call fragments keyed by chunk id, and
// enforces exactly-once dispatch per id (spec invariant 2).
type ChunkBuffer struct {
	chunks    map[string]*accumulator
	displayed map[string]bool
}

// NewChunkBuffer returns an empty ChunkBuffer.
func NewChunkBuffer() *ChunkBuffer {
	return &ChunkBuffer{
		chunks:    make(map[string]*accumulator),
		displayed: make(map[string]bool),
	}
}

// Add records one fragment of a streamed tool call. When complete is true,
// the accumulated arguments are parsed (repairing malformed JSON first, and
// falling back to an empty object with the raw text retained) and the
// assembled ToolCall is returned.
func (b *ChunkBuffer) Add(id, name, argsFragment string, complete bool) (ToolCall, bool) {
	acc, ok := b.chunks[id]
	if !ok {
		acc = &accumulator{}
		b.chunks[id] = acc
	}
	if name != "" {
		acc.name = name
	}
	acc.args.WriteString(argsFragment)

	if !complete {
		return ToolCall{}, false
	}

	raw := acc.args.String()
	delete(b.chunks, id)

	args, parseErr := parseOrRepair(raw)
	if parseErr != nil {
		return ToolCall{ID: id, Name: acc.name, Args: json.RawMessage("{}"), RawArgs: raw}, true
	}
	return ToolCall{ID: id, Name: acc.name, Args: args, RawArgs: raw}, true
}

func parseOrRepair(raw string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return json.RawMessage("{}"), nil
	}
	if json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed), nil
	}
	repaired, err := jsonrepair.JSONRepair(trimmed)
	if err == nil && json.Valid([]byte(repaired)) {
		return json.RawMessage(repaired), nil
	}
	return nil, errParseFailed
}

var errParseFailed = jsonParseError("chunkbuffer: could not parse or repair tool-call arguments")

type jsonParseError string

func (e jsonParseError) Error() string { return string(e) }

// WasDisplayed reports whether id has already been dispatched/displayed.
func (b *ChunkBuffer) WasDisplayed(id string) bool {
	return b.displayed[id]
}

// MarkDisplayed records id as dispatched, so a later duplicate chunk never
// triggers a second dispatch.
func (b *ChunkBuffer) MarkDisplayed(id string) {
	b.displayed[id] = true
}
