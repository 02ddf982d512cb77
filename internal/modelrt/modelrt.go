// Package modelrt defines the opaque model-runtime streaming contract (C6's
// dual-channel dependency) and binds it to the Anthropic SDK's streaming
// messages API. The wire protocol itself is out of scope (spec non-goal);
// this package exists only to give the streaming executor something
// concrete to compile and test against.
package modelrt

import "context"

// EventKind discriminates MessageEvent payloads.
type EventKind int

const (
	EventText EventKind = iota
	EventToolCallChunk
	EventUsage
	EventDone
)

// MessageEvent is one item from a Stream's Messages channel.
type MessageEvent struct {
	Kind EventKind

	// Text is set when Kind == EventText.
	Text string

	// ToolCallChunk fields are set when Kind == EventToolCallChunk.
	ChunkID       string
	ToolName      string
	ArgsFragment  string
	ChunkComplete bool

	// Usage fields are set when Kind == EventUsage.
	InputTokens  int
	OutputTokens int
}

// UpdateKind discriminates UpdateEvent payloads.
type UpdateKind int

const (
	UpdateTodos UpdateKind = iota
	UpdateInterrupt
)

// UpdateEvent is one item from a Stream's Updates channel.
type UpdateEvent struct {
	Kind UpdateKind

	// Todos is set when Kind == UpdateTodos.
	Todos []string

	// Interrupt is set when Kind == UpdateInterrupt — a plan submitted for
	// human approval (HITL).
	Interrupt *PlanInterrupt
}

// PlanInterrupt carries a plan description awaiting approve/reject.
type PlanInterrupt struct {
	ID          string
	Description string
}

// Decision resumes a pending PlanInterrupt.
type Decision struct {
	Approved bool
	Feedback string
}

// Stream is the dual-channel event source a turn reads from (spec §6.3).
type Stream interface {
	Messages() <-chan MessageEvent
	Updates() <-chan UpdateEvent
	// Err returns the terminal error, if any, after both channels close.
	Err() error
}

// Runtime starts a turn and returns its Stream. ToolResult messages are fed
// back in via ResumeWithToolResult once the caller has dispatched any tool calls the
// model requested.
type Runtime interface {
	// Start begins a new turn with the given user message (already
	// preprocessed: file mentions expanded, plan-mode reminder injected as
	// needed).
	Start(ctx context.Context, threadID string, userMessage string) (Stream, error)
	// ResumeWithToolResult feeds a dispatched tool's result back to the
	// model and returns the continuation Stream.
	ResumeWithToolResult(ctx context.Context, threadID, toolCallID, result string) (Stream, error)
	// ResumeWithDecision resumes a HITL-interrupted stream with the user's
	// approve/reject decision.
	ResumeWithDecision(ctx context.Context, threadID string, decision Decision) (Stream, error)
}
