package streaming

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"ptc/internal/approval"
	"ptc/internal/command"
	"ptc/internal/config"
	"ptc/internal/mention"
	"ptc/internal/modelrt"
	"ptc/internal/recovery"
	"ptc/internal/render"
	"ptc/internal/sandbox"
	"ptc/internal/session"
	"ptc/internal/tokenutil"
	"ptc/internal/toolregistry"
)

// fakeRemoteSandbox is a minimal sandbox.RemoteSandbox double for exercising
// the empty-result-streak liveness probe without dialing a real backend.
type fakeRemoteSandbox struct {
	id         string
	listDirErr error
}

func (f *fakeRemoteSandbox) ID() string { return f.id }
func (f *fakeRemoteSandbox) ReadFile(ctx context.Context, path string) (string, error) {
	return "", nil
}
func (f *fakeRemoteSandbox) WriteFile(ctx context.Context, path, content string) error { return nil }
func (f *fakeRemoteSandbox) Glob(ctx context.Context, dir, pattern string) ([]string, error) {
	return nil, nil
}
func (f *fakeRemoteSandbox) Grep(ctx context.Context, dir, pattern string, opts sandbox.GrepOptions) ([]string, error) {
	return nil, nil
}
func (f *fakeRemoteSandbox) ExecuteBash(ctx context.Context, command string, timeout time.Duration) (sandbox.ExecResult, error) {
	return sandbox.ExecResult{}, nil
}
func (f *fakeRemoteSandbox) ExecuteCode(ctx context.Context, source string, timeout time.Duration) (sandbox.ExecResult, error) {
	return sandbox.ExecResult{}, nil
}
func (f *fakeRemoteSandbox) ReadFileRange(ctx context.Context, path string, offset, limit int) (string, error) {
	return "", nil
}
func (f *fakeRemoteSandbox) EditFile(ctx context.Context, path, old, new string, replaceAll bool) (bool, string, error) {
	return false, "", nil
}
func (f *fakeRemoteSandbox) ListDirectory(ctx context.Context, path string) ([]string, error) {
	if f.listDirErr != nil {
		return nil, f.listDirErr
	}
	return []string{}, nil
}
func (f *fakeRemoteSandbox) DownloadBytes(ctx context.Context, path string) ([]byte, error) {
	return nil, nil
}
func (f *fakeRemoteSandbox) Ping(ctx context.Context) error    { return nil }
func (f *fakeRemoteSandbox) Stop(ctx context.Context) error    { return nil }
func (f *fakeRemoteSandbox) Cleanup(ctx context.Context) error { return nil }
func (f *fakeRemoteSandbox) Close() error                      { return nil }

// fakeStream is a scripted modelrt.Stream: newScriptedStream buffers every
// scripted event on the messages channel up front and then closes it.
type fakeStream struct {
	messages chan modelrt.MessageEvent
	updates  chan modelrt.UpdateEvent
	err      error
}

func (s *fakeStream) Messages() <-chan modelrt.MessageEvent { return s.messages }
func (s *fakeStream) Updates() <-chan modelrt.UpdateEvent    { return s.updates }
func (s *fakeStream) Err() error                             { return s.err }

func newScriptedStream(events ...modelrt.MessageEvent) *fakeStream {
	s := &fakeStream{
		messages: make(chan modelrt.MessageEvent, len(events)+1),
		updates:  make(chan modelrt.UpdateEvent),
	}
	for _, e := range events {
		s.messages <- e
	}
	close(s.messages)
	close(s.updates)
	return s
}

// newInterruptStream scripts a stream whose updates channel carries a
// single HITL plan interrupt, for exercising Phase 3. The messages channel
// is left open and empty rather than closed: a real provider stream would
// not signal end-of-message-stream while a HITL interrupt is still
// outstanding, and closing it here would race the select in RunTurn
// against the (always-ready) closed channel.
func newInterruptStream(interrupt *modelrt.PlanInterrupt) *fakeStream {
	s := &fakeStream{
		messages: make(chan modelrt.MessageEvent),
		updates:  make(chan modelrt.UpdateEvent, 1),
	}
	s.updates <- modelrt.UpdateEvent{Kind: modelrt.UpdateInterrupt, Interrupt: interrupt}
	close(s.updates)
	return s
}

// fakeRuntime returns a pre-scripted stream on Start, then walks through
// resumeStreams in order (one per ResumeWithToolResult call), falling back
// to an empty stream once the script is spent.
type fakeRuntime struct {
	startStream   *fakeStream
	resumeStreams []*fakeStream
	resumeCalls   int
	decisionsSeen []modelrt.Decision
}

func (r *fakeRuntime) Start(ctx context.Context, threadID, userMessage string) (modelrt.Stream, error) {
	return r.startStream, nil
}

func (r *fakeRuntime) ResumeWithToolResult(ctx context.Context, threadID, toolCallID, result string) (modelrt.Stream, error) {
	defer func() { r.resumeCalls++ }()
	if r.resumeCalls < len(r.resumeStreams) {
		return r.resumeStreams[r.resumeCalls], nil
	}
	return newScriptedStream(), nil
}

func (r *fakeRuntime) ResumeWithDecision(ctx context.Context, threadID string, decision modelrt.Decision) (modelrt.Stream, error) {
	r.decisionsSeen = append(r.decisionsSeen, decision)
	return newScriptedStream(), nil
}

func newTestExecutor(runtime modelrt.Runtime, cfg config.RuntimeConfig) *Executor {
	reg := toolregistry.New()
	reg.Register(toolregistry.Descriptor{Name: "noop"}, func(ctx context.Context, args json.RawMessage) (string, error) {
		return "", nil
	})
	reg.Register(toolregistry.Descriptor{Name: "read_file"}, func(ctx context.Context, args json.RawMessage) (string, error) {
		return "", nil
	})
	recoverer := recovery.New(cfg, fakeSessionStore{})
	console := render.NewConsole(io.Discard)
	menu := approval.NewMenu(strings.NewReader(""), io.Discard)
	completer := mention.NewCompleter(64)
	tracker := tokenutil.NewTracker()
	checkpointer := modelrt.NewCheckpointer()

	return NewExecutor(cfg, runtime, reg, recoverer, console, menu, completer, tracker, checkpointer)
}

type fakeSessionStore struct{}

func (fakeSessionStore) Delete(ctx context.Context, agentName string) error { return nil }

// rejectingMenu is a scripted ApprovalMenu that always rejects with a
// fixed feedback string, for exercising S6 without a real raw terminal.
type rejectingMenu struct {
	feedback string
}

func (m rejectingMenu) ReviewPlan(description string) (approval.Decision, error) {
	return approval.Decision{Approved: false, Feedback: m.feedback}, nil
}

func TestRunTurnIgnoresEmptyResultsFromNonSensitiveTools(t *testing.T) {
	cfg := config.RuntimeConfig{EmptyResultThreshold: 1, MaxMentionBytes: 1000}

	runtime := &fakeRuntime{
		startStream: newScriptedStream(modelrt.MessageEvent{Kind: modelrt.EventToolCallChunk, ChunkID: "1", ToolName: "noop", ChunkComplete: true}),
	}
	exec := newTestExecutor(runtime, cfg)

	state := command.NewState(false, false, false, false)
	handle := &session.Handle{Sandbox: &fakeRemoteSandbox{id: "box-1"}}

	result := exec.RunTurn(context.Background(), handle, state, "do something")
	if result.Kind.String() != "ok" {
		t.Fatalf("an empty result from a non-sensitive tool must never end the turn, got %+v", result)
	}
}

func TestRunTurnRoutesSensitiveEmptyStreakThroughRecoveryInsteadOfAborting(t *testing.T) {
	cfg := config.RuntimeConfig{EmptyResultThreshold: 1, MaxMentionBytes: 1000}

	runtime := &fakeRuntime{
		startStream: newScriptedStream(modelrt.MessageEvent{Kind: modelrt.EventToolCallChunk, ChunkID: "1", ToolName: "read_file", ChunkComplete: true}),
	}
	exec := newTestExecutor(runtime, cfg)

	state := command.NewState(false, false, false, false)
	handle := &session.Handle{Sandbox: &fakeRemoteSandbox{id: "box-1", listDirErr: errors.New("down")}}

	result := exec.RunTurn(context.Background(), handle, state, "do something")
	if result.Kind.String() != "fault" {
		t.Fatalf("expected a fault result once the liveness probe fails and reattach cannot succeed, got %+v", result)
	}
}

func TestRunTurnSurvivesSensitiveStreakWhenSandboxIsStillLive(t *testing.T) {
	cfg := config.RuntimeConfig{EmptyResultThreshold: 1, MaxMentionBytes: 1000}

	runtime := &fakeRuntime{
		startStream: newScriptedStream(modelrt.MessageEvent{Kind: modelrt.EventToolCallChunk, ChunkID: "1", ToolName: "read_file", ChunkComplete: true}),
	}
	exec := newTestExecutor(runtime, cfg)

	state := command.NewState(false, false, false, false)
	handle := &session.Handle{Sandbox: &fakeRemoteSandbox{id: "box-1"}}

	result := exec.RunTurn(context.Background(), handle, state, "do something")
	if result.Kind.String() != "ok" {
		t.Fatalf("a responsive sandbox must not be treated as faulted just because results were quiet, got %+v", result)
	}
}

func TestRunTurnMarksThreadIdleAfterCompletion(t *testing.T) {
	cfg := config.RuntimeConfig{EmptyResultThreshold: 100, MaxMentionBytes: 1000}
	runtime := &fakeRuntime{startStream: newScriptedStream(modelrt.MessageEvent{Kind: modelrt.EventText, Text: "hi"})}
	exec := newTestExecutor(runtime, cfg)

	state := command.NewState(false, false, false, false)
	handle := &session.Handle{}

	exec.RunTurn(context.Background(), handle, state, "hello")
	if exec.checkpointer.HasActiveConversation(state.ThreadID) {
		t.Fatal("expected the thread to be marked idle once RunTurn returns")
	}
}

func TestPreprocessInputPassesThroughWithoutMentions(t *testing.T) {
	cfg := config.RuntimeConfig{EmptyResultThreshold: 3, MaxMentionBytes: 1000}
	exec := newTestExecutor(&fakeRuntime{startStream: newScriptedStream()}, cfg)

	out, err := exec.preprocessInput(context.Background(), &session.Handle{}, "no mentions here")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "no mentions here" {
		t.Fatalf("expected passthrough, got %q", out)
	}
}

// TestRunTurnAutoApprovesHITLInterruptWithoutPromptingTheMenu covers S5: a
// submit_plan HITL interrupt, with auto-approve set, must resume the
// stream with an approved decision and never block on the approval menu
// (whose underlying reader is empty in this test and would hang forever
// if read from).
func TestRunTurnAutoApprovesHITLInterruptWithoutPromptingTheMenu(t *testing.T) {
	cfg := config.RuntimeConfig{EmptyResultThreshold: 3, MaxMentionBytes: 1000, AutoApprove: true}
	runtime := &fakeRuntime{
		startStream: newInterruptStream(&modelrt.PlanInterrupt{ID: "1", Description: "write a file"}),
	}
	exec := newTestExecutor(runtime, cfg)

	state := command.NewState(false, false, false, false)
	handle := &session.Handle{Sandbox: &fakeRemoteSandbox{id: "box-1"}}

	result := exec.RunTurn(context.Background(), handle, state, "do something destructive")
	if result.Kind.String() != "ok" {
		t.Fatalf("expected an auto-approved HITL interrupt to finish the turn cleanly, got %+v", result)
	}
	if len(runtime.decisionsSeen) != 1 || !runtime.decisionsSeen[0].Approved {
		t.Fatalf("expected exactly one approved decision, got %+v", runtime.decisionsSeen)
	}
}

// TestRunTurnResumesRejectedHITLInterruptWithFeedback covers S6: the menu's
// reject decision (with feedback text) must be threaded through to
// ResumeWithDecision verbatim.
func TestRunTurnResumesRejectedHITLInterruptWithFeedback(t *testing.T) {
	cfg := config.RuntimeConfig{EmptyResultThreshold: 3, MaxMentionBytes: 1000}
	runtime := &fakeRuntime{
		startStream: newInterruptStream(&modelrt.PlanInterrupt{ID: "1", Description: "delete everything"}),
	}
	exec := newTestExecutor(runtime, cfg)
	exec.approvals = rejectingMenu{feedback: "use pandas not polars"}

	state := command.NewState(false, false, false, false)
	handle := &session.Handle{Sandbox: &fakeRemoteSandbox{id: "box-1"}}

	result := exec.RunTurn(context.Background(), handle, state, "do something destructive")
	if result.Kind.String() != "ok" {
		t.Fatalf("expected the turn to continue after a rejection, got %+v", result)
	}
	if len(runtime.decisionsSeen) != 1 {
		t.Fatalf("expected exactly one decision, got %+v", runtime.decisionsSeen)
	}
	got := runtime.decisionsSeen[0]
	if got.Approved {
		t.Fatal("expected a rejected decision")
	}
	if got.Feedback != "use pandas not polars" {
		t.Fatalf("expected feedback to be threaded through verbatim, got %q", got.Feedback)
	}
}
