package streaming

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ptc/internal/agenterr"
	"ptc/internal/approval"
	"ptc/internal/command"
	"ptc/internal/config"
	"ptc/internal/mention"
	"ptc/internal/modelrt"
	"ptc/internal/recovery"
	"ptc/internal/render"
	"ptc/internal/session"
	"ptc/internal/telemetry"
	"ptc/internal/tokenutil"
	"ptc/internal/toolregistry"
)

// planModeReminder is injected ahead of the user's message while plan mode
// is active, grounded on original_source's executor.py system-reminder
// block: the model is asked to propose a plan and stop rather than act.
const planModeReminder = "<system-reminder>Plan mode is active. Describe the plan and submit it for approval before making any changes.</system-reminder>\n\n"

// sensitiveTools is the set spec §4.5 names for the empty-result streak
// check: filesystem read, glob, grep, shell. write_file/edit_file/
// execute_code are excluded — an empty result from those is often
// legitimate (e.g. a successful write with nothing to echo back).
var sensitiveTools = map[string]bool{
	"read_file":    true,
	"glob":         true,
	"grep":         true,
	"execute_bash": true,
}

// ApprovalMenu is the subset of *approval.Menu the executor needs for
// Phase 3's HITL resolution, kept as an interface so tests can script
// accept/reject decisions without driving a real raw-mode terminal.
type ApprovalMenu interface {
	ReviewPlan(description string) (approval.Decision, error)
}

// Executor runs one turn end to end: preprocessing the user's message
// (Phase 0), optionally tagging it for plan mode (Phase 1), driving the
// model runtime's dual-channel stream to completion while dispatching tool
// calls and recovering from at most one sandbox fault (Phase 2-3), honoring
// cancellation (Phase 4), and refreshing the mention completer's file cache
// in the background (Phase 5). Grounded on original_source's
// streaming/executor.py.
type Executor struct {
	cfg       config.RuntimeConfig
	runtime   modelrt.Runtime
	tools     *toolregistry.Registry
	recoverer *recovery.Recoverer
	console   *render.Console
	spinner      *render.Spinner
	approvals    ApprovalMenu
	completer    *mention.Completer
	tracker      *tokenutil.Tracker
	checkpointer *modelrt.Checkpointer
}

// NewExecutor wires together one turn's dependencies.
func NewExecutor(
	cfg config.RuntimeConfig,
	runtime modelrt.Runtime,
	tools *toolregistry.Registry,
	recoverer *recovery.Recoverer,
	console *render.Console,
	approvals ApprovalMenu,
	completer *mention.Completer,
	tracker *tokenutil.Tracker,
	checkpointer *modelrt.Checkpointer,
) *Executor {
	return &Executor{
		cfg:          cfg,
		runtime:      runtime,
		tools:        tools,
		recoverer:    recoverer,
		console:      console,
		spinner:      render.NewSpinner(console),
		approvals:    approvals,
		completer:    completer,
		tracker:      tracker,
		checkpointer: checkpointer,
	}
}

// RunTurn drives one user message through the model runtime to completion.
func (e *Executor) RunTurn(ctx context.Context, handle *session.Handle, state *command.State, userMessage string) agenterr.Result {
	e.checkpointer.MarkActive(state.ThreadID)
	defer e.checkpointer.MarkIdle(state.ThreadID)

	augmented, err := e.preprocessInput(ctx, handle, userMessage)
	if err != nil {
		return agenterr.ToolErrResult(fmt.Errorf("streaming: preprocessing input: %w", err))
	}
	if state.PlanMode {
		augmented = planModeReminder + augmented
	}
	state.LastUserMessage = userMessage

	stream, err := e.runtime.Start(ctx, state.ThreadID, augmented)
	if err != nil {
		return agenterr.FaultResult(err)
	}

	chunks := NewChunkBuffer()
	recovered := false
	emptyStreak := 0

	e.spinner.Start("thinking")
	defer e.spinner.Stop()

	for {
		select {
		case <-ctx.Done():
			return agenterr.CancelledResult(ctx.Err())

		case msg, ok := <-stream.Messages():
			if !ok {
				if err := stream.Err(); err != nil {
					if recovery.Classify(err, "") == recovery.SandboxFault && !recovered {
						recovered = true
						next, recErr := e.reconnectAndRestart(ctx, handle, state)
						if recErr != nil {
							return agenterr.FaultResult(recErr)
						}
						stream = next
						continue
					}
					return agenterr.FaultResult(err)
				}
				return agenterr.OkResult()
			}
			outcome := e.handleMessage(ctx, handle, state, chunks, msg, &emptyStreak, &recovered)
			if outcome.terminate {
				return outcome.result
			}
			if outcome.resumed != nil {
				stream = outcome.resumed
			}

		case upd, ok := <-stream.Updates():
			if !ok {
				continue
			}
			next, terminal, termResult := e.handleUpdate(ctx, state, upd)
			if terminal {
				return termResult
			}
			if next != nil {
				stream = next
			}
		}
	}
}

type messageOutcome struct {
	terminate bool
	result    agenterr.Result
	resumed   modelrt.Stream
}

func (e *Executor) handleMessage(
	ctx context.Context,
	handle *session.Handle,
	state *command.State,
	chunks *ChunkBuffer,
	msg modelrt.MessageEvent,
	emptyStreak *int,
	recovered *bool,
) messageOutcome {
	switch msg.Kind {
	case modelrt.EventText:
		e.spinner.Stop()
		e.console.Print(e.console.Markdown(msg.Text))
		return messageOutcome{}

	case modelrt.EventUsage:
		e.tracker.Add(msg.InputTokens, msg.OutputTokens)
		return messageOutcome{}

	case modelrt.EventToolCallChunk:
		call, complete := chunks.Add(msg.ChunkID, msg.ToolName, msg.ArgsFragment, msg.ChunkComplete)
		if !complete || chunks.WasDisplayed(call.ID) {
			return messageOutcome{}
		}
		chunks.MarkDisplayed(call.ID)

		e.spinner.Stop()
		e.console.PrintToolLine(call.Name, call.RawArgs)

		dispatchCtx, span := telemetry.StartToolDispatch(ctx, call.Name)
		result, derr := e.tools.Dispatch(dispatchCtx, call.Name, call.Args)
		telemetry.End(span, derr)
		if derr != nil {
			result = "ERROR: " + derr.Error()
		}

		if strings.TrimSpace(result) == "" && sensitiveTools[call.Name] {
			*emptyStreak++
		} else {
			*emptyStreak = 0
		}

		if *emptyStreak >= e.cfg.EmptyResultThreshold {
			*emptyStreak = 0
			switch {
			case recovery.Live(ctx, handle.Sandbox):
				// Sandbox answered the probe: a run of genuinely quiet but
				// healthy tool calls, not a fault (spec §4.5/§4.6).
			case *recovered:
				e.console.PrintDim("ending turn after repeated empty tool results and a failed reattach")
				return messageOutcome{
					terminate: true,
					result:    agenterr.FaultResult(fmt.Errorf("streaming: sandbox unresponsive after repeated empty tool results; reattach already used this turn")),
				}
			default:
				*recovered = true
				if newClient, recErr := e.recoverer.Recover(ctx, handle.Sandbox.ID()); recErr == nil {
					handle.Sandbox = newClient
					result = "ERROR: sandbox connection was lost and has been re-established; retry the previous action"
				} else {
					return messageOutcome{terminate: true, result: agenterr.FaultResult(recErr)}
				}
			}
		}

		if recovery.Classify(nil, result) == recovery.SandboxFault && !*recovered {
			*recovered = true
			if newClient, recErr := e.recoverer.Recover(ctx, handle.Sandbox.ID()); recErr == nil {
				handle.Sandbox = newClient
				result = "ERROR: sandbox connection was lost and has been re-established; retry the previous action"
			}
		}

		e.spinner.Start("thinking")
		next, rerr := e.runtime.ResumeWithToolResult(ctx, state.ThreadID, call.ID, result)
		if rerr != nil {
			return messageOutcome{terminate: true, result: agenterr.FaultResult(rerr)}
		}
		return messageOutcome{resumed: next}

	default:
		return messageOutcome{}
	}
}

func (e *Executor) handleUpdate(ctx context.Context, state *command.State, upd modelrt.UpdateEvent) (modelrt.Stream, bool, agenterr.Result) {
	switch upd.Kind {
	case modelrt.UpdateTodos:
		e.console.PrintDim(strings.Join(upd.Todos, " | "))
		return nil, false, agenterr.Result{}

	case modelrt.UpdateInterrupt:
		if upd.Interrupt == nil {
			return nil, false, agenterr.Result{}
		}
		e.spinner.Stop()

		var decision approval.Decision
		if e.cfg.AutoApprove || state.AutoApprove {
			decision = approval.Decision{Approved: true}
		} else {
			d, err := e.approvals.ReviewPlan(upd.Interrupt.Description)
			if err != nil {
				return nil, true, agenterr.CancelledResult(err)
			}
			decision = d
		}

		e.spinner.Start("thinking")
		next, err := e.runtime.ResumeWithDecision(ctx, state.ThreadID, modelrt.Decision{
			Approved: decision.Approved,
			Feedback: decision.Feedback,
		})
		if err != nil {
			return nil, true, agenterr.FaultResult(err)
		}
		return next, false, agenterr.Result{}

	default:
		return nil, false, agenterr.Result{}
	}
}

func (e *Executor) reconnectAndRestart(ctx context.Context, handle *session.Handle, state *command.State) (modelrt.Stream, error) {
	newClient, err := e.recoverer.Recover(ctx, handle.Sandbox.ID())
	if err != nil {
		return nil, err
	}
	handle.Sandbox = newClient
	return e.runtime.Start(ctx, state.ThreadID, state.LastUserMessage)
}

// preprocessInput implements Phase 0: expanding @-mentioned sandbox files
// inline, bounded by cfg.MaxMentionBytes total so a handful of large files
// cannot blow out the prompt.
func (e *Executor) preprocessInput(ctx context.Context, handle *session.Handle, userMessage string) (string, error) {
	paths := mention.ExtractMentions(userMessage)
	if len(paths) == 0 {
		return userMessage, nil
	}

	var b strings.Builder
	b.WriteString(userMessage)

	budget := e.cfg.MaxMentionBytes
	for _, p := range paths {
		if budget <= 0 {
			b.WriteString(fmt.Sprintf("\n\n<file path=%q>(omitted: mention budget exhausted)</file>", p))
			continue
		}
		content, err := handle.Sandbox.ReadFile(ctx, p)
		if err != nil {
			b.WriteString(fmt.Sprintf("\n\n<file path=%q>(could not read: %s)</file>", p, err))
			continue
		}
		if len(content) > budget {
			content = content[:budget] + "...(truncated)"
		}
		budget -= len(content)
		b.WriteString(fmt.Sprintf("\n\n<file path=%q>\n%s\n</file>", p, content))
	}
	return b.String(), nil
}

// RefreshFileCache implements Phase 5: a periodic background glob of the
// sandbox's working tree, feeding fresh paths to the mention completer so
// @-completion stays current without blocking the turn loop.
func (e *Executor) RefreshFileCache(ctx context.Context, handle *session.Handle, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			paths, err := handle.Sandbox.Glob(ctx, ".", "**/*")
			if err != nil {
				continue
			}
			e.completer.SetFiles(paths)
		}
	}
}
