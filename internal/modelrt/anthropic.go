package modelrt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
)

// submitPlanTool is the tool name the plan-mode system-reminder (spec
// §4.5 Phase 1) asks the model to call before any destructive action. The
// Anthropic binding intercepts it rather than dispatching it through the
// ordinary tool registry: it never reaches C2, it becomes a HITL
// UpdateInterrupt instead (spec §6.3's "updates channel ... __interrupt__"
// contract, adapted to this provider's plain tool-use blocks).
const submitPlanTool = "submit_plan"

// AnthropicRuntime binds Runtime to the Anthropic SDK's streaming messages
// API: content-block deltas become EventText/EventToolCallChunk, and
// message-stop/usage events become EventUsage/EventDone.
type AnthropicRuntime struct {
	client *anthropic.Client
	system string
	tools  []anthropic.ToolParam

	mu    sync.Mutex
	model string
}

// NewAnthropicRuntime returns a Runtime bound to model, with system as the
// fixed system-prompt suffix (agent memory content, spec §5 supplement)
// and tools as the tool catalogue advertised each turn.
func NewAnthropicRuntime(client *anthropic.Client, model, system string, tools []anthropic.ToolParam) *AnthropicRuntime {
	tools = append(tools, anthropic.ToolParam{
		Name:        submitPlanTool,
		Description: anthropic.String("Submit a plan for human approval before performing any destructive or write action. Only used while plan mode is active."),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: map[string]any{
				"description": map[string]any{
					"type":        "string",
					"description": "A concise description of the plan awaiting approval.",
				},
			},
		},
	})
	return &AnthropicRuntime{client: client, model: model, system: system, tools: tools}
}

// Model returns the model identifier currently in effect.
func (r *AnthropicRuntime) Model() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.model
}

// SetModel changes the model used for subsequent turns. Safe to call
// between turns only; callers gate this on Checkpointer.HasActiveConversation.
func (r *AnthropicRuntime) SetModel(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.model = model
}

func (r *AnthropicRuntime) Start(ctx context.Context, threadID, userMessage string) (Stream, error) {
	return r.stream(ctx, []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(userMessage)),
	})
}

func (r *AnthropicRuntime) ResumeWithToolResult(ctx context.Context, threadID, toolCallID, result string) (Stream, error) {
	return r.stream(ctx, []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewToolResultBlock(toolCallID, result, false)),
	})
}

func (r *AnthropicRuntime) ResumeWithDecision(ctx context.Context, threadID string, decision Decision) (Stream, error) {
	text := "<system-reminder>Your plan was approved. Proceed with execution.</system-reminder>"
	if !decision.Approved {
		text = fmt.Sprintf("<system-reminder>Your plan was rejected. User feedback: %s</system-reminder>", decision.Feedback)
	}
	return r.stream(ctx, []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(text)),
	})
}

func (r *AnthropicRuntime) stream(ctx context.Context, messages []anthropic.MessageParam) (Stream, error) {
	sdkStream := r.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:    r.Model(),
		System:   []anthropic.TextBlockParam{{Text: r.system}},
		Messages: messages,
		Tools:    r.tools,
	})

	s := &anthropicStream{
		messages: make(chan MessageEvent, 32),
		updates:  make(chan UpdateEvent, 8),
	}
	go s.pump(sdkStream)
	return s, nil
}

// anthropicStream adapts the Anthropic SDK's streaming event iterator to
// ptc's dual-channel Stream contract.
type anthropicStream struct {
	messages chan MessageEvent
	updates  chan UpdateEvent
	err      error
}

func (s *anthropicStream) Messages() <-chan MessageEvent { return s.messages }
func (s *anthropicStream) Updates() <-chan UpdateEvent   { return s.updates }
func (s *anthropicStream) Err() error                    { return s.err }

func (s *anthropicStream) pump(sdkStream *anthropic.Stream[anthropic.MessageStreamEvent]) {
	defer close(s.messages)
	defer close(s.updates)

	var inputTokens, outputTokens int
	planBlocks := make(map[string]*strings.Builder)

	for sdkStream.Next() {
		event := sdkStream.Current()
		switch variant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := variant.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				s.messages <- MessageEvent{Kind: EventText, Text: delta.Text}
			case anthropic.InputJSONDelta:
				if b, ok := planBlocks[fmt.Sprintf("%d", variant.Index)]; ok {
					b.WriteString(delta.PartialJSON)
					continue
				}
				s.messages <- MessageEvent{
					Kind:         EventToolCallChunk,
					ChunkID:      fmt.Sprintf("%d", variant.Index),
					ArgsFragment: delta.PartialJSON,
				}
			}
		case anthropic.ContentBlockStartEvent:
			if toolUse, ok := variant.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
				if toolUse.Name == submitPlanTool {
					planBlocks[fmt.Sprintf("%d", variant.Index)] = &strings.Builder{}
					continue
				}
				s.messages <- MessageEvent{
					Kind:     EventToolCallChunk,
					ChunkID:  fmt.Sprintf("%d", variant.Index),
					ToolName: toolUse.Name,
				}
			}
		case anthropic.ContentBlockStopEvent:
			if b, ok := planBlocks[fmt.Sprintf("%d", variant.Index)]; ok {
				delete(planBlocks, fmt.Sprintf("%d", variant.Index))
				s.updates <- UpdateEvent{
					Kind: UpdateInterrupt,
					Interrupt: &PlanInterrupt{
						ID:          fmt.Sprintf("%d", variant.Index),
						Description: extractPlanDescription(b.String()),
					},
				}
				continue
			}
			s.messages <- MessageEvent{Kind: EventToolCallChunk, ChunkID: fmt.Sprintf("%d", variant.Index), ChunkComplete: true}
		case anthropic.MessageDeltaEvent:
			if variant.Usage.OutputTokens > 0 {
				outputTokens = int(variant.Usage.OutputTokens)
			}
		}
	}

	if err := sdkStream.Err(); err != nil {
		s.err = err
	}
	s.messages <- MessageEvent{Kind: EventUsage, InputTokens: inputTokens, OutputTokens: outputTokens}
	s.messages <- MessageEvent{Kind: EventDone}
}

// extractPlanDescription pulls the "description" field out of a
// submit_plan call's accumulated JSON arguments. Malformed or missing
// input falls back to the raw text so the approval panel still has
// something to show the user.
func extractPlanDescription(raw string) string {
	var args struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(raw), &args); err == nil && args.Description != "" {
		return args.Description
	}
	return raw
}
