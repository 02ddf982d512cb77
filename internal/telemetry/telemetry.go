// Package telemetry provides one OpenTelemetry span per turn with a child
// span per tool dispatch, grounded on the teacher's
// internal/domain/agent/react/tracing.go span-naming convention.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	scopeTurn = "ptc.turn"

	spanTurn = "ptc.turn"
	spanTool = "ptc.tool.dispatch"

	attrThreadID = "ptc.thread_id"
	attrAgent    = "ptc.agent_name"
	attrTool     = "ptc.tool_name"
	attrStatus   = "ptc.status"
)

// NewTracerProvider returns an SDK tracer provider exporting nowhere — no
// deployed collector endpoint is part of this system, so spans are created
// and finished (incurring real cost/attribute validation) but not shipped.
// Wiring a concrete OTLP/Jaeger exporter would require inventing a
// deployment target this system never names (see DESIGN.md).
func NewTracerProvider() *trace.TracerProvider {
	return trace.NewTracerProvider()
}

// StartTurn opens the root span for one turn.
func StartTurn(ctx context.Context, threadID, agentName string) (context.Context, oteltrace.Span) {
	return otel.Tracer(scopeTurn).Start(ctx, spanTurn, oteltrace.WithAttributes(
		attribute.String(attrThreadID, threadID),
		attribute.String(attrAgent, agentName),
	))
}

// StartToolDispatch opens a child span for one tool call.
func StartToolDispatch(ctx context.Context, toolName string) (context.Context, oteltrace.Span) {
	return otel.Tracer(scopeTurn).Start(ctx, spanTool, oteltrace.WithAttributes(
		attribute.String(attrTool, toolName),
	))
}

// End marks span's outcome and finishes it.
func End(span oteltrace.Span, err error) {
	if span == nil {
		return
	}
	defer span.End()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(attrStatus, "error"))
		return
	}
	span.SetStatus(codes.Ok, "")
	span.SetAttributes(attribute.String(attrStatus, "success"))
}
