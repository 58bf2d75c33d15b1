package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "switchboard"

// StartDecisionSpan starts a span for a single routing decision.
func StartDecisionSpan(ctx context.Context, taskID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "decision",
		trace.WithAttributes(
			attribute.String("task.id", taskID),
		),
	)
}

// StartOrchestrateSpan starts a span for a full orchestrate call.
func StartOrchestrateSpan(ctx context.Context, taskID, agentID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "orchestrate",
		trace.WithAttributes(
			attribute.String("task.id", taskID),
			attribute.String("agent.id", agentID),
		),
	)
}

// StartTaskForceSpan starts a span for task force assembly.
func StartTaskForceSpan(ctx context.Context, objective string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "taskforce.create",
		trace.WithAttributes(
			attribute.String("taskforce.objective", objective),
		),
	)
}
