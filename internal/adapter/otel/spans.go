package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "lspkeeper"

// StartEnsureSpan starts a span for one provisioning decision.
func StartEnsureSpan(ctx context.Context, command string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "provision.ensure",
		trace.WithAttributes(attribute.String("provision.command", command)),
	)
}

// StartInstallSpan starts a span for a package-manager install.
func StartInstallSpan(ctx context.Context, sessionID, command, action string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "provision.install",
		trace.WithAttributes(
			attribute.String("install.id", sessionID),
			attribute.String("provision.command", command),
			attribute.String("install.action", action),
		),
	)
}

// StartLifecycleSpan starts a span for a supervisor operation
// ("start", "stop" or "restart").
func StartLifecycleSpan(ctx context.Context, op, command string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "lsp."+op,
		trace.WithAttributes(attribute.String("provision.command", command)),
	)
}

// EndSpan records err (if any) and ends span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
