// Package tracing holds the OpenTelemetry tracer shared by the refresher and
// the HTTP server. Without an SDK installed the global provider is a no-op.
package tracing

import (
	"context"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const name = "github.com/mithrel/changelog"

// Start starts a span named op.
func Start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(name).Start(ctx, op, trace.WithAttributes(attrs...))
}

// RecordError records an error on the span following OTel exception conventions.
func RecordError(span trace.Span, err error) {
	if err == nil || !span.IsRecording() {
		return
	}
	const maxStackSize = 4096
	stackBuf := make([]byte, maxStackSize)
	stackSize := runtime.Stack(stackBuf, false)

	span.AddEvent("exception",
		trace.WithAttributes(
			attribute.String("exception.type", "error"),
			attribute.String("exception.message", err.Error()),
			attribute.String("exception.stacktrace", string(stackBuf[:stackSize])),
		),
	)
	span.SetStatus(codes.Error, err.Error())
}
