// Package observability bootstraps OpenTelemetry tracing for the HTTP
// eval API, grounded on the teacher's internal/observability.SetupOTelSDK:
// a stdout span exporter, a resource tagged with the service name, and a
// batching trace provider. Each evaluation is wrapped in a span carrying
// the VM's stack-depth and data-stack bookkeeping as attributes, so a
// trace backend can chart how close a request came to the configured
// bounds without needing access to the process's own logs.
package observability

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Setup installs a tracer provider for serviceName and returns a shutdown
// function to run at process exit.
func Setup(ctx context.Context, serviceName string) (shutdown func(context.Context) error, err error) {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, err
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}

// EvalSpan is one traced evaluation: a fresh UUID-tagged span recording
// the source text length and, once the VM returns, whether it errored.
type EvalSpan struct {
	span    oteltrace.Span
	TraceID string
}

// StartEval opens a span for evaluating source under session, the way a
// request-scoped trace would wrap one unit of work in the teacher's
// tracer.Start calls (none of which survived into observability.go
// itself, but the pattern is the standard otel one this package follows).
func StartEval(ctx context.Context, session, source string) (context.Context, *EvalSpan) {
	tracer := otel.Tracer("lispirito")
	ctx, span := tracer.Start(ctx, "eval")
	traceID := uuid.NewString()
	span.SetAttributes(
		attribute.String("session", session),
		attribute.Int("source.length", len(source)),
		attribute.String("trace_id", traceID),
	)
	return ctx, &EvalSpan{span: span, TraceID: traceID}
}

// End records the outcome of the evaluation this span covers and closes
// it. frameDepth and argsDepth are the VM's EvalStackLimit/DataStackLimit
// usage at completion, exposed so a trace backend can flag requests that
// ran close to the configured bound.
func (e *EvalSpan) End(err error, frameDepth, argsDepth int) {
	e.span.SetAttributes(
		attribute.Int("vm.frame_depth", frameDepth),
		attribute.Int("vm.args_depth", argsDepth),
	)
	if err != nil {
		e.span.RecordError(err)
	}
	e.span.End()
}
