// Package tracing wires an optional OpenTelemetry tracer provider
// around the Internal Handler's flush and signal-drain paths, adapted
// from the teacher's pkg/tracing. Tracing is opt-in: a nil *Tracer
// behaves as a no-op everywhere it's accepted.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// Backend selects the span export backend.
type Backend string

const (
	BackendOTLP   Backend = "otlp"
	BackendJaeger Backend = "jaeger"
)

// Tracer wraps an OTel TracerProvider scoped to this module.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// New builds a Tracer exporting to backend at endpoint, tagging spans
// with program as the service name. Returns (nil, nil) if endpoint is
// empty: tracing is opt-in per SPEC_FULL.md §2.2.
func New(ctx context.Context, backend Backend, endpoint, program string) (*Tracer, error) {
	if endpoint == "" {
		return nil, nil
	}

	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch backend {
	case BackendJaeger:
		exporter, err = jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
	default:
		client := otlptracehttp.NewClient(otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure())
		exporter, err = otlptrace.New(ctx, client)
	}
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(program),
	)

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return &Tracer{
		provider: provider,
		tracer:   provider.Tracer("ssw-corelog"),
	}, nil
}

// StartFlush starts a span around a durable-flush operation.
func (t *Tracer) StartFlush(ctx context.Context) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, "corelog.flush")
}

// StartSignalDrain starts a span around the drain-then-flush performed
// when a fatal signal arrives at the Internal Handler.
func (t *Tracer) StartSignalDrain(ctx context.Context) (context.Context, trace.Span) {
	if t == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return t.tracer.Start(ctx, "corelog.signal_drain")
}

// Shutdown flushes and releases the exporter. Safe to call on a nil
// Tracer.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
