// Package observer provides OTEL-based tracing for the organization
// runtime.
//
// It wires [NewTracer] to the global OTEL TracerProvider so dispatched
// events and agent loop iterations show up as spans. Metrics and log
// pipelines are out of scope here — the runtime's cost accounting lives
// in the root package's budget ledger and CostCalculator, not in an OTEL
// metrics exporter.
package observer

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const scopeName = "github.com/orglang/orgruntime/observer"

// Init configures the global OTEL TracerProvider with an OTLP/HTTP span
// exporter. Configuration comes from standard OTEL env vars
// (OTEL_EXPORTER_OTLP_ENDPOINT, etc.). Call NewTracer afterward to obtain
// an org.Tracer backed by the configured provider; the returned shutdown
// function must be called on application exit to flush pending spans.
func Init(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	if serviceName == "" {
		serviceName = "orgruntime"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
		resource.WithFromEnv(),
	)
	if err != nil {
		return nil, err
	}

	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx))
	}, nil
}
