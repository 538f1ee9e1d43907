// Package tracing configures an OpenTelemetry tracer provider exporting
// over OTLP gRPC. Tracing stays a no-op until Setup is called with an
// endpoint.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"k8s.io/klog/v2"
)

// ServiceName identifies this process in exported spans.
const ServiceName = "wayfarer"

var provider trace.TracerProvider = noop.NewTracerProvider()

// Tracer returns the tracer for solver spans.
func Tracer() trace.Tracer {
	return provider.Tracer(ServiceName)
}

// Setup initializes the global tracer provider against the given OTLP gRPC
// endpoint and returns a shutdown function that flushes pending spans. An
// empty endpoint leaves the no-op provider in place.
func Setup(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	if endpoint == "" {
		klog.V(2).InfoS("Tracing disabled, no endpoint configured")
		return func(context.Context) error { return nil }, nil
	}

	client := otlptracegrpc.NewClient(
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	exporter, err := otlptrace.New(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", ServiceName),
		)),
	)
	provider = tp
	otel.SetTracerProvider(tp)
	klog.InfoS("Tracing enabled", "endpoint", endpoint)

	return func(ctx context.Context) error {
		if err := tp.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutting down tracer provider: %w", err)
		}
		return nil
	}, nil
}
