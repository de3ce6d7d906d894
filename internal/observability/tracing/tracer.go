package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "feed-scraper"

// GetTracer resolves the tracer from the current global provider on every
// call, so a provider installed after package init is honored.
func GetTracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// Setup installs an SDK tracer provider sampling ratio of root spans and the
// W3C trace-context propagator. Without an exporter the spans are not
// shipped anywhere, but trace IDs become real and show up in logs and in
// X-Trace-Id. The returned function flushes and shuts the provider down.
func Setup(ratio float64, opts ...sdktrace.TracerProviderOption) func(context.Context) error {
	opts = append([]sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	}, opts...)
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{},
	))
	return tp.Shutdown
}
