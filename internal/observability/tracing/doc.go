// Package tracing provides the service tracer and HTTP server spans.
//
// Spans are no-ops until Setup (or otel.SetTracerProvider) installs a provider;
// tests install an in-memory one from go.opentelemetry.io/otel/sdk/trace/tracetest.
package tracing
