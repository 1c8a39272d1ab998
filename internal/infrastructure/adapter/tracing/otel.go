package tracing

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/nerbixa/payment-reconciler/internal/infrastructure/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// ShutdownFunc flushes and stops the tracer provider
type ShutdownFunc func(ctx context.Context) error

// Endpoint is a parsed OTLP/HTTP collector address
type Endpoint struct {
	Host     string
	Path     string
	Insecure bool
}

// ParseEndpoint accepts a full URL or host:port
func ParseEndpoint(raw string, insecure bool) Endpoint {
	ep := Endpoint{Host: "localhost:4318", Path: "/v1/traces", Insecure: insecure}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ep
	}

	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		if u, err := url.Parse(raw); err == nil {
			if u.Host != "" {
				ep.Host = u.Host
			}
			if u.Path != "" && u.Path != "/" {
				ep.Path = u.Path
			}
			ep.Insecure = u.Scheme == "http"
		}
		return ep
	}

	ep.Host = raw
	return ep
}

// InitTracer installs the global tracer provider and W3C propagators.
// When tracing is disabled only the propagators are installed.
func InitTracer(ctx context.Context, cfg config.TracingConfig, version string) (ShutdownFunc, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	ep := ParseEndpoint(cfg.Endpoint, cfg.Insecure)
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(ep.Host),
		otlptracehttp.WithURLPath(ep.Path),
	}
	if ep.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	ratio := cfg.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
