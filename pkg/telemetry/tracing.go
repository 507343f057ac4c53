package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"firecrawl/pkg/config"
)

const tracerName = "firecrawl"

// Config controls tracing initialisation
type Config struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
}

// FromSettings converts the telemetry section of the CLI config
func FromSettings(s config.TelemetryConfig) Config {
	return Config{
		Enabled:      s.Enabled,
		ServiceName:  s.ServiceName,
		OTLPEndpoint: s.OTLPEndpoint,
	}
}

// Providers holds the configured tracer provider
type Providers struct {
	TracerProvider *sdktrace.TracerProvider
	Propagator     propagation.TextMapPropagator
	Shutdown       func(ctx context.Context) error
}

// Init installs a global tracer provider. Spans are exported over OTLP/HTTP
// when cfg.OTLPEndpoint is set and dropped otherwise. It returns nil
// providers when cfg.Enabled is false.
func Init(ctx context.Context, cfg Config) (*Providers, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = config.AppName
	}

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if cfg.OTLPEndpoint != "" {
		exp, err := otlptracehttp.New(ctx, endpointOption(cfg.OTLPEndpoint))
		if err != nil {
			return nil, fmt.Errorf("create OTLP trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exp))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	prop := defaultPropagator()
	otel.SetTextMapPropagator(prop)

	return &Providers{
		TracerProvider: tp,
		Propagator:     prop,
		Shutdown: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			if err := tp.Shutdown(ctx); err != nil {
				return fmt.Errorf("trace provider shutdown: %w", err)
			}
			return nil
		},
	}, nil
}

func defaultPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

func endpointOption(endpoint string) otlptracehttp.Option {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return otlptracehttp.WithEndpointURL(endpoint)
	}
	return otlptracehttp.WithEndpoint(endpoint)
}

// InstrumentTransport wraps base so each API request becomes a client span.
// A nil prov returns base unchanged.
func InstrumentTransport(base http.RoundTripper, prov *Providers) http.RoundTripper {
	if prov == nil || prov.TracerProvider == nil {
		return base
	}
	if base == nil {
		base = http.DefaultTransport
	}

	return otelhttp.NewTransport(base,
		otelhttp.WithTracerProvider(prov.TracerProvider),
		otelhttp.WithPropagators(prov.Propagator),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return fmt.Sprintf("firecrawl %s %s", r.Method, r.URL.Path)
		}),
	)
}

// StartSpan starts a span on the global tracer; a no-op until Init has run
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}
