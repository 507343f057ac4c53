// Package telemetry provides Prometheus metrics and OpenTelemetry tracing for
// the Firecrawl client.
//
// Metrics implements the transport's request observer:
//
//	m := telemetry.NewMetrics()
//	client := firecrawl.NewClient(cfg, firecrawl.WithObserver(m))
//	go m.Serve(ctx, ":9090")
//
// Tracing wraps the HTTP transport with otelhttp so every API call becomes a
// client span exported over OTLP/HTTP.
package telemetry
