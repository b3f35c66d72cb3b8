// Package observability provides OpenTelemetry metrics and the optional
// diagnostics HTTP endpoint for patcanon runs.
package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// meterName scopes the instruments created by this process.
const meterName = "patcanon"

// Telemetry bundles the meter the pipeline records into with the
// Prometheus handler that serves what the meter collected. Both sides
// share one registry, so instruments recorded anywhere in the process
// show up on the scrape endpoint.
type Telemetry struct {
	provider *sdkmetric.MeterProvider
	meter    metric.Meter
	handler  http.Handler
}

// NewTelemetry creates an OTel meter provider backed by an independent
// Prometheus registry and returns the bundle. Each call creates its own
// registry to avoid collector conflicts when called multiple times.
func NewTelemetry() (*Telemetry, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
	)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	return &Telemetry{
		provider: provider,
		meter:    provider.Meter(meterName),
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}, nil
}

// Meter returns the meter instruments should be created from.
func (t *Telemetry) Meter() metric.Meter {
	return t.meter
}

// Handler returns the /metrics scrape handler.
func (t *Telemetry) Handler() http.Handler {
	return t.handler
}

// Shutdown flushes and stops the meter provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	err := t.provider.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("shutdown meter provider: %w", err)
	}

	return nil
}
