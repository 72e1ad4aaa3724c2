package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics holds the client's request counters. A zero-value Metrics (or one
// built from a nil meter) counts into no-op instruments.
type Metrics struct {
	requests     metric.Int64Counter
	authFailures metric.Int64Counter
	queries      metric.Int64Counter
}

// NewMetrics registers the client counters on meter. Pass a nil meter for
// no-op instruments (tests, offline mode).
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("aq54.dashboard")
	}
	requests, err := meter.Int64Counter("dashboard.api.requests",
		metric.WithDescription("REST requests issued by the dashboard client"))
	if err != nil {
		return nil, err
	}
	authFailures, err := meter.Int64Counter("dashboard.auth.failures",
		metric.WithDescription("authentication failures observed by the client"))
	if err != nil {
		return nil, err
	}
	queries, err := meter.Int64Counter("dashboard.sensor.queries",
		metric.WithDescription("sensor telemetry queries dispatched"))
	if err != nil {
		return nil, err
	}
	return &Metrics{requests: requests, authFailures: authFailures, queries: queries}, nil
}

// CountRequest records one REST request with its route and status class.
func (m *Metrics) CountRequest(ctx context.Context, path string, status int) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("path", path),
			attribute.Int("status", status),
		))
}

// CountAuthFailure records one authentication failure of the given kind.
func (m *Metrics) CountAuthFailure(ctx context.Context, kind string) {
	if m == nil || m.authFailures == nil {
		return
	}
	m.authFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// CountQuery records one dispatched sensor query.
func (m *Metrics) CountQuery(ctx context.Context, station string) {
	if m == nil || m.queries == nil {
		return
	}
	m.queries.Add(ctx, 1, metric.WithAttributes(attribute.String("station", station)))
}
