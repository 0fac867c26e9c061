package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	outcomeSuccess   = "success"
	outcomeFailure   = "failure"
	outcomeTransport = "transport_error"
	metricPrefix     = "leilao_insights_"
)

// Metrics records backend calls, cache lookups and wizard transitions.
type Metrics struct {
	backendCalls    metric.Int64Counter
	backendDuration metric.Float64Histogram
	cacheLookups    metric.Int64Counter
	transitions     metric.Int64Counter
}

// NewMetrics creates the instruments on meter. A nil meter records nothing.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("leilao-insights")
	}
	m := &Metrics{}
	var err error
	m.backendCalls, err = meter.Int64Counter(
		metricPrefix+"backend_calls_total",
		metric.WithDescription("Calls made to the analysis backend by endpoint and outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend calls counter: %w", err)
	}
	m.backendDuration, err = meter.Float64Histogram(
		metricPrefix+"backend_call_duration_seconds",
		metric.WithDescription("Analysis backend call duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend duration histogram: %w", err)
	}
	m.cacheLookups, err = meter.Int64Counter(
		metricPrefix+"cache_lookups_total",
		metric.WithDescription("Backend response cache lookups by result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache lookups counter: %w", err)
	}
	m.transitions, err = meter.Int64Counter(
		metricPrefix+"wizard_transitions_total",
		metric.WithDescription("Wizard state transitions by action and result"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create wizard transitions counter: %w", err)
	}
	return m, nil
}

// RecordBackendCall observes one backend round trip.
func (m *Metrics) RecordBackendCall(ctx context.Context, endpoint, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("outcome", outcome),
	)
	m.backendCalls.Add(ctx, 1, attrs)
	m.backendDuration.Record(ctx, elapsed.Seconds(), attrs)
}

func (m *Metrics) RecordCacheLookup(ctx context.Context, endpoint string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("result", result),
	))
}

func (m *Metrics) RecordTransition(ctx context.Context, action string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("result", result),
	))
}
