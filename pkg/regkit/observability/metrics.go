package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records registry lifecycle metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordRegister records a slot registration.
	RecordRegister(ctx context.Context, registryID string)

	// RecordRemove records a slot removal.
	RecordRemove(ctx context.Context, registryID string)

	// RecordDispatch records an event dispatch with its fan-out and duration.
	RecordDispatch(ctx context.Context, registryID string, observers int, duration time.Duration)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	registrations     metric.Int64Counter
	removals          metric.Int64Counter
	activeSlots       metric.Int64UpDownCounter
	dispatches        metric.Int64Counter
	dispatchLatency   metric.Float64Histogram
	dispatchObservers metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("regkit")

	registrations, err := meter.Int64Counter("regkit.registry.registrations",
		metric.WithDescription("Number of slot registrations"),
	)
	if err != nil {
		return nil, err
	}

	removals, err := meter.Int64Counter("regkit.registry.removals",
		metric.WithDescription("Number of slot removals"),
	)
	if err != nil {
		return nil, err
	}

	activeSlots, err := meter.Int64UpDownCounter("regkit.registry.active_slots",
		metric.WithDescription("Number of currently registered slots"),
	)
	if err != nil {
		return nil, err
	}

	dispatches, err := meter.Int64Counter("regkit.event.dispatches",
		metric.WithDescription("Number of event dispatches"),
	)
	if err != nil {
		return nil, err
	}

	dispatchLatency, err := meter.Float64Histogram("regkit.event.dispatch_latency_ms",
		metric.WithDescription("Event dispatch latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	dispatchObservers, err := meter.Int64Histogram("regkit.event.dispatch_observers",
		metric.WithDescription("Number of observers notified per dispatch"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		registrations:     registrations,
		removals:          removals,
		activeSlots:       activeSlots,
		dispatches:        dispatches,
		dispatchLatency:   dispatchLatency,
		dispatchObservers: dispatchObservers,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordRegister records a slot registration.
func (m *otelMetrics) RecordRegister(ctx context.Context, registryID string) {
	attrs := []attribute.KeyValue{
		attribute.String("registry_id", registryID),
	}

	m.registrations.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.activeSlots.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRemove records a slot removal.
func (m *otelMetrics) RecordRemove(ctx context.Context, registryID string) {
	attrs := []attribute.KeyValue{
		attribute.String("registry_id", registryID),
	}

	m.removals.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.activeSlots.Add(ctx, -1, metric.WithAttributes(attrs...))
}

// RecordDispatch records an event dispatch.
func (m *otelMetrics) RecordDispatch(ctx context.Context, registryID string, observers int, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("registry_id", registryID),
	}

	m.dispatches.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.dispatchLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	m.dispatchObservers.Record(ctx, int64(observers), metric.WithAttributes(attrs...))
}
