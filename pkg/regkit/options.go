package regkit

import (
	"log/slog"

	"github.com/randalmurphal/regkit/pkg/regkit/observability"
)

// options holds cross-cutting configuration shared by every registry flavor.
type options struct {
	logger  *slog.Logger
	metrics observability.MetricsRecorder
}

// defaultOptions returns the default configuration: no logging, no metrics.
func defaultOptions() options {
	return options{
		metrics: observability.NoopMetrics{},
	}
}

// Option configures a Registry, KeyedRegistry, Event, or TracedRegistry.
type Option func(*options)

// WithLogger enables debug-level structured logging of slot lifecycle and
// event dispatch. A nil logger disables logging (the default).
//
// Example:
//
//	r := regkit.New[int](regkit.WithLogger(slog.Default()))
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics enables metrics recording for slot lifecycle and event
// dispatch. Use observability.NewMetricsRecorder() for OpenTelemetry
// metrics. Default: no-op recorder.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// newOptions applies opts over the defaults.
func newOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
