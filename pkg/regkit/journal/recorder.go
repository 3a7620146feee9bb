package journal

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/regkit/pkg/regkit"
	"github.com/randalmurphal/regkit/pkg/regkit/observability"
)

// Recorder appends lifecycle notifications to a Store. One recorder may
// serve several registries; records are keyed by the registry's instance ID.
type Recorder struct {
	store  Store
	logger *slog.Logger
	spans  observability.SpanManager
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithLogger enables warn-level logging of append failures.
func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// WithSpans enables span creation around each append. Use
// observability.NewSpanManager() for OpenTelemetry spans.
func WithSpans(spans observability.SpanManager) RecorderOption {
	return func(r *Recorder) {
		if spans != nil {
			r.spans = spans
		}
	}
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store: store,
		spans: observability.NoopSpanManager{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Attach subscribes the recorder to a traced registry and returns the
// subscription handle; closing the handle stops journaling. Append errors
// are logged, never propagated into dispatch.
func Attach[T any](r *Recorder, tr *regkit.TracedRegistry[T]) *regkit.Handle {
	registryID := tr.InstanceID()
	return tr.SubscribeFunc(func(n regkit.Notification[T]) {
		r.record(registryID, n.Kind.String(), uint64(n.ID), n.Value)
	})
}

// record journals one notification.
func (r *Recorder) record(registryID, kind string, slotID uint64, value any) {
	ctx, span := r.spans.StartJournalSpan(context.Background(), registryID, kind)

	// Best effort - a value that does not marshal is journaled without payload
	payload, err := json.Marshal(value)
	if err != nil {
		payload = nil
	}

	rec := &Record{
		ID:         uuid.New().String(),
		RegistryID: registryID,
		Kind:       kind,
		SlotID:     slotID,
		Payload:    payload,
		Timestamp:  time.Now().UTC(),
	}

	err = r.store.Append(ctx, rec)
	if err != nil {
		observability.LogJournalError(r.logger, registryID, err)
	}
	r.spans.EndSpanWithError(span, err)
}
