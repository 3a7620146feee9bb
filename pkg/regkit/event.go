package regkit

import (
	"context"
	"time"

	"github.com/randalmurphal/regkit/pkg/regkit/observability"
)

// Observer receives dispatched event arguments.
type Observer[Args any] interface {
	Notify(args Args)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc[Args any] func(Args)

// Notify calls fn(args).
func (fn ObserverFunc[Args]) Notify(args Args) {
	fn(args)
}

// Event is a publish/subscribe bus built on a Registry of observers:
// subscriptions are slots, and the Handle returned by Subscribe owns the
// subscription's lifetime. Dispatch holds the shared lock, so concurrent
// dispatches proceed simultaneously while subscribes and unsubscribes wait.
type Event[Args any] struct {
	observers *Registry[Observer[Args]]
}

// NewEvent creates an event with no observers.
func NewEvent[Args any](opts ...Option) *Event[Args] {
	return &Event[Args]{
		observers: newRegistry[Observer[Args]](newOptions(opts)),
	}
}

// InstanceID returns the unique identifier of the underlying observer
// registry family.
func (e *Event[Args]) InstanceID() string {
	return e.observers.InstanceID()
}

// Clone returns a new reference to the same observer set.
func (e *Event[Args]) Clone() *Event[Args] {
	return &Event[Args]{observers: e.observers.Clone()}
}

// Close releases this clone's reference to the observer set. When the last
// clone is closed all subscriptions are discarded and their handles become
// inert.
func (e *Event[Args]) Close() error {
	return e.observers.Close()
}

// Subscribe registers an observer. The subscription is live exactly as long
// as the returned handle: closing the handle unsubscribes.
func (e *Event[Args]) Subscribe(o Observer[Args]) *Handle {
	return e.observers.Register(o).Erase()
}

// SubscribeFunc registers a plain function as an observer.
func (e *Event[Args]) SubscribeFunc(fn func(Args)) *Handle {
	return e.Subscribe(ObserverFunc[Args](fn))
}

// Dispatch invokes every live observer with args, in subscription
// (ascending identifier) order, under the shared lock. Concurrent
// dispatches share the lock; dispatch on a destroyed observer set is a
// no-op. Observers must not subscribe, unsubscribe, or close this event
// from inside Notify; that re-enters the lock.
func (e *Event[Args]) Dispatch(args Args) {
	start := time.Now()

	// Dispatch goes to the family directly rather than through a view:
	// the remove-callback wiring in TracedRegistry dispatches through an
	// Event value whose own clone may already be closed while other
	// clones keep the family alive.
	st := e.observers.st
	if !st.acquireRead() {
		return
	}
	n := len(st.slots)
	for _, id := range st.sortedIDs() {
		st.slots[id].Notify(args)
	}
	st.releaseRead()

	elapsed := time.Since(start)
	observability.LogDispatch(st.logger, st.instance, n, float64(elapsed.Milliseconds()))
	st.metrics.RecordDispatch(context.Background(), st.instance, n, elapsed)
}

// Len returns the number of live subscriptions.
func (e *Event[Args]) Len() int {
	return e.observers.Len()
}
