package regkit

import "errors"

// LifecycleKind discriminates the notifications a TracedRegistry publishes.
type LifecycleKind uint8

const (
	// Registered is published after a value is registered.
	Registered LifecycleKind = iota
	// Unregistered is published after a slot is removed.
	Unregistered
)

// String returns the kind's name.
func (k LifecycleKind) String() string {
	switch k {
	case Registered:
		return "registered"
	case Unregistered:
		return "unregistered"
	default:
		return "unknown"
	}
}

// Notification describes one slot lifecycle transition.
type Notification[T any] struct {
	Kind  LifecycleKind
	ID    ID
	Value T
}

// TracedRegistry composes a Registry with an Event so that every slot
// lifecycle transition is published to subscribed observers: Registered
// after each successful registration, Unregistered after each removal.
//
// For a given slot, Registered is always observed before Unregistered.
// Across slots, registration notifications follow identifier-issuance order
// and unregistration notifications follow close order.
//
// Values are published by copy, so T should be cheap to duplicate;
// reference-typed payloads are shared with observers.
type TracedRegistry[T any] struct {
	registry *Registry[T]
	event    *Event[Notification[T]]
}

// NewTraced creates a traced registry. The removal wiring is installed
// here, once: the inner registry's remove callback publishes Unregistered.
// Because of that, TracedRegistry does not expose SetRemoveCallback —
// subscribe an observer instead.
func NewTraced[T any](opts ...Option) *TracedRegistry[T] {
	o := newOptions(opts)
	registry := newRegistry[T](o)
	event := &Event[Notification[T]]{observers: newRegistry[Observer[Notification[T]]](o)}
	registry.SetRemoveCallback(func(id ID, value T) {
		event.Dispatch(Notification[T]{Kind: Unregistered, ID: id, Value: value})
	})
	return &TracedRegistry[T]{registry: registry, event: event}
}

// InstanceID returns the unique identifier of the wrapped registry family.
func (t *TracedRegistry[T]) InstanceID() string {
	return t.registry.InstanceID()
}

// Clone returns a new reference to the same inner state and observer set.
func (t *TracedRegistry[T]) Clone() *TracedRegistry[T] {
	return &TracedRegistry[T]{
		registry: t.registry.Clone(),
		event:    t.event.Clone(),
	}
}

// Close releases this clone's references. When the last clone is closed,
// remaining slots and subscriptions are discarded without notifications.
func (t *TracedRegistry[T]) Close() error {
	return errors.Join(t.registry.Close(), t.event.Close())
}

// Register stores value and publishes a Registered notification carrying a
// copy of it and the assigned identifier. The returned Entry owns the
// slot's lifetime; closing it publishes the matching Unregistered
// notification.
func (t *TracedRegistry[T]) Register(value T) *Entry[T] {
	entry := t.registry.Register(value)
	t.event.Dispatch(Notification[T]{Kind: Registered, ID: entry.ID(), Value: value})
	return entry
}

// Subscribe registers a lifecycle observer. The subscription is live
// exactly as long as the returned handle.
func (t *TracedRegistry[T]) Subscribe(o Observer[Notification[T]]) *Handle {
	return t.event.Subscribe(o)
}

// SubscribeFunc registers a plain function as a lifecycle observer.
func (t *TracedRegistry[T]) SubscribeFunc(fn func(Notification[T])) *Handle {
	return t.event.SubscribeFunc(fn)
}

// Read takes the shared lock on the wrapped registry. See Registry.Read.
func (t *TracedRegistry[T]) Read() *ReadView[T] {
	return t.registry.Read()
}

// Write takes the exclusive lock on the wrapped registry. See
// Registry.Write. Mutations through the view are in-place edits, not
// lifecycle transitions, and publish no notifications.
func (t *TracedRegistry[T]) Write() *WriteView[T] {
	return t.registry.Write()
}

// Len returns the number of slots in the wrapped registry.
func (t *TracedRegistry[T]) Len() int {
	return t.registry.Len()
}

// IsEmpty reports whether the wrapped registry holds no slots.
func (t *TracedRegistry[T]) IsEmpty() bool {
	return t.registry.IsEmpty()
}
