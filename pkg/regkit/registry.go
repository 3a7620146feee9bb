package regkit

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/randalmurphal/regkit/pkg/regkit/observability"
)

// Registry is a thread-safe container whose registered slots' lifetimes are
// controlled by the Entry handles it issues. Dropping (closing) an entry
// removes its slot and fires the optional remove callback.
//
// A Registry value is a lightweight reference to a shared inner state:
// Clone returns a second reference to the same state, and the state is
// destroyed when the last reference is closed. Entries never keep the state
// alive; once the family is destroyed they become permanently inert.
type Registry[T any] struct {
	st     *state[T]
	closed atomic.Bool
}

// state is the shared inner state of one registry family.
type state[T any] struct {
	instance string
	logger   *slog.Logger
	metrics  observability.MetricsRecorder

	mu    sync.RWMutex
	alive atomic.Bool

	// refs counts live Registry clones. Guarded by mu.
	refs int

	slots    map[ID]T
	nextID   ID
	onRemove func(ID, T)
}

// New creates a registry with an empty mapping and the identifier counter
// at zero.
func New[T any](opts ...Option) *Registry[T] {
	return newRegistry[T](newOptions(opts))
}

// newRegistry builds a registry from already-resolved options. Event and
// TracedRegistry reuse it so one option list configures the whole stack.
func newRegistry[T any](o options) *Registry[T] {
	st := &state[T]{
		instance: "reg-" + uuid.New().String()[:8],
		logger:   o.logger,
		metrics:  o.metrics,
		refs:     1,
		slots:    make(map[ID]T),
	}
	st.alive.Store(true)
	return &Registry[T]{st: st}
}

// InstanceID returns the unique identifier of this registry family, shared
// by all clones. It appears as the registry_id field in logs and metrics.
func (r *Registry[T]) InstanceID() string {
	return r.st.instance
}

// Clone returns a new reference to the same inner state. Both values see
// the same slots and issue identifiers from the same counter. Panics if
// this clone is closed or the family is already destroyed.
func (r *Registry[T]) Clone() *Registry[T] {
	st := r.st
	st.mu.Lock()
	defer st.mu.Unlock()
	if r.closed.Load() || !st.alive.Load() {
		panic(panicClosedRegistry)
	}
	st.refs++
	return &Registry[T]{st: st}
}

// Close releases this clone's reference to the inner state. When the last
// clone is closed the state is destroyed: remaining slots are discarded
// WITHOUT firing the remove callback, and outstanding entries become
// permanently inert. Closing the same clone twice returns ErrRegistryClosed.
func (r *Registry[T]) Close() error {
	if r.closed.Swap(true) {
		return ErrRegistryClosed
	}
	st := r.st
	st.mu.Lock()
	st.refs--
	if st.refs == 0 {
		st.alive.Store(false)
		remaining := len(st.slots)
		st.slots = nil
		st.onRemove = nil
		st.mu.Unlock()
		observability.LogRegistryClosed(st.logger, st.instance, remaining)
		return nil
	}
	st.mu.Unlock()
	return nil
}

// Register stores value under the next identifier and returns the Entry
// that owns the new slot's lifetime. The identifier is assigned and the
// value inserted under one exclusive section, so two concurrent Register
// calls never observe the same identifier.
//
// The entry must be kept: letting it go unused and closing it immediately
// revokes the slot right away. Panics if the registry is closed.
func (r *Registry[T]) Register(value T) *Entry[T] {
	st := r.st
	st.mu.Lock()
	if r.closed.Load() || !st.alive.Load() {
		st.mu.Unlock()
		panic(panicClosedRegistry)
	}
	id := st.nextID
	st.slots[id] = value
	st.nextID++
	st.mu.Unlock()

	observability.LogRegister(st.logger, st.instance, uint64(id))
	st.metrics.RecordRegister(context.Background(), st.instance)

	e := &Entry[T]{}
	e.table = st
	e.id = id
	return e
}

// Read takes the shared lock and returns a view for ordered iteration and
// point lookup. Blocks until no exclusive holder remains. The caller must
// Close the view to release the lock. Panics if the registry is closed.
func (r *Registry[T]) Read() *ReadView[T] {
	st := r.st
	st.mu.RLock()
	if r.closed.Load() || !st.alive.Load() {
		st.mu.RUnlock()
		panic(panicClosedRegistry)
	}
	return &ReadView[T]{st: st}
}

// Write takes the exclusive lock and returns a view that additionally
// supports mutation. Blocks until no other holder remains. The caller must
// Close the view to release the lock. Panics if the registry is closed.
func (r *Registry[T]) Write() *WriteView[T] {
	st := r.st
	st.mu.Lock()
	if r.closed.Load() || !st.alive.Load() {
		st.mu.Unlock()
		panic(panicClosedRegistry)
	}
	return &WriteView[T]{st: st}
}

// Len returns the number of slots in the registry family.
func (r *Registry[T]) Len() int {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	return len(r.st.slots)
}

// IsEmpty reports whether the registry family holds no slots.
func (r *Registry[T]) IsEmpty() bool {
	return r.Len() == 0
}

// SetRemoveCallback installs fn as the remove callback, replacing any
// previous one. The callback runs synchronously under the exclusive lock,
// immediately after a slot is removed, receiving the freed identifier and
// value. It must not reach back into this registry's lock. No-op on a
// destroyed family.
func (r *Registry[T]) SetRemoveCallback(fn func(ID, T)) {
	st := r.st
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.alive.Load() {
		return
	}
	st.onRemove = fn
}

// slots interface: the capability-erased surface entries reach back through.

func (s *state[T]) acquireRead() bool {
	s.mu.RLock()
	if !s.alive.Load() {
		s.mu.RUnlock()
		return false
	}
	return true
}

func (s *state[T]) releaseRead() {
	s.mu.RUnlock()
}

func (s *state[T]) acquireWrite() bool {
	s.mu.Lock()
	if !s.alive.Load() {
		s.mu.Unlock()
		return false
	}
	return true
}

func (s *state[T]) releaseWrite() {
	s.mu.Unlock()
}

func (s *state[T]) slotValue(id ID) (any, bool) {
	v, ok := s.slots[id]
	if !ok {
		return nil, false
	}
	return v, true
}

func (s *state[T]) setSlotValue(id ID, v any) bool {
	if _, ok := s.slots[id]; !ok {
		return false
	}
	t, ok := v.(T)
	if !ok {
		panic(wrongType[T](id, v))
	}
	s.slots[id] = t
	return true
}

func (s *state[T]) dropSlot(id ID) {
	v, ok := s.slots[id]
	if !ok {
		return
	}
	delete(s.slots, id)
	if s.onRemove != nil {
		s.onRemove(id, v)
	}
	observability.LogRemove(s.logger, s.instance, uint64(id))
	s.metrics.RecordRemove(context.Background(), s.instance)
}

// sortedIDs returns the slot identifiers in ascending order. Lock must be held.
func (s *state[T]) sortedIDs() []ID {
	ids := make([]ID, 0, len(s.slots))
	for id := range s.slots {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ReadView holds the registry's shared lock and exposes read access to all
// slots. See Registry.Read.
type ReadView[T any] struct {
	st *state[T]
}

// Get returns the value stored under id.
func (v *ReadView[T]) Get(id ID) (T, bool) {
	val, ok := v.view().slots[id]
	return val, ok
}

// Len returns the number of slots.
func (v *ReadView[T]) Len() int {
	return len(v.view().slots)
}

// Range calls fn for every slot in ascending identifier order until fn
// returns false.
func (v *ReadView[T]) Range(fn func(ID, T) bool) {
	st := v.view()
	for _, id := range st.sortedIDs() {
		if !fn(id, st.slots[id]) {
			return
		}
	}
}

// Close releases the shared lock. Idempotent.
func (v *ReadView[T]) Close() error {
	if v.st == nil {
		return nil
	}
	v.st.mu.RUnlock()
	v.st = nil
	return nil
}

func (v *ReadView[T]) view() *state[T] {
	if v.st == nil {
		panic("regkit: view used after Close")
	}
	return v.st
}

// WriteView holds the registry's exclusive lock and exposes read and write
// access to all slots. See Registry.Write.
type WriteView[T any] struct {
	st *state[T]
}

// Get returns the value stored under id.
func (v *WriteView[T]) Get(id ID) (T, bool) {
	val, ok := v.view().slots[id]
	return val, ok
}

// Set replaces the value stored under id. Returns false if the slot does
// not exist; Set never creates slots, only Register does.
func (v *WriteView[T]) Set(id ID, value T) bool {
	st := v.view()
	if _, ok := st.slots[id]; !ok {
		return false
	}
	st.slots[id] = value
	return true
}

// Update applies fn to the value stored under id and stores the result.
// Returns false if the slot does not exist.
func (v *WriteView[T]) Update(id ID, fn func(T) T) bool {
	st := v.view()
	val, ok := st.slots[id]
	if !ok {
		return false
	}
	st.slots[id] = fn(val)
	return true
}

// Apply rewrites every slot with fn(id, value), in ascending identifier
// order.
func (v *WriteView[T]) Apply(fn func(ID, T) T) {
	st := v.view()
	for _, id := range st.sortedIDs() {
		st.slots[id] = fn(id, st.slots[id])
	}
}

// Len returns the number of slots.
func (v *WriteView[T]) Len() int {
	return len(v.view().slots)
}

// Range calls fn for every slot in ascending identifier order until fn
// returns false.
func (v *WriteView[T]) Range(fn func(ID, T) bool) {
	st := v.view()
	for _, id := range st.sortedIDs() {
		if !fn(id, st.slots[id]) {
			return
		}
	}
}

// Close releases the exclusive lock. Idempotent.
func (v *WriteView[T]) Close() error {
	if v.st == nil {
		return nil
	}
	v.st.mu.Unlock()
	v.st = nil
	return nil
}

func (v *WriteView[T]) view() *state[T] {
	if v.st == nil {
		panic("regkit: view used after Close")
	}
	return v.st
}
