package regkit

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/randalmurphal/regkit/pkg/regkit/observability"
)

// KeyedRegistry is a Registry variant indexed by caller-supplied unique
// keys instead of purely sequential identifiers. Registration fails with
// ErrKeyExists for a duplicate key; otherwise lifecycle semantics are
// identical to Registry: the returned Entry owns the slot, and closing it
// removes both the key and the value under one exclusive acquisition.
//
// The key type must be ordered (cmp.Ordered); views iterate in ascending
// key order.
type KeyedRegistry[K cmp.Ordered, T any] struct {
	st     *keyedState[K, T]
	closed atomic.Bool
}

// keyedState is the shared inner state of one keyed registry family. The
// forward map (byKey) and reverse map (keyByID) are always mutually
// consistent; a breach is an internal invariant violation and panics.
type keyedState[K cmp.Ordered, T any] struct {
	instance string
	logger   *slog.Logger
	metrics  observability.MetricsRecorder

	mu    sync.RWMutex
	alive atomic.Bool

	// refs counts live KeyedRegistry clones. Guarded by mu.
	refs int

	byKey    map[K]T
	keyByID  map[ID]K
	nextID   ID
	onRemove func(ID, K, T)
}

// NewKeyed creates a keyed registry with empty mappings and the identifier
// counter at zero.
func NewKeyed[K cmp.Ordered, T any](opts ...Option) *KeyedRegistry[K, T] {
	o := newOptions(opts)
	st := &keyedState[K, T]{
		instance: "reg-" + uuid.New().String()[:8],
		logger:   o.logger,
		metrics:  o.metrics,
		refs:     1,
		byKey:    make(map[K]T),
		keyByID:  make(map[ID]K),
	}
	st.alive.Store(true)
	return &KeyedRegistry[K, T]{st: st}
}

// InstanceID returns the unique identifier of this registry family.
func (r *KeyedRegistry[K, T]) InstanceID() string {
	return r.st.instance
}

// Clone returns a new reference to the same inner state. Panics if this
// clone is closed or the family is already destroyed.
func (r *KeyedRegistry[K, T]) Clone() *KeyedRegistry[K, T] {
	st := r.st
	st.mu.Lock()
	defer st.mu.Unlock()
	if r.closed.Load() || !st.alive.Load() {
		panic(panicClosedRegistry)
	}
	st.refs++
	return &KeyedRegistry[K, T]{st: st}
}

// Close releases this clone's reference to the inner state. When the last
// clone is closed remaining slots are discarded without firing the remove
// callback and outstanding entries become inert. Closing the same clone
// twice returns ErrRegistryClosed.
func (r *KeyedRegistry[K, T]) Close() error {
	if r.closed.Swap(true) {
		return ErrRegistryClosed
	}
	st := r.st
	st.mu.Lock()
	st.refs--
	if st.refs == 0 {
		st.alive.Store(false)
		remaining := len(st.byKey)
		st.byKey = nil
		st.keyByID = nil
		st.onRemove = nil
		st.mu.Unlock()
		observability.LogRegistryClosed(st.logger, st.instance, remaining)
		return nil
	}
	st.mu.Unlock()
	return nil
}

// Register stores value under key and returns the Entry that owns the new
// slot's lifetime. Returns ErrKeyExists, with the registry unchanged, when
// the key is already present. Panics if the registry is closed.
func (r *KeyedRegistry[K, T]) Register(key K, value T) (*Entry[T], error) {
	st := r.st
	st.mu.Lock()
	if r.closed.Load() || !st.alive.Load() {
		st.mu.Unlock()
		panic(panicClosedRegistry)
	}
	if _, exists := st.byKey[key]; exists {
		st.mu.Unlock()
		return nil, fmt.Errorf("register %v: %w", key, ErrKeyExists)
	}
	id := st.nextID
	st.byKey[key] = value
	st.keyByID[id] = key
	st.nextID++
	st.mu.Unlock()

	observability.LogRegisterKeyed(st.logger, st.instance, uint64(id), key)
	st.metrics.RecordRegister(context.Background(), st.instance)

	e := &Entry[T]{}
	e.table = st
	e.id = id
	return e, nil
}

// Read takes the shared lock and returns a view for ordered iteration and
// point lookup by key. The caller must Close the view. Panics if the
// registry is closed.
func (r *KeyedRegistry[K, T]) Read() *KeyedReadView[K, T] {
	st := r.st
	st.mu.RLock()
	if r.closed.Load() || !st.alive.Load() {
		st.mu.RUnlock()
		panic(panicClosedRegistry)
	}
	return &KeyedReadView[K, T]{st: st}
}

// Write takes the exclusive lock and returns a view that additionally
// supports mutation. The caller must Close the view. Panics if the
// registry is closed.
func (r *KeyedRegistry[K, T]) Write() *KeyedWriteView[K, T] {
	st := r.st
	st.mu.Lock()
	if r.closed.Load() || !st.alive.Load() {
		st.mu.Unlock()
		panic(panicClosedRegistry)
	}
	return &KeyedWriteView[K, T]{st: st}
}

// Len returns the number of slots in the registry family.
func (r *KeyedRegistry[K, T]) Len() int {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()
	return len(r.st.byKey)
}

// IsEmpty reports whether the registry family holds no slots.
func (r *KeyedRegistry[K, T]) IsEmpty() bool {
	return r.Len() == 0
}

// SetRemoveCallback installs fn as the remove callback, replacing any
// previous one. The callback runs synchronously under the exclusive lock
// immediately after a slot is removed, receiving the freed identifier, key,
// and value. It must not reach back into this registry's lock.
func (r *KeyedRegistry[K, T]) SetRemoveCallback(fn func(ID, K, T)) {
	st := r.st
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.alive.Load() {
		return
	}
	st.onRemove = fn
}

// slots interface implementation. Entries issued by a KeyedRegistry resolve
// their identifier through the reverse map first.

func (s *keyedState[K, T]) acquireRead() bool {
	s.mu.RLock()
	if !s.alive.Load() {
		s.mu.RUnlock()
		return false
	}
	return true
}

func (s *keyedState[K, T]) releaseRead() {
	s.mu.RUnlock()
}

func (s *keyedState[K, T]) acquireWrite() bool {
	s.mu.Lock()
	if !s.alive.Load() {
		s.mu.Unlock()
		return false
	}
	return true
}

func (s *keyedState[K, T]) releaseWrite() {
	s.mu.Unlock()
}

func (s *keyedState[K, T]) slotValue(id ID) (any, bool) {
	key, ok := s.keyByID[id]
	if !ok {
		return nil, false
	}
	v, ok := s.byKey[key]
	if !ok {
		panic(fmt.Sprintf("regkit: key %v for slot %d missing from forward map", key, id))
	}
	return v, true
}

func (s *keyedState[K, T]) setSlotValue(id ID, v any) bool {
	key, ok := s.keyByID[id]
	if !ok {
		return false
	}
	if _, ok := s.byKey[key]; !ok {
		panic(fmt.Sprintf("regkit: key %v for slot %d missing from forward map", key, id))
	}
	t, ok := v.(T)
	if !ok {
		panic(wrongType[T](id, v))
	}
	s.byKey[key] = t
	return true
}

// dropSlot removes the reverse entry first, then the forward entry, under
// the single exclusive acquisition the caller holds, so no intermediate
// state where the mappings disagree is ever observable.
func (s *keyedState[K, T]) dropSlot(id ID) {
	key, ok := s.keyByID[id]
	if !ok {
		panic(fmt.Sprintf("regkit: no key recorded for slot %d during removal", id))
	}
	v, ok := s.byKey[key]
	if !ok {
		panic(fmt.Sprintf("regkit: key %v for slot %d missing from forward map", key, id))
	}
	delete(s.keyByID, id)
	delete(s.byKey, key)
	if s.onRemove != nil {
		s.onRemove(id, key, v)
	}
	observability.LogRemove(s.logger, s.instance, uint64(id))
	s.metrics.RecordRemove(context.Background(), s.instance)
}

// sortedKeys returns the keys in ascending order. Lock must be held.
func (s *keyedState[K, T]) sortedKeys() []K {
	keys := make([]K, 0, len(s.byKey))
	for k := range s.byKey {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// KeyedReadView holds the registry's shared lock and exposes read access by
// key. See KeyedRegistry.Read.
type KeyedReadView[K cmp.Ordered, T any] struct {
	st *keyedState[K, T]
}

// Get returns the value stored under key.
func (v *KeyedReadView[K, T]) Get(key K) (T, bool) {
	val, ok := v.view().byKey[key]
	return val, ok
}

// Len returns the number of slots.
func (v *KeyedReadView[K, T]) Len() int {
	return len(v.view().byKey)
}

// Range calls fn for every slot in ascending key order until fn returns
// false.
func (v *KeyedReadView[K, T]) Range(fn func(K, T) bool) {
	st := v.view()
	for _, k := range st.sortedKeys() {
		if !fn(k, st.byKey[k]) {
			return
		}
	}
}

// Close releases the shared lock. Idempotent.
func (v *KeyedReadView[K, T]) Close() error {
	if v.st == nil {
		return nil
	}
	v.st.mu.RUnlock()
	v.st = nil
	return nil
}

func (v *KeyedReadView[K, T]) view() *keyedState[K, T] {
	if v.st == nil {
		panic("regkit: view used after Close")
	}
	return v.st
}

// KeyedWriteView holds the registry's exclusive lock and exposes read and
// write access by key. See KeyedRegistry.Write.
type KeyedWriteView[K cmp.Ordered, T any] struct {
	st *keyedState[K, T]
}

// Get returns the value stored under key.
func (v *KeyedWriteView[K, T]) Get(key K) (T, bool) {
	val, ok := v.view().byKey[key]
	return val, ok
}

// Set replaces the value stored under key. Returns false if the key does
// not exist; Set never creates slots, only Register does.
func (v *KeyedWriteView[K, T]) Set(key K, value T) bool {
	st := v.view()
	if _, ok := st.byKey[key]; !ok {
		return false
	}
	st.byKey[key] = value
	return true
}

// Update applies fn to the value stored under key and stores the result.
// Returns false if the key does not exist.
func (v *KeyedWriteView[K, T]) Update(key K, fn func(T) T) bool {
	st := v.view()
	val, ok := st.byKey[key]
	if !ok {
		return false
	}
	st.byKey[key] = fn(val)
	return true
}

// Apply rewrites every slot with fn(key, value), in ascending key order.
func (v *KeyedWriteView[K, T]) Apply(fn func(K, T) T) {
	st := v.view()
	for _, k := range st.sortedKeys() {
		st.byKey[k] = fn(k, st.byKey[k])
	}
}

// Len returns the number of slots.
func (v *KeyedWriteView[K, T]) Len() int {
	return len(v.view().byKey)
}

// Range calls fn for every slot in ascending key order until fn returns
// false.
func (v *KeyedWriteView[K, T]) Range(fn func(K, T) bool) {
	st := v.view()
	for _, k := range st.sortedKeys() {
		if !fn(k, st.byKey[k]) {
			return
		}
	}
}

// Close releases the exclusive lock. Idempotent.
func (v *KeyedWriteView[K, T]) Close() error {
	if v.st == nil {
		return nil
	}
	v.st.mu.Unlock()
	v.st = nil
	return nil
}

func (v *KeyedWriteView[K, T]) view() *keyedState[K, T] {
	if v.st == nil {
		panic("regkit: view used after Close")
	}
	return v.st
}
