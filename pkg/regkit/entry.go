package regkit

import "sync/atomic"

// ID identifies a slot within one registry family. IDs are assigned in
// strictly increasing order and are never reused, even after removals.
type ID uint64

// slots is the capability-erased interface an Entry uses to reach back into
// the registry that issued it. Both Registry and KeyedRegistry inner states
// implement it. Acquire methods return false when the registry family has
// been destroyed, which is how a handle safely outlives its registry.
type slots interface {
	// acquireRead takes the shared lock, or returns false if the family is dead.
	acquireRead() bool
	releaseRead()

	// acquireWrite takes the exclusive lock, or returns false if the family is dead.
	acquireWrite() bool
	releaseWrite()

	// slotValue returns the stored value. Lock must be held.
	slotValue(id ID) (any, bool)

	// setSlotValue replaces the stored value. Exclusive lock must be held.
	setSlotValue(id ID, v any) bool

	// dropSlot removes the slot and runs the remove callback.
	// Exclusive lock must be held.
	dropSlot(id ID)
}

// Handle controls the lifetime of one registered slot without typed access.
// It is the erased form of an Entry: Close removes the slot, but the stored
// value can no longer be read through it. Use Typed to recover typed access.
//
// A Handle never keeps the registry alive. Once every clone of the owning
// registry has been closed, the handle becomes permanently inert and Close
// is a no-op.
type Handle struct {
	table slots
	id    ID
	done  atomic.Bool
}

// ID returns the identifier the slot was issued.
func (h *Handle) ID() ID {
	return h.id
}

// Close removes the owned slot from the registry. The remove callback, if
// installed, runs synchronously under the registry's exclusive lock before
// Close returns. Close is idempotent: only the first call removes the slot,
// and a handle whose registry no longer exists is a no-op.
func (h *Handle) Close() error {
	if h.done.Swap(true) {
		return nil
	}
	if !h.table.acquireWrite() {
		return nil
	}
	h.table.dropSlot(h.id)
	h.table.releaseWrite()
	return nil
}

// Leak cancels the automatic removal: the slot stays in the registry forever
// (or until the registry itself is closed).
//
// Leak exists for quick prototyping and debugging only. Do not use it in
// production code; the slot becomes unremovable.
func (h *Handle) Leak() {
	h.done.Store(true)
}

// Entry controls the lifetime of one registered slot and, because it still
// carries the slot's original type, grants locked read/write access to the
// stored value. Entries are issued by Registry.Register and
// KeyedRegistry.Register and must not be copied.
type Entry[T any] struct {
	Handle
}

// Read takes the registry's shared lock and returns a guard exposing the
// stored value. It blocks until no exclusive holder remains. Returns false
// when the owning registry no longer exists or this entry has already given
// up ownership (closed, erased, or leaked).
func (e *Entry[T]) Read() (*EntryReadGuard[T], bool) {
	if e.done.Load() {
		return nil, false
	}
	if !e.table.acquireRead() {
		return nil, false
	}
	return &EntryReadGuard[T]{table: e.table, id: e.id}, true
}

// Write takes the registry's exclusive lock and returns a guard exposing
// mutable access to the stored value. It blocks until no other holder
// remains. Returns false when the owning registry no longer exists or this
// entry has already given up ownership.
func (e *Entry[T]) Write() (*EntryWriteGuard[T], bool) {
	if e.done.Load() {
		return nil, false
	}
	if !e.table.acquireWrite() {
		return nil, false
	}
	return &EntryWriteGuard[T]{table: e.table, id: e.id}, true
}

// Erase transfers lifetime ownership to a type-erased Handle. Useful for
// holding entries of different types in one collection. After Erase the
// source entry is inert: its Close and accessors are no-ops, and the slot is
// removed exactly once, by the returned handle.
func (e *Entry[T]) Erase() *Handle {
	h := &Handle{table: e.table, id: e.id}
	if e.done.Swap(true) {
		// Ownership was already gone; the new handle is inert too.
		h.done.Store(true)
	}
	return h
}

// Typed recovers typed access from an erased handle, transferring lifetime
// ownership back into an Entry. Returns ErrHandleConsumed if the handle has
// already been closed, leaked, or re-typed.
//
// T must be the type the slot was registered with. A wrong T is a contract
// violation: it is not detected here, but the first guard access through the
// returned entry panics.
func Typed[T any](h *Handle) (*Entry[T], error) {
	if h.done.Swap(true) {
		return nil, ErrHandleConsumed
	}
	e := &Entry[T]{}
	e.table = h.table
	e.id = h.id
	return e, nil
}

// EntryReadGuard holds the registry's shared lock and exposes the slot's
// value. The caller must Close it to release the lock.
type EntryReadGuard[T any] struct {
	table slots
	id    ID
}

// Value returns the stored value.
func (g *EntryReadGuard[T]) Value() T {
	if g.table == nil {
		panic("regkit: guard used after Close")
	}
	return slotAs[T](g.table, g.id)
}

// Close releases the shared lock. Idempotent.
func (g *EntryReadGuard[T]) Close() error {
	if g.table == nil {
		return nil
	}
	g.table.releaseRead()
	g.table = nil
	return nil
}

// EntryWriteGuard holds the registry's exclusive lock and exposes mutable
// access to the slot's value. The caller must Close it to release the lock.
type EntryWriteGuard[T any] struct {
	table slots
	id    ID
}

// Value returns the stored value.
func (g *EntryWriteGuard[T]) Value() T {
	if g.table == nil {
		panic("regkit: guard used after Close")
	}
	return slotAs[T](g.table, g.id)
}

// Set replaces the stored value.
func (g *EntryWriteGuard[T]) Set(v T) {
	if g.table == nil {
		panic("regkit: guard used after Close")
	}
	if !g.table.setSlotValue(g.id, v) {
		panic(missingSlot(g.id))
	}
}

// Update applies fn to the stored value and stores the result.
func (g *EntryWriteGuard[T]) Update(fn func(T) T) {
	g.Set(fn(g.Value()))
}

// Close releases the exclusive lock. Idempotent.
func (g *EntryWriteGuard[T]) Close() error {
	if g.table == nil {
		return nil
	}
	g.table.releaseWrite()
	g.table = nil
	return nil
}

// slotAs fetches a slot value and recovers its original type. A missing slot
// or a type mismatch can only be reached through misuse of Typed and is a
// contract violation, so both panic rather than returning an error.
func slotAs[T any](table slots, id ID) T {
	v, ok := table.slotValue(id)
	if !ok {
		panic(missingSlot(id))
	}
	t, ok := v.(T)
	if !ok {
		panic(wrongType[T](id, v))
	}
	return t
}
