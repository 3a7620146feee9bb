package regkit

import (
	"errors"
	"fmt"
)

// Sentinel errors for recoverable conditions. Stale references are not
// errors: handle accessors report them as a false second return value.
var (
	// ErrKeyExists indicates KeyedRegistry.Register was called with a key
	// that is already present. The registry is unchanged.
	ErrKeyExists = errors.New("key already exists in registry")

	// ErrRegistryClosed indicates Close was called twice on the same
	// registry clone.
	ErrRegistryClosed = errors.New("registry already closed")

	// ErrHandleConsumed indicates Typed was called on a handle that has
	// already been closed, leaked, or re-typed.
	ErrHandleConsumed = errors.New("handle ownership already transferred")
)

// panicClosedRegistry is the message used when a closed registry clone, or a
// clone of a fully destroyed family, is asked to do work. Using a closed
// registry is a programming error, like sending on a closed channel.
const panicClosedRegistry = "regkit: use of closed registry"

// missingSlot reports a slot that a live handle points at but the registry
// does not contain. This cannot happen unless an internal invariant broke.
func missingSlot(id ID) string {
	return fmt.Sprintf("regkit: slot %d missing from registry", id)
}

// wrongType reports a failed recovery of a slot's original type, reachable
// only by re-typing an erased handle with the wrong type parameter.
func wrongType[T any](id ID, got any) string {
	var want T
	return fmt.Sprintf("regkit: slot %d holds %T, not %T", id, got, want)
}
