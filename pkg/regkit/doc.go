// Package regkit provides thread-safe registries whose slots' lifetimes
// are owned by caller-held handles: every registered value is paired with
// an Entry, and closing the last owner of that Entry removes the value and
// fires the optional remove callback.
//
// # Basic Usage
//
// Register values and control their lifetimes through entries:
//
//	r := regkit.New[int]()
//	e1 := r.Register(0)
//	e2 := r.Register(100)
//	// r now holds slots 0 and 1
//
//	g, ok := e1.Read()
//	if ok {
//	    fmt.Println(g.Value()) // Output: 0
//	    g.Close()
//	}
//
//	e1.Close() // removes slot 0
//	e2.Close() // removes slot 1; r is empty again
//
// Identifiers are assigned in strictly increasing order and never reused
// within one registry family, even after removals.
//
// # Views
//
// Read and Write take the registry-wide lock and return a view for ordered
// iteration and point lookup; the caller releases the lock by closing the
// view:
//
//	v := r.Write()
//	v.Apply(func(id regkit.ID, n int) int { return n + 1 })
//	v.Close()
//
// # Registry Lifetime
//
// A Registry value is a cheap reference to shared inner state. Clone hands
// the same registry to another owner; the state is destroyed when the last
// clone is closed. Entries never extend the state's lifetime: after the
// family is destroyed, entry accessors return false and Close is a no-op,
// so a handle can always safely outlive its registry.
//
// # Keyed Registries
//
// KeyedRegistry indexes slots by caller-supplied unique keys instead of
// purely sequential identifiers:
//
//	kr := regkit.NewKeyed[string, Conn]()
//	e, err := kr.Register("primary", conn)
//	if errors.Is(err, regkit.ErrKeyExists) {
//	    // key taken, registry unchanged
//	}
//
// # Events
//
// Event turns "callback objects controlled by handles" into a
// publish/subscribe bus — a subscription lives exactly as long as its
// handle:
//
//	ev := regkit.NewEvent[string]()
//	sub := ev.SubscribeFunc(func(msg string) { fmt.Println(msg) })
//	ev.Dispatch("hello")
//	sub.Close() // unsubscribes
//
// TracedRegistry composes the two, publishing a Registered or Unregistered
// notification for every slot lifecycle transition.
//
// # Thread Safety
//
// All types are safe for concurrent use. Blocking is plain sync.RWMutex
// blocking: views and entry guards wait for the lock with no timeout or
// cancellation, so keep critical sections short and never touch the same
// registry's lock from inside a remove callback or observer.
package regkit
