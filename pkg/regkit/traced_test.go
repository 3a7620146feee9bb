package regkit

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Value int
}

func TestTracedRegisterPublishesNotification(t *testing.T) {
	tr := NewTraced[payload]()
	defer tr.Close()

	var seen []Notification[payload]
	sub := tr.SubscribeFunc(func(n Notification[payload]) {
		seen = append(seen, n)
	})
	defer sub.Close()

	e := tr.Register(payload{Value: 42})

	require.Len(t, seen, 1)
	assert.Equal(t, Registered, seen[0].Kind)
	assert.Equal(t, e.ID(), seen[0].ID)
	assert.Equal(t, payload{Value: 42}, seen[0].Value)

	require.NoError(t, e.Close())

	require.Len(t, seen, 2)
	assert.Equal(t, Unregistered, seen[1].Kind)
	assert.Equal(t, seen[0].ID, seen[1].ID)
	assert.Equal(t, payload{Value: 42}, seen[1].Value)
}

func TestTracedMultipleObservers(t *testing.T) {
	tr := NewTraced[payload]()
	defer tr.Close()

	var counter1, counter2 atomic.Int64
	sub1 := tr.SubscribeFunc(func(Notification[payload]) { counter1.Add(1) })
	sub2 := tr.SubscribeFunc(func(Notification[payload]) { counter2.Add(1) })
	defer sub1.Close()
	defer sub2.Close()

	e := tr.Register(payload{Value: 42})
	assert.Equal(t, int64(1), counter1.Load())
	assert.Equal(t, int64(1), counter2.Load())

	e.Close()
	assert.Equal(t, int64(2), counter1.Load())
	assert.Equal(t, int64(2), counter2.Load())
}

func TestTracedRegistrationOrderAcrossSlots(t *testing.T) {
	tr := NewTraced[int]()
	defer tr.Close()

	var order []Notification[int]
	sub := tr.SubscribeFunc(func(n Notification[int]) { order = append(order, n) })
	defer sub.Close()

	e1 := tr.Register(10)
	e2 := tr.Register(20)
	e3 := tr.Register(30)

	// Registrations follow identifier-issuance order
	require.Len(t, order, 3)
	assert.Equal(t, []Notification[int]{
		{Registered, e1.ID(), 10},
		{Registered, e2.ID(), 20},
		{Registered, e3.ID(), 30},
	}, order)

	// Unregistrations follow close order, which the caller chooses
	e2.Close()
	e1.Close()
	e3.Close()

	require.Len(t, order, 6)
	assert.Equal(t, []Notification[int]{
		{Unregistered, 1, 20},
		{Unregistered, 0, 10},
		{Unregistered, 2, 30},
	}, order[3:])
}

func TestTracedViewsDelegate(t *testing.T) {
	tr := NewTraced[int]()
	defer tr.Close()

	events := 0
	sub := tr.SubscribeFunc(func(Notification[int]) { events++ })
	defer sub.Close()

	e := tr.Register(1)
	defer e.Close()
	assert.Equal(t, 1, tr.Len())
	assert.False(t, tr.IsEmpty())

	// In-place edits through views are not lifecycle transitions
	w := tr.Write()
	w.Apply(func(_ ID, n int) int { return n + 99 })
	w.Close()
	assert.Equal(t, 1, events)

	v := tr.Read()
	n, ok := v.Get(e.ID())
	v.Close()
	assert.True(t, ok)
	assert.Equal(t, 100, n)
}

func TestTracedUnsubscribeStopsNotifications(t *testing.T) {
	tr := NewTraced[int]()
	defer tr.Close()

	count := 0
	sub := tr.SubscribeFunc(func(Notification[int]) { count++ })

	e1 := tr.Register(1)
	assert.Equal(t, 1, count)

	require.NoError(t, sub.Close())

	e2 := tr.Register(2)
	e1.Close()
	e2.Close()
	assert.Equal(t, 1, count)
}

func TestTracedCloneSharesFamily(t *testing.T) {
	tr1 := NewTraced[int]()
	tr2 := tr1.Clone()

	var seen []LifecycleKind
	sub := tr2.SubscribeFunc(func(n Notification[int]) { seen = append(seen, n.Kind) })
	defer sub.Close()

	e := tr1.Register(5)
	assert.Equal(t, 1, tr2.Len())

	// Closing one traced clone keeps the family and its wiring alive
	require.NoError(t, tr1.Close())

	e.Close()
	assert.Equal(t, []LifecycleKind{Registered, Unregistered}, seen)
	assert.True(t, tr2.IsEmpty())

	require.NoError(t, tr2.Close())
}

func TestTracedEntryAfterFullClose(t *testing.T) {
	tr := NewTraced[int]()

	notified := 0
	sub := tr.SubscribeFunc(func(Notification[int]) { notified++ })

	e := tr.Register(1)
	assert.Equal(t, 1, notified)

	require.NoError(t, tr.Close())

	// No Unregistered for slots discarded by destroying the family
	assert.NoError(t, e.Close())
	assert.Equal(t, 1, notified)
	assert.NoError(t, sub.Close())
}

func TestLifecycleKindString(t *testing.T) {
	assert.Equal(t, "registered", Registered.String())
	assert.Equal(t, "unregistered", Unregistered.String())
	assert.Equal(t, "unknown", LifecycleKind(9).String())
}
