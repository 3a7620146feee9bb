package regkit

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	r := New[int]()
	defer r.Close()

	assert.Equal(t, 0, r.Len())
	assert.True(t, r.IsEmpty())
	assert.NotEmpty(t, r.InstanceID())
}

func TestRegisterAssignsIncreasingIDs(t *testing.T) {
	r := New[int]()
	defer r.Close()

	e0 := r.Register(10)
	e1 := r.Register(20)
	e2 := r.Register(30)

	assert.Equal(t, ID(0), e0.ID())
	assert.Equal(t, ID(1), e1.ID())
	assert.Equal(t, ID(2), e2.ID())

	// IDs are never reused, even after removals
	require.NoError(t, e1.Close())
	e3 := r.Register(40)
	assert.Equal(t, ID(3), e3.ID())

	e0.Close()
	e2.Close()
	e3.Close()
	e4 := r.Register(50)
	assert.Equal(t, ID(4), e4.ID())
	e4.Close()
}

func TestLen(t *testing.T) {
	r := New[int]()
	defer r.Close()

	assert.Equal(t, 0, r.Len())
	e1 := r.Register(0)
	e2 := r.Register(0)
	e3 := r.Register(0)
	e4 := r.Register(0)
	assert.Equal(t, 4, r.Len())

	e1.Close()
	e2.Close()
	assert.Equal(t, 2, r.Len())
	e3.Close()
	e4.Close()
	assert.Equal(t, 0, r.Len())
}

func TestIsEmpty(t *testing.T) {
	r := New[int]()
	defer r.Close()

	assert.True(t, r.IsEmpty())
	e := r.Register(0)
	assert.False(t, r.IsEmpty())
	e.Close()
	assert.True(t, r.IsEmpty())
}

func TestReadViewRange(t *testing.T) {
	r := New[int]()
	defer r.Close()

	collect := func() map[ID]int {
		got := make(map[ID]int)
		v := r.Read()
		defer v.Close()
		v.Range(func(id ID, n int) bool {
			got[id] = n
			return true
		})
		return got
	}

	assert.Empty(t, collect())

	e1 := r.Register(11)
	e2 := r.Register(22)
	e3 := r.Register(33)
	assert.Equal(t, map[ID]int{0: 11, 1: 22, 2: 33}, collect())

	e2.Close()
	assert.Equal(t, map[ID]int{0: 11, 2: 33}, collect())

	e1.Close()
	assert.Equal(t, map[ID]int{2: 33}, collect())

	e3.Close()
	assert.Empty(t, collect())
}

func TestReadViewRangeOrder(t *testing.T) {
	r := New[string]()
	defer r.Close()

	entries := []*Entry[string]{
		r.Register("a"),
		r.Register("b"),
		r.Register("c"),
	}
	defer func() {
		for _, e := range entries {
			e.Close()
		}
	}()

	var ids []ID
	v := r.Read()
	v.Range(func(id ID, _ string) bool {
		ids = append(ids, id)
		return true
	})
	v.Close()

	assert.Equal(t, []ID{0, 1, 2}, ids)
}

func TestReadViewGet(t *testing.T) {
	r := New[int]()
	defer r.Close()

	e := r.Register(42)
	defer e.Close()

	v := r.Read()
	defer v.Close()

	n, ok := v.Get(e.ID())
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok = v.Get(99)
	assert.False(t, ok)
}

func TestWriteViewApply(t *testing.T) {
	r := New[int]()
	defer r.Close()

	entries := []*Entry[int]{
		r.Register(11),
		r.Register(22),
		r.Register(33),
		r.Register(44),
	}

	v := r.Write()
	v.Apply(func(_ ID, n int) int { return n * 2 })
	v.Close()

	want := []int{22, 44, 66, 88}
	for i, e := range entries {
		g, ok := e.Read()
		require.True(t, ok)
		assert.Equal(t, want[i], g.Value())
		g.Close()
		e.Close()
	}
}

func TestWriteViewSetAndUpdate(t *testing.T) {
	r := New[int]()
	defer r.Close()

	e := r.Register(1)
	defer e.Close()

	v := r.Write()
	assert.True(t, v.Set(e.ID(), 5))
	assert.False(t, v.Set(99, 5))
	assert.True(t, v.Update(e.ID(), func(n int) int { return n + 1 }))
	assert.False(t, v.Update(99, func(n int) int { return n }))
	n, ok := v.Get(e.ID())
	v.Close()

	assert.True(t, ok)
	assert.Equal(t, 6, n)
}

// The concrete walkthrough: two registrations, ordered reads, a bulk
// mutation, then teardown in registration order.
func TestRegistryWalkthrough(t *testing.T) {
	r := New[int]()
	defer r.Close()

	e1 := r.Register(0)
	e2 := r.Register(100)

	var got [][2]uint64
	v := r.Read()
	v.Range(func(id ID, n int) bool {
		got = append(got, [2]uint64{uint64(id), uint64(n)})
		return true
	})
	v.Close()
	assert.Equal(t, [][2]uint64{{0, 0}, {1, 100}}, got)

	w := r.Write()
	w.Apply(func(_ ID, n int) int { return n + 1 })
	w.Close()

	got = nil
	v = r.Read()
	v.Range(func(id ID, n int) bool {
		got = append(got, [2]uint64{uint64(id), uint64(n)})
		return true
	})
	v.Close()
	assert.Equal(t, [][2]uint64{{0, 1}, {1, 101}}, got)

	e1.Close()
	e2.Close()
	assert.Equal(t, 0, r.Len())
}

func TestRemoveCallback(t *testing.T) {
	r := New[string]()
	defer r.Close()

	removed := make(map[ID]string)
	r.SetRemoveCallback(func(id ID, v string) {
		removed[id] = v
	})

	e1 := r.Register("a")
	e2 := r.Register("b")
	e3 := r.Register("c")

	// Any close order: callback fires once per slot with matching pairs
	e2.Close()
	e3.Close()
	e1.Close()

	assert.Equal(t, map[ID]string{0: "a", 1: "b", 2: "c"}, removed)
	assert.True(t, r.IsEmpty())
}

func TestSetRemoveCallbackReplacesPrevious(t *testing.T) {
	r := New[int]()
	defer r.Close()

	var first, second int
	r.SetRemoveCallback(func(ID, int) { first++ })
	r.SetRemoveCallback(func(ID, int) { second++ })

	e := r.Register(1)
	e.Close()

	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestCloneSharesState(t *testing.T) {
	r1 := New[int]()
	r2 := r1.Clone()

	assert.Equal(t, r1.InstanceID(), r2.InstanceID())

	e := r1.Register(7)
	assert.Equal(t, 1, r2.Len())

	v := r2.Read()
	n, ok := v.Get(e.ID())
	v.Close()
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	// The family survives closing one clone
	require.NoError(t, r1.Close())
	assert.Equal(t, 1, r2.Len())

	g, ok := e.Read()
	require.True(t, ok)
	assert.Equal(t, 7, g.Value())
	g.Close()

	e.Close()
	require.NoError(t, r2.Close())
}

func TestCloseTwiceReturnsError(t *testing.T) {
	r := New[int]()
	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Close(), ErrRegistryClosed)
}

func TestCloseDiscardsWithoutCallback(t *testing.T) {
	r := New[int]()

	calls := 0
	r.SetRemoveCallback(func(ID, int) { calls++ })

	e := r.Register(1)
	require.NoError(t, r.Close())

	// Destroying the family discards slots without firing the callback,
	// and the outstanding entry is inert.
	assert.Equal(t, 0, calls)
	assert.NoError(t, e.Close())
	assert.Equal(t, 0, calls)
}

func TestUseAfterClosePanics(t *testing.T) {
	r := New[int]()
	require.NoError(t, r.Close())

	assert.PanicsWithValue(t, panicClosedRegistry, func() { r.Register(1) })
	assert.PanicsWithValue(t, panicClosedRegistry, func() { r.Read() })
	assert.PanicsWithValue(t, panicClosedRegistry, func() { r.Write() })
	assert.PanicsWithValue(t, panicClosedRegistry, func() { r.Clone() })
}

func TestConcurrentRegisterUniqueIDs(t *testing.T) {
	r := New[int]()
	defer r.Close()

	const (
		workers = 8
		each    = 200
	)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[ID]bool)
	)
	entries := make([]*Entry[int], 0, workers*each)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				e := r.Register(i)
				mu.Lock()
				assert.False(t, ids[e.ID()], "duplicate id %d", e.ID())
				ids[e.ID()] = true
				entries = append(entries, e)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*each, r.Len())
	assert.Len(t, ids, workers*each)

	for _, e := range entries {
		e.Close()
	}
	assert.True(t, r.IsEmpty())
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	r := New[int]()
	defer r.Close()

	e := r.Register(0)
	defer e.Close()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				g, ok := e.Write()
				if ok {
					g.Update(func(n int) int { return n + 1 })
					g.Close()
				}
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				v := r.Read()
				v.Len()
				v.Close()
			}
		}()
	}
	wg.Wait()

	g, ok := e.Read()
	require.True(t, ok)
	assert.Equal(t, 400, g.Value())
	g.Close()
}
