package notes

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInmemStore_EmptyListIsNotNil(t *testing.T) {
	s := NewInmem()
	got := s.List()
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestInmemStore_CreateIDsAreUnique(t *testing.T) {
	s := NewInmem()
	seen := make(map[uuid.UUID]struct{})
	for i := 0; i < 1000; i++ {
		n := s.Create("x")
		_, dup := seen[n.ID]
		require.False(t, dup, "duplicate id %s", n.ID)
		seen[n.ID] = struct{}{}
	}
	assert.Equal(t, 1000, s.Len())
}

func TestInmemStore_ListReflectsCreate(t *testing.T) {
	s := NewInmem()
	n := s.Create("hello")

	got := s.List()
	require.Len(t, got, 1)
	assert.Equal(t, n, got[0])
	assert.Equal(t, "hello", got[0].Text)
}

func TestInmemStore_CreateAcceptsEmptyText(t *testing.T) {
	s := NewInmem()
	n := s.Create("")
	assert.NotEqual(t, uuid.Nil, n.ID)
	assert.Equal(t, []Note{n}, s.List())
}

func TestInmemStore_ListIsSnapshot(t *testing.T) {
	s := NewInmem()
	s.Create("a")

	got := s.List()
	got[0].Text = "mutated"
	s.Create("b")

	fresh := s.List()
	assert.Equal(t, "a", fresh[0].Text)
	assert.Len(t, got, 1)
}

func TestInmemStore_DeleteAbsent(t *testing.T) {
	s := NewInmem()
	a := s.Create("a")
	before := s.List()

	assert.False(t, s.Delete(uuid.New()))
	assert.Equal(t, before, s.List())

	require.True(t, s.Delete(a.ID))
	assert.False(t, s.Delete(a.ID), "second delete of the same id")
	assert.Equal(t, 0, s.Len())
}

func TestInmemStore_DeletePresentKeepsOrder(t *testing.T) {
	s := NewInmem()
	a := s.Create("a")
	b := s.Create("b")
	c := s.Create("c")

	require.True(t, s.Delete(b.ID))
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []Note{a, c}, s.List())

	d := s.Create("d")
	assert.Equal(t, []Note{a, c, d}, s.List())
}

func TestInmemStore_ObserverSeesChangesInOrder(t *testing.T) {
	var got []Change
	s := NewInmem(WithObserver(func(c Change) { got = append(got, c) }))

	a := s.Create("a")
	b := s.Create("b")
	s.Delete(a.ID)
	s.Delete(uuid.New())

	assert.Equal(t, []Change{
		{Kind: Created, Note: a},
		{Kind: Created, Note: b},
		{Kind: Deleted, Note: a},
	}, got)
}

func TestInmemStore_ConcurrentReadsDoNotBlock(t *testing.T) {
	s := NewInmem()
	s.Create("a")

	// 持有读锁期间，其他读者仍应立即完成
	s.mu.RLock()
	defer s.mu.RUnlock()

	const readers = 8
	var wg sync.WaitGroup
	done := make(chan struct{})
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Len(t, s.List(), 1)
		}()
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("List blocked behind another reader")
	}
}

func TestInmemStore_WriterWaitsForReaders(t *testing.T) {
	s := NewInmem()

	s.mu.RLock()
	created := make(chan Note, 1)
	go func() { created <- s.Create("w") }()

	select {
	case <-created:
		t.Fatal("Create completed while a reader held the lock")
	case <-time.After(50 * time.Millisecond):
	}

	s.mu.RUnlock()
	select {
	case n := <-created:
		assert.Equal(t, "w", n.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("Create never completed")
	}
}

func TestInmemStore_ConcurrentMutations(t *testing.T) {
	s := NewInmem()

	var wg sync.WaitGroup
	ids := make(chan uuid.UUID, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- s.Create("n").ID
		}()
	}
	wg.Wait()
	close(ids)
	require.Equal(t, 200, s.Len())

	var removed int
	for id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			s.Delete(id)
		}(id)
		removed++
	}
	wg.Wait()
	assert.Equal(t, 200, removed)
	assert.Equal(t, 0, s.Len())
}

func TestInmemStore_ViewHoldsOffWriters(t *testing.T) {
	var observed []Change
	s := NewInmem(WithObserver(func(c Change) { observed = append(observed, c) }))
	a := s.Create("a")

	created := make(chan Note, 1)
	s.View(func(list []Note) {
		assert.Equal(t, []Note{a}, list)
		go func() { created <- s.Create("b") }()

		select {
		case <-created:
			t.Error("Create committed while View was running")
		case <-time.After(50 * time.Millisecond):
		}
		assert.Len(t, observed, 1, "observer fired during View")
	})

	select {
	case n := <-created:
		assert.Equal(t, "b", n.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("Create never completed after View returned")
	}
	assert.Len(t, observed, 2)
}

func TestInmemStore_ViewSnapshotIsCopy(t *testing.T) {
	s := NewInmem()
	s.Create("a")

	var got []Note
	s.View(func(list []Note) { got = list })
	got[0].Text = "mutated"
	assert.Equal(t, "a", s.List()[0].Text)
}
