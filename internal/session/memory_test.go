package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *manualClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestMemoryStore_GetPutDelete(t *testing.T) {
	store := NewMemoryStore[string]()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sid", "state"))

	got, ok, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "state", got)

	_, ok, err = store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	removed, ok, err := store.Delete(ctx, "sid")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "state", removed)
	assert.Equal(t, 0, store.Len())

	_, ok, _ = store.Delete(ctx, "sid")
	assert.False(t, ok)
}

func TestMemoryStore_Overwrite(t *testing.T) {
	store := NewMemoryStore[int]()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "sid", 10))
	require.NoError(t, store.Put(ctx, "sid", 20))

	got, ok, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 20, got)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_SweepEvictsIdle(t *testing.T) {
	clock := &manualClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	store := NewMemoryStoreWithClock[string](clock.now)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "old", "a"))
	require.NoError(t, store.Put(ctx, "busy", "b"))
	clock.advance(20 * time.Minute)
	_, _, _ = store.Get(ctx, "busy")
	clock.advance(15 * time.Minute)

	evicted, err := store.Sweep(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, evicted)
	assert.Equal(t, 1, store.Len())

	_, ok, _ := store.Get(ctx, "busy")
	assert.True(t, ok)
}

func TestMemoryStore_NewID(t *testing.T) {
	store := NewMemoryStore[string]()

	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := store.NewID()
		assert.False(t, ids[id], "duplicate id %s", id)
		ids[id] = true
		assert.Len(t, id, 32)
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore[int]()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			assert.NoError(t, store.Put(ctx, "key", v))
			_, _, _ = store.Get(ctx, "key")
			_, _ = store.Sweep(ctx, time.Hour)
		}(i)
	}
	wg.Wait()

	_, ok, err := store.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, ok)
}
