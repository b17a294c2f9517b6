package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_GetSet(t *testing.T) {
	s := NewMemoryStore(10)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", []byte("v1"), 0))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v1"), v)

	require.NoError(t, s.Set(ctx, "k", []byte("v2"), 0))
	v, _, _ = s.Get(ctx, "k")
	assert.Equal(t, []byte("v2"), v)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStore_Expiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewMemoryStore(10, WithClock(clock))
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "radius", []byte("page"), 10*time.Minute))
	require.NoError(t, s.Set(ctx, "forever", []byte("x"), 0))

	clock.Advance(9 * time.Minute)
	_, ok, _ := s.Get(ctx, "radius")
	assert.True(t, ok)

	clock.Advance(time.Minute)
	_, ok, _ = s.Get(ctx, "radius")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())

	clock.Advance(24 * time.Hour)
	_, ok, _ = s.Get(ctx, "forever")
	assert.True(t, ok)
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	s := NewMemoryStore(2)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, s.Set(ctx, "b", []byte("2"), 0))
	_, _, _ = s.Get(ctx, "a") // a is now most recent
	require.NoError(t, s.Set(ctx, "c", []byte("3"), 0))

	_, ok, _ := s.Get(ctx, "b")
	assert.False(t, ok, "b should be evicted")
	_, ok, _ = s.Get(ctx, "a")
	assert.True(t, ok)
	_, ok, _ = s.Get(ctx, "c")
	assert.True(t, ok)
	assert.Equal(t, 2, s.Len())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore(50)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 200 {
				key := fmt.Sprintf("k%d", (i*200+j)%80)
				_ = s.Set(ctx, key, []byte(key), time.Minute)
				_, _, _ = s.Get(ctx, key)
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, s.Len(), 50)
}
