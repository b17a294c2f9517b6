package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgerStore_InMemory(t *testing.T) {
	s, err := OpenBadger("", discardLogger())
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Ping(ctx))

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "geocode:abc", []byte(`{"q":"x"}`), time.Hour))
	v, ok, err := s.Get(ctx, "geocode:abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"q":"x"}`, string(v))

	require.NoError(t, s.Set(ctx, "geocode:abc", []byte(`{"q":"y"}`), 0))
	v, _, err = s.Get(ctx, "geocode:abc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"q":"y"}`, string(v))
}

func TestBadgerStore_OnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := OpenBadger(dir, discardLogger())
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "route:1", []byte("persisted"), time.Hour))
	require.NoError(t, s.Close())

	reopened, err := OpenBadger(dir, discardLogger())
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Get(ctx, "route:1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "persisted", string(v))
}

func TestBadgerStore_WithFetch(t *testing.T) {
	s, err := OpenBadger("", discardLogger())
	require.NoError(t, err)
	defer s.Close()

	c := New(s, discardLogger(), nil)
	calls := 0
	compute := func(context.Context) ([]string, bool, error) {
		calls++
		return []string{"Quan 1", "Tan Binh"}, true, nil
	}
	for range 2 {
		got, err := Fetch(context.Background(), c, "districts", Params{"brand": "ALL"}, time.Hour, compute)
		require.NoError(t, err)
		assert.Equal(t, []string{"Quan 1", "Tan Binh"}, got)
	}
	assert.Equal(t, 1, calls)
}
