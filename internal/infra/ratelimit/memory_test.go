package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_SlidingWindow(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	window := time.Minute

	for i := 1; i <= 3; i++ {
		hit, err := store.Hit(ctx, "k", window, start.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		assert.Equal(t, i, hit.Count)
		assert.Equal(t, start.Add(time.Second), hit.OldestAt)
	}

	// The first hit (at +1s) leaves the window exactly at +61s.
	hit, err := store.Hit(ctx, "k", window, start.Add(61*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 3, hit.Count)
	assert.Equal(t, start.Add(2*time.Second), hit.OldestAt)
}

func TestMemoryStore_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	_, err := store.Hit(ctx, "a", time.Minute, now)
	require.NoError(t, err)
	hit, err := store.Hit(ctx, "b", time.Minute, now)
	require.NoError(t, err)
	assert.Equal(t, 1, hit.Count)
}

func TestMemoryStore_Undo(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	first, err := store.Hit(ctx, "k", time.Minute, now)
	require.NoError(t, err)
	_, err = store.Hit(ctx, "k", time.Minute, now)
	require.NoError(t, err)

	require.NoError(t, store.Undo(ctx, "k", first.Ticket))
	require.NoError(t, store.Undo(ctx, "k", "unknown"))
	require.NoError(t, store.Undo(ctx, "missing", "unknown"))

	hit, err := store.Hit(ctx, "k", time.Minute, now)
	require.NoError(t, err)
	assert.Equal(t, 2, hit.Count)
}

func TestMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	_, err := store.Hit(ctx, "old", time.Minute, now.Add(-2*time.Minute))
	require.NoError(t, err)
	_, err = store.Hit(ctx, "fresh", time.Minute, now)
	require.NoError(t, err)

	assert.Equal(t, 1, store.Sweep(now))
	assert.Len(t, store.logs, 1)
	assert.Contains(t, store.logs, "fresh")
}
