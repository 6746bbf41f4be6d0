package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreIncrement(t *testing.T) {
	store := NewMemoryStore()

	count, remaining, err := store.IncrementWithTTL(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	require.Greater(t, remaining, time.Duration(0))

	count, _, err = store.IncrementWithTTL(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	// Separate keys count independently.
	count, _, err = store.IncrementWithTTL(context.Background(), "other", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestMemoryStoreWindowExpiry(t *testing.T) {
	now := time.Now()
	store := &memoryStore{
		data:  make(map[string]*memoryEntry),
		clock: func() time.Time { return now },
	}

	count, _, err := store.IncrementWithTTL(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	now = now.Add(2 * time.Minute)

	count, _, err = store.IncrementWithTTL(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := NewMemoryStore()

	_, _, err := store.IncrementWithTTL(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Delete(context.Background(), "k"))

	count, _, err := store.IncrementWithTTL(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}
