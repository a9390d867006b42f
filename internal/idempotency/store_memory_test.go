package idempotency

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"consentgate/pkg/testutil"
)

func TestInMemoryStore_MarkAndSeen(t *testing.T) {
	ctx := context.Background()
	store := NewInMemory(time.Hour, 100)

	testutil.Given(t, "a key that was never marked", func(t *testing.T) {
		seen, err := store.Seen(ctx, "k1")
		require.NoError(t, err)
		assert.False(t, seen)
	})

	testutil.When(t, "the key is marked", func(t *testing.T) {
		require.NoError(t, store.Mark(ctx, "k1"))
	})

	testutil.Then(t, "subsequent lookups report it as seen", func(t *testing.T) {
		seen, err := store.Seen(ctx, "k1")
		require.NoError(t, err)
		assert.True(t, seen)
	})
}

func TestInMemoryStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	store := NewInMemory(time.Minute, 100).WithClock(func() time.Time { return now })

	require.NoError(t, store.Mark(ctx, "k1"))

	seen, err := store.Seen(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, seen)

	now = now.Add(2 * time.Minute)
	seen, err = store.Seen(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, seen, "expired key must read as unseen")
}

func TestInMemoryStore_CapEvictsSoonestToExpire(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	store := NewInMemory(time.Hour, 3).WithClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Mark(ctx, fmt.Sprintf("k%d", i)))
		now = now.Add(time.Second)
	}

	// The cap is reached; marking a fourth key evicts k0, the soonest to
	// expire.
	require.NoError(t, store.Mark(ctx, "k3"))

	seen, err := store.Seen(ctx, "k0")
	require.NoError(t, err)
	assert.False(t, seen)

	for _, key := range []string{"k1", "k2", "k3"} {
		seen, err := store.Seen(ctx, key)
		require.NoError(t, err)
		assert.True(t, seen, key)
	}
}
