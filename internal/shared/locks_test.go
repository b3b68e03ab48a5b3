package shared

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestOrderLockerSerialisesHolders(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := NewOrderLocker(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, locker.Acquire(ctx, 42))
	require.ErrorIs(t, locker.Acquire(ctx, 42), ErrOrderLocked)

	// A different order is unaffected.
	require.NoError(t, locker.Acquire(ctx, 43))

	locker.Release(ctx, 42)
	require.NoError(t, locker.Acquire(ctx, 42))
}

func TestOrderLockerExpiry(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := NewOrderLocker(client, time.Second)
	ctx := context.Background()

	require.NoError(t, locker.Acquire(ctx, 7))
	srv.FastForward(2 * time.Second)
	require.NoError(t, locker.Acquire(ctx, 7))
}
