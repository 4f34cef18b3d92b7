package runlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuz/ingest/internal/logger"
)

func newRedisLock(t *testing.T) (*RedisLock, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewWithClient(client, time.Minute, logger.NewNop()), mr
}

func TestRedisLock(t *testing.T) {
	ctx := context.Background()

	t.Run("acquire and release", func(t *testing.T) {
		lock, mr := newRedisLock(t)

		release, err := lock.Acquire(ctx)
		require.NoError(t, err)
		assert.True(t, mr.Exists(lockKey))

		release()
		assert.False(t, mr.Exists(lockKey))
	})

	t.Run("second acquire is rejected", func(t *testing.T) {
		lock, _ := newRedisLock(t)

		release, err := lock.Acquire(ctx)
		require.NoError(t, err)
		defer release()

		_, err = lock.Acquire(ctx)
		assert.ErrorIs(t, err, ErrHeld)
	})

	t.Run("lease expires so a crashed run cannot block forever", func(t *testing.T) {
		lock, mr := newRedisLock(t)

		_, err := lock.Acquire(ctx)
		require.NoError(t, err)

		mr.FastForward(2 * time.Minute)

		release, err := lock.Acquire(ctx)
		require.NoError(t, err)
		release()
	})

	t.Run("acquirable again after release", func(t *testing.T) {
		lock, _ := newRedisLock(t)

		release, err := lock.Acquire(ctx)
		require.NoError(t, err)
		release()

		release, err = lock.Acquire(ctx)
		require.NoError(t, err)
		release()
	})

	t.Run("redis failure surfaces as error", func(t *testing.T) {
		lock, mr := newRedisLock(t)
		mr.Close()

		_, err := lock.Acquire(ctx)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrHeld)
	})
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("empty url yields nop lock", func(t *testing.T) {
		lock, err := New(ctx, "", logger.NewNop())
		require.NoError(t, err)

		release, err := lock.Acquire(ctx)
		require.NoError(t, err)
		release()
	})

	t.Run("bad url rejected", func(t *testing.T) {
		_, err := New(ctx, "not-a-redis-url", logger.NewNop())
		assert.Error(t, err)
	})

	t.Run("connects to a live server", func(t *testing.T) {
		mr := miniredis.RunT(t)
		lock, err := New(ctx, "redis://"+mr.Addr(), logger.NewNop())
		require.NoError(t, err)

		release, err := lock.Acquire(ctx)
		require.NoError(t, err)
		release()
	})
}
