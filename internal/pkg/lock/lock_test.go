package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return client, mr, cleanup
}

func TestRedisLocker_AcquireRelease(t *testing.T) {
	rdb, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	locker := NewRedisLocker(rdb, time.Minute)
	ctx := context.Background()

	unlock, err := locker.Acquire(ctx, "2024-06")
	require.NoError(t, err)
	assert.True(t, mr.Exists(keyPrefix+"2024-06"))

	_, err = locker.Acquire(ctx, "2024-06")
	assert.ErrorIs(t, err, ErrLocked)

	// 其它月份不受影响
	unlockOther, err := locker.Acquire(ctx, "2024-07")
	require.NoError(t, err)
	unlockOther()

	unlock()
	assert.False(t, mr.Exists(keyPrefix+"2024-06"))

	unlock, err = locker.Acquire(ctx, "2024-06")
	require.NoError(t, err)
	unlock()
}

func TestRedisLocker_Expires(t *testing.T) {
	rdb, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	locker := NewRedisLocker(rdb, time.Second)
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, "2024-06")
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	unlock, err := locker.Acquire(ctx, "2024-06")
	require.NoError(t, err)

	// 过期的持有者释放时不能删掉新持有者的锁
	stale()
	assert.True(t, mr.Exists(keyPrefix+"2024-06"))

	unlock()
	assert.False(t, mr.Exists(keyPrefix+"2024-06"))
}

func TestLocalLocker(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	unlock, err := locker.Acquire(ctx, "2024-06")
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "2024-06")
	assert.ErrorIs(t, err, ErrLocked)

	unlock()
	unlock() // 重复释放无副作用

	unlock, err = locker.Acquire(ctx, "2024-06")
	require.NoError(t, err)
	unlock()
}
