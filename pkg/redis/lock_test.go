package redis

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getTestClient(t *testing.T) *Client {
	t.Helper()
	host := os.Getenv("REDIS_HOST")
	if testing.Short() || host == "" {
		t.Skip("REDIS_HOST is not set")
	}
	port := 6379
	if p, err := strconv.Atoi(os.Getenv("REDIS_PORT")); err == nil {
		port = p
	}

	logger := ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {})
	client, err := NewClient(context.Background(), Config{Host: host, Port: port}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestLocker_AcquireRelease(t *testing.T) {
	locker := NewLocker(getTestClient(t), "fern:test:")
	ctx := context.Background()
	key := uuid.NewString()

	lock, err := locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, key, time.Minute)
	assert.ErrorIs(t, err, ErrLockNotAcquired)

	require.NoError(t, lock.Release(ctx))
	assert.ErrorIs(t, lock.Release(ctx), ErrLockNotHeld)

	again, err := locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestLocker_WaitTimesOut(t *testing.T) {
	locker := NewLocker(getTestClient(t), "fern:test:")
	ctx := context.Background()
	key := uuid.NewString()

	held, err := locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = held.Release(ctx) })

	start := time.Now()
	_, err = locker.Wait(ctx, key, time.Minute, 100*time.Millisecond)
	assert.ErrorIs(t, err, ErrLockNotAcquired)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLocker_WaitAcquiresAfterRelease(t *testing.T) {
	locker := NewLocker(getTestClient(t), "fern:test:")
	ctx := context.Background()
	key := uuid.NewString()

	held, err := locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = held.Release(ctx)
	}()

	lock, err := locker.Wait(ctx, key, time.Minute, 2*time.Second)
	require.NoError(t, err)
	require.NoError(t, lock.Release(ctx))
}

func TestLocker_ExpiredLockCannotBeReleased(t *testing.T) {
	locker := NewLocker(getTestClient(t), "fern:test:")
	ctx := context.Background()

	lock, err := locker.Acquire(ctx, uuid.NewString(), 20*time.Millisecond)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.ErrorIs(t, lock.Release(ctx), ErrLockNotHeld)
}
