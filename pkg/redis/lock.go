package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Ramsey-B/fern/pkg/metrics"
)

var (
	ErrLockNotAcquired = errors.New("lock not acquired")
	ErrLockNotHeld     = errors.New("lock not held")
)

// Only the holder's token may release a lock.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

const (
	minBackoff = 10 * time.Millisecond
	maxBackoff = 500 * time.Millisecond
)

type Lock struct {
	client *Client
	key    string
	token  string
}

// Locker hands out SET NX locks under a key prefix.
type Locker struct {
	client *Client
	prefix string
}

func NewLocker(client *Client, prefix string) *Locker {
	if prefix == "" {
		prefix = "fern:lock:"
	}
	return &Locker{client: client, prefix: prefix}
}

// Acquire takes the lock once, failing with ErrLockNotAcquired when it is held.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	start := time.Now()
	defer func() { metrics.RecordRedisOperation("lock_acquire", time.Since(start).Seconds()) }()

	lock := &Lock{client: l.client, key: l.prefix + key, token: uuid.NewString()}
	ok, err := l.client.rdb.SetNX(ctx, lock.key, lock.token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}
	l.client.logger.WithContext(ctx).Debugf("Acquired lock %s", lock.key)
	return lock, nil
}

// Wait retries Acquire with capped exponential backoff until timeout passes.
func (l *Locker) Wait(ctx context.Context, key string, ttl, timeout time.Duration) (*Lock, error) {
	deadline := time.Now().Add(timeout)
	backoff := minBackoff
	for {
		lock, err := l.Acquire(ctx, key, ttl)
		if !errors.Is(err, ErrLockNotAcquired) {
			return lock, err
		}
		if time.Now().Add(backoff).After(deadline) {
			return nil, ErrLockNotAcquired
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff = min(backoff*2, maxBackoff)
		}
	}
}

func (lock *Lock) Release(ctx context.Context) error {
	released, err := releaseScript.Run(ctx, lock.client.rdb, []string{lock.key}, lock.token).Int64()
	if err != nil {
		return err
	}
	if released == 0 {
		return ErrLockNotHeld
	}
	lock.client.logger.WithContext(ctx).Debugf("Released lock %s", lock.key)
	return nil
}
