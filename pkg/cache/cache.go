package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"golang.org/x/sync/singleflight"

	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Entry is a cached response.
type Entry struct {
	Hash        string    `db:"hash"`
	Endpoint    string    `db:"endpoint"`
	Params      string    `db:"params"`
	Status      int       `db:"status"`
	ContentType string    `db:"content_type"`
	Filename    string    `db:"filename"`
	Body        []byte    `db:"body"`
	UpdatedOn   time.Time `db:"updated_on"`
}

// Store persists entries.
type Store interface {
	// Get returns nil when no entry exists for hash.
	Get(ctx context.Context, hash string) (*Entry, error)
	// Upsert inserts the entry or replaces the one with the same hash.
	Upsert(ctx context.Context, entry *Entry) error
	// DeleteEndpoints removes every entry of the endpoints, or all entries when none are given.
	DeleteEndpoints(ctx context.Context, endpoints []string) (int64, error)
}

type Lock interface {
	Release(ctx context.Context) error
}

// Locker serialises computations of one key across replicas.
type Locker interface {
	Wait(ctx context.Context, key string, ttl, timeout time.Duration) (Lock, error)
}

type redisLocker struct {
	locker *redis.Locker
}

// RedisLocker adapts a Redis locker.
func RedisLocker(locker *redis.Locker) Locker {
	return redisLocker{locker: locker}
}

func (l redisLocker) Wait(ctx context.Context, key string, ttl, timeout time.Duration) (Lock, error) {
	lock, err := l.locker.Wait(ctx, key, ttl, timeout)
	if err != nil {
		return nil, err
	}
	return lock, nil
}

type Config struct {
	// LockTTL bounds how long a crashed holder blocks other replicas.
	LockTTL time.Duration
	// LockTimeout is how long a request waits for another replica's computation.
	LockTimeout time.Duration
	// ComputeTimeout bounds a computation shared by concurrent requests.
	ComputeTimeout time.Duration
}

// flight is one shared computation. It is cancelled once every request
// waiting on it has gone.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

type Cache struct {
	store   Store
	locker  Locker
	group   singleflight.Group
	mu      sync.Mutex
	flights map[string]*flight
	config  Config
	now     func() time.Time
	logger  ectologger.Logger
}

// New builds a cache. locker may be nil, leaving only in-process deduplication.
func New(store Store, locker Locker, config Config, logger ectologger.Logger) *Cache {
	if config.LockTTL <= 0 {
		config.LockTTL = time.Minute
	}
	if config.LockTimeout <= 0 {
		config.LockTimeout = 30 * time.Second
	}
	if config.ComputeTimeout <= 0 {
		config.ComputeTimeout = 2 * time.Minute
	}
	return &Cache{
		store:   store,
		locker:  locker,
		flights: map[string]*flight{},
		config:  config,
		now:     time.Now,
		logger:  logger,
	}
}

// Cacheable reports whether an entry may be stored.
func Cacheable(entry *Entry) bool {
	return entry != nil && entry.Status >= 200 && entry.Status < 300
}

type result struct {
	entry *Entry
	hit   bool
}

// Fetch returns the entry for key when it is younger than maxAge, otherwise
// computes, stores and returns it. Identical concurrent fetches share one
// computation, which outlives any single caller but not all of them.
// The boolean reports a cache hit.
func (c *Cache) Fetch(ctx context.Context, key Key, maxAge time.Duration, compute func(context.Context) (*Entry, error)) (*Entry, bool, error) {
	ctx, span := tracing.StartSpan(ctx, "Cache.Fetch")
	defer span.End()

	if maxAge <= 0 {
		entry, err := compute(ctx)
		return entry, false, err
	}

	if entry := c.lookup(ctx, key, maxAge); entry != nil {
		metrics.RecordCacheLookup(key.Endpoint, true)
		return entry, true, nil
	}
	metrics.RecordCacheLookup(key.Endpoint, false)

	f := c.join(ctx, key.Hash)
	ch := c.group.DoChan(key.Hash, func() (any, error) {
		return c.fill(f.ctx, key, maxAge, compute)
	})

	select {
	case res := <-ch:
		c.leave(key.Hash, f)
		if res.Err != nil {
			tracing.RecordError(span, res.Err)
			return nil, false, res.Err
		}
		r := res.Val.(result)
		return r.entry, r.hit, nil
	case <-ctx.Done():
		c.leave(key.Hash, f)
		return nil, false, ctx.Err()
	}
}

func (c *Cache) join(ctx context.Context, hash string) *flight {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.flights[hash]
	if !ok {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.ComputeTimeout)
		f = &flight{ctx: fctx, cancel: cancel}
		c.flights[hash] = f
	}
	f.waiters++
	return f
}

func (c *Cache) leave(hash string, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if c.flights[hash] == f {
		delete(c.flights, hash)
	}
}

// fill computes and stores the entry under the cross-replica lock.
func (c *Cache) fill(ctx context.Context, key Key, maxAge time.Duration, compute func(context.Context) (*Entry, error)) (result, error) {
	if c.locker != nil {
		lock, err := c.locker.Wait(ctx, key.Hash, c.config.LockTTL, c.config.LockTimeout)
		switch {
		case err == nil:
			defer func() {
				if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
					c.logger.WithContext(ctx).WithError(err).Warn("Failed to release cache lock")
				}
			}()
			// Another replica may have finished while we waited.
			if entry := c.lookup(ctx, key, maxAge); entry != nil {
				return result{entry: entry, hit: true}, nil
			}
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return result{}, err
		default:
			c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"endpoint": key.Endpoint,
			}).Warn("Computing without cache lock")
		}
	}

	entry, err := compute(ctx)
	if err != nil {
		return result{}, err
	}
	c.save(ctx, key, entry)
	return result{entry: entry}, nil
}

func (c *Cache) lookup(ctx context.Context, key Key, maxAge time.Duration) *Entry {
	entry, err := c.store.Get(ctx, key.Hash)
	if err != nil {
		c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"endpoint": key.Endpoint,
		}).Warn("Cache lookup failed")
		return nil
	}
	if entry == nil || entry.UpdatedOn.Before(c.now().Add(-maxAge)) {
		return nil
	}
	return entry
}

func (c *Cache) save(ctx context.Context, key Key, entry *Entry) {
	if !Cacheable(entry) || ctx.Err() != nil {
		return
	}
	stored := *entry
	stored.Hash = key.Hash
	stored.Endpoint = key.Endpoint
	stored.Params = key.Params
	stored.UpdatedOn = c.now().UTC()

	if err := c.store.Upsert(ctx, &stored); err != nil {
		metrics.RecordCacheWrite(key.Endpoint, "error")
		c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"endpoint": key.Endpoint,
		}).Warn("Failed to write cache entry")
		return
	}
	metrics.RecordCacheWrite(key.Endpoint, "ok")
}

// Invalidate removes the entries of endpoints.
func (c *Cache) Invalidate(ctx context.Context, endpoints []string) (int64, error) {
	deleted, err := c.store.DeleteEndpoints(ctx, endpoints)
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return deleted, nil
}
