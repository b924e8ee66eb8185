package cache

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/params"
)

type memStore struct {
	mu      sync.Mutex
	entries map[string]Entry
	writes  int
}

func newMemStore() *memStore {
	return &memStore{entries: map[string]Entry{}}
}

func (s *memStore) Get(_ context.Context, hash string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[hash]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (s *memStore) Upsert(_ context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Hash] = *entry
	s.writes++
	return nil
}

func (s *memStore) DeleteEndpoints(_ context.Context, endpoints []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for hash, entry := range s.entries {
		for _, endpoint := range endpoints {
			if entry.Endpoint == endpoint {
				delete(s.entries, hash)
				deleted++
			}
		}
	}
	return deleted, nil
}

type failingLocker struct{}

func (failingLocker) Wait(context.Context, string, time.Duration, time.Duration) (Lock, error) {
	return nil, errors.New("redis unavailable")
}

func silentLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(ectologger.EctoLogMessage) {})
}

func schema() params.Schema {
	return params.Shared().With(params.Spec{Name: "origin_iso2", Type: params.List, Upper: true})
}

func TestCanonicalize_SortsListsAndKeys(t *testing.T) {
	a := Canonicalize("/v1/kpler_trade", schema(), url.Values{
		"currency":    {"USD,EUR"},
		"origin_iso2": {"RU", "NO"},
		"date_from":   {"2022-01-01"},
	})
	b := Canonicalize("/v1/kpler_trade", schema(), url.Values{
		"date_from":   {"2022-01-01"},
		"origin_iso2": {"NO,RU"},
		"currency":    {"USD", "EUR"},
	})

	assert.Equal(t, a, b)
	assert.Equal(t, `{"currency":["USD","EUR"],"date_from":"2022-01-01","origin_iso2":["NO","RU"]}`, a.Params)
	assert.Len(t, a.Hash, 64)
}

func TestCanonicalize_KeepsOrderWhereItMatters(t *testing.T) {
	a := Canonicalize("/v1/kpler_trade", schema(), url.Values{"sort_by": {"value_eur,commodity"}})
	b := Canonicalize("/v1/kpler_trade", schema(), url.Values{"sort_by": {"commodity,value_eur"}})
	assert.NotEqual(t, a.Hash, b.Hash)
}

func TestCanonicalize_KeepsCurrencyOrder(t *testing.T) {
	a := Canonicalize("/v1/kpler_trade", schema(), url.Values{"currency": {"USD,EUR"}})
	b := Canonicalize("/v1/kpler_trade", schema(), url.Values{"currency": {"EUR,USD"}})
	assert.NotEqual(t, a.Hash, b.Hash)
}

func TestCanonicalize_ResolvesDayOffsets(t *testing.T) {
	monday := time.Date(2024, 3, 11, 9, 30, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)
	relative := url.Values{"date_from": {"-7"}}

	a := canonicalize("/v1/kpler_trade", schema(), relative, monday)
	b := canonicalize("/v1/kpler_trade", schema(), relative, tuesday)
	assert.NotEqual(t, a.Hash, b.Hash)

	absolute := canonicalize("/v1/kpler_trade", schema(), url.Values{"date_from": {"2024-03-04"}}, tuesday)
	assert.Equal(t, absolute, a)
	assert.Equal(t, `{"date_from":"2024-03-04"}`, a.Params)
}

func TestCanonicalize_IgnoresCredentialsAndUnknownParams(t *testing.T) {
	base := Canonicalize("/v1/kpler_trade", schema(), url.Values{"currency": {"EUR"}})
	noisy := Canonicalize("/v1/kpler_trade", schema(), url.Values{
		"currency":           {"EUR"},
		"api_key":            {"secret"},
		"bypass_maintenance": {"true"},
		"utm_source":         {"newsletter"},
		"format":             {""},
	})
	assert.Equal(t, base, noisy)

	other := Canonicalize("/v0/voyage", schema(), url.Values{"currency": {"EUR"}})
	assert.NotEqual(t, base.Hash, other.Hash)
}

func TestFetch_HitWithinMaxAge(t *testing.T) {
	store := newMemStore()
	c := New(store, nil, Config{}, silentLogger())
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	key := Canonicalize("/v0/commodity", schema(), url.Values{})

	var calls int
	compute := func(context.Context) (*Entry, error) {
		calls++
		return &Entry{Status: 200, ContentType: "application/json", Body: []byte(`[]`)}, nil
	}

	first, hit, err := c.Fetch(context.Background(), key, time.Hour, compute)
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := c.Fetch(context.Background(), key, time.Hour, compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, 1, calls)

	now = now.Add(2 * time.Hour)
	_, hit, err = c.Fetch(context.Background(), key, time.Hour, compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, store.writes)
}

func TestFetch_ConcurrentComputeOnce(t *testing.T) {
	store := newMemStore()
	c := New(store, nil, Config{}, silentLogger())
	key := Canonicalize("/v1/kpler_trade", schema(), url.Values{"currency": {"EUR"}})

	var calls atomic.Int32
	release := make(chan struct{})
	compute := func(context.Context) (*Entry, error) {
		calls.Add(1)
		<-release
		return &Entry{Status: 200, Body: []byte(`{"data":[]}`)}, nil
	}

	var wg sync.WaitGroup
	bodies := make([][]byte, 5)
	for i := range bodies {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entry, _, err := c.Fetch(context.Background(), key, time.Hour, compute)
			if assert.NoError(t, err) {
				bodies[i] = entry.Body
			}
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, body := range bodies {
		assert.Equal(t, []byte(`{"data":[]}`), body)
	}
}

func (c *Cache) waiters(hash string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.flights[hash]; ok {
		return f.waiters
	}
	return 0
}

func TestFetch_SharedComputeSurvivesCancelledCaller(t *testing.T) {
	store := newMemStore()
	c := New(store, nil, Config{}, silentLogger())
	key := Canonicalize("/v1/kpler_trade", schema(), url.Values{"origin_iso2": {"RU"}})

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	compute := func(ctx context.Context) (*Entry, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		select {
		case <-release:
			return &Entry{Status: 200, Body: []byte(`{"data":[1]}`)}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := c.Fetch(firstCtx, key, time.Hour, compute)
		firstErr <- err
	}()
	<-started

	type outcome struct {
		entry *Entry
		err   error
	}
	second := make(chan outcome, 1)
	go func() {
		entry, _, err := c.Fetch(context.Background(), key, time.Hour, compute)
		second <- outcome{entry, err}
	}()
	require.Eventually(t, func() bool { return c.waiters(key.Hash) == 2 }, time.Second, 5*time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, []byte(`{"data":[1]}`), got.entry.Body)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, store.writes)
	assert.Zero(t, c.waiters(key.Hash))
}

func TestFetch_CancelsComputeWhenEveryCallerLeaves(t *testing.T) {
	store := newMemStore()
	c := New(store, nil, Config{}, silentLogger())
	key := Canonicalize("/v1/kpler_trade", schema(), url.Values{"origin_iso2": {"NO"}})

	started := make(chan struct{})
	cancelled := make(chan struct{})
	compute := func(ctx context.Context) (*Entry, error) {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return nil, ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := c.Fetch(ctx, key, time.Hour, compute)
		done <- err
	}()
	<-started
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("computation kept running after every caller left")
	}
	assert.Zero(t, store.writes)
}

func TestFetch_DoesNotCacheFailures(t *testing.T) {
	store := newMemStore()
	c := New(store, failingLocker{}, Config{}, silentLogger())
	key := Canonicalize("/v1/kpler_trade", schema(), url.Values{})

	_, _, err := c.Fetch(context.Background(), key, time.Hour, func(context.Context) (*Entry, error) {
		return nil, errors.New("warehouse down")
	})
	assert.Error(t, err)

	entry, hit, err := c.Fetch(context.Background(), key, time.Hour, func(context.Context) (*Entry, error) {
		return &Entry{Status: 404, Body: []byte("incomplete")}, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 404, entry.Status)
	assert.Zero(t, store.writes)
}

func TestFetch_NoMaxAgeBypassesStore(t *testing.T) {
	store := newMemStore()
	c := New(store, nil, Config{}, silentLogger())
	key := Canonicalize("/v0/portcall", schema(), url.Values{})

	_, hit, err := c.Fetch(context.Background(), key, 0, func(context.Context) (*Entry, error) {
		return &Entry{Status: 200}, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Zero(t, store.writes)
}

func TestInvalidate(t *testing.T) {
	store := newMemStore()
	c := New(store, nil, Config{}, silentLogger())
	for _, endpoint := range []string{"/v1/kpler_trade", "/v0/voyage"} {
		key := Canonicalize(endpoint, schema(), url.Values{})
		_, _, err := c.Fetch(context.Background(), key, time.Hour, func(context.Context) (*Entry, error) {
			return &Entry{Status: 200}, nil
		})
		require.NoError(t, err)
	}

	deleted, err := c.Invalidate(context.Background(), []string{"/v0/voyage"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Len(t, store.entries, 1)
}
