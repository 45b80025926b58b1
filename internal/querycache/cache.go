// Package querycache stores remote query results keyed by querykey.Key.
//
// A Cache belongs to one session scope; Registry hands each caller the
// partition for its credential. Concurrent reads of the same key share one underlying fetch; reads of
// different keys are independent. Entries are replaced wholesale, never
// mutated in place, and only change through Read, Write, Invalidate and Sweep.
package querycache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/sma-adp-console/internal/querykey"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
)

// Status describes the lifecycle state of an entry.
type Status string

const (
	StatusPending Status = "pending"
	StatusFresh   Status = "fresh"
	StatusStale   Status = "stale"
	StatusError   Status = "error"
)

// Entry is a snapshot of a cached query.
type Entry struct {
	Key       querykey.Key
	Data      any
	Status    Status
	Err       error
	UpdatedAt time.Time
	// FromCache is set on entries returned by Read when no fetch was needed.
	FromCache bool
}

// FetchFunc loads the authoritative value for a key.
type FetchFunc func(ctx context.Context) (any, error)

// Recorder receives cache instrumentation.
type Recorder interface {
	RecordCacheOperation(hit bool, duration time.Duration)
	ObserveCacheFetch(resource string, duration time.Duration, err error)
	ObserveCacheInvalidation(count int)
}

type record struct {
	entry Entry
	// generation changes on every Write and Invalidate; a fetch only lands
	// when the generation it started under is still current.
	generation uint64
	lastRead   time.Time
}

// Cache is the query store of one session scope.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]*record
	group     singleflight.Group
	staleTime time.Duration
	now       func() time.Time
	logger    *zap.Logger
	recorder  Recorder
}

// Option configures a Cache.
type Option func(*Cache)

// WithStaleTime treats fresh entries older than d as stale. Zero disables ageing.
func WithStaleTime(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.staleTime = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder attaches metrics.
func WithRecorder(recorder Recorder) Option {
	return func(c *Cache) {
		c.recorder = recorder
	}
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]*record),
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Read returns the fresh entry for key or loads it with fetch. Only one fetch
// runs per key at a time; concurrent readers attach to it. When ctx ends first
// the reader detaches with ctx.Err() while the fetch keeps running and still
// populates the cache.
func (c *Cache) Read(ctx context.Context, key querykey.Key, fetch FetchFunc) (Entry, error) {
	if len(key) == 0 {
		return Entry{}, appErrors.Clone(appErrors.ErrInternal, "empty query key")
	}
	if fetch == nil {
		return Entry{}, appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("no fetcher for %s", key))
	}
	start := c.now()
	id := key.ID()

	c.mu.Lock()
	rec := c.entries[id]
	if rec != nil && c.isFresh(rec) {
		rec.lastRead = start
		entry := rec.entry
		c.mu.Unlock()
		entry.FromCache = true
		c.recordLookup(true, start)
		return entry, nil
	}
	if rec == nil {
		rec = &record{entry: Entry{Key: key}}
		c.entries[id] = rec
	}
	rec.entry.Status = StatusPending
	rec.lastRead = start
	gen := rec.generation
	// DoChan only spawns the call, so joining under the lock keeps the
	// freshness check and the attach atomic with respect to a landing fetch.
	ch := c.group.DoChan(flightKey(id, gen), func() (any, error) {
		return c.load(context.WithoutCancel(ctx), key, id, gen, fetch)
	})
	c.mu.Unlock()
	c.recordLookup(false, start)

	select {
	case res := <-ch:
		entry, _ := res.Val.(Entry)
		if res.Err != nil {
			return entry, res.Err
		}
		return entry, nil
	case <-ctx.Done():
		c.logger.Debug("query reader detached", zap.String("key", key.String()), zap.Error(ctx.Err()))
		return Entry{}, ctx.Err()
	}
}

func (c *Cache) load(ctx context.Context, key querykey.Key, id string, gen uint64, fetch FetchFunc) (Entry, error) {
	started := c.now()
	data, err := fetch(ctx)
	finished := c.now()
	if c.recorder != nil {
		c.recorder.ObserveCacheFetch(key.Resource(), finished.Sub(started), err)
	}

	entry := Entry{Key: key, Data: data, Status: StatusFresh, UpdatedAt: finished}
	if err != nil {
		entry = Entry{Key: key, Status: StatusError, Err: err, UpdatedAt: finished}
		c.logger.Warn("query fetch failed", zap.String("key", key.String()), zap.Error(err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.entries[id]
	if rec == nil || rec.generation != gen {
		c.logger.Debug("query result superseded", zap.String("key", key.String()))
		return entry, err
	}
	rec.entry = entry
	return entry, err
}

// Write stores data as the fresh value of key without a network call. Any
// fetch already in flight for key is superseded.
func (c *Cache) Write(key querykey.Key, data any) {
	if len(key) == 0 {
		return
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := c.entries[key.ID()]
	if rec == nil {
		rec = &record{}
		c.entries[key.ID()] = rec
	}
	rec.generation++
	rec.lastRead = now
	rec.entry = Entry{Key: key, Data: data, Status: StatusFresh, UpdatedAt: now}
}

// Invalidate marks key and every key it prefixes as stale. Nothing is fetched
// until the next Read. It returns the number of entries affected.
func (c *Cache) Invalidate(key querykey.Key) int {
	if len(key) == 0 {
		return 0
	}
	c.mu.Lock()
	count := 0
	for _, rec := range c.entries {
		if !rec.entry.Key.HasPrefix(key) {
			continue
		}
		rec.generation++
		rec.entry.Status = StatusStale
		count++
	}
	c.mu.Unlock()

	if c.recorder != nil {
		c.recorder.ObserveCacheInvalidation(count)
	}
	c.logger.Debug("query cache invalidated", zap.String("prefix", key.String()), zap.Int("entries", count))
	return count
}

// Peek returns the current entry for key without fetching.
func (c *Cache) Peek(key querykey.Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.entries[key.ID()]
	if !ok {
		return Entry{}, false
	}
	entry := rec.entry
	if entry.Status == StatusFresh && !c.isFresh(rec) {
		entry.Status = StatusStale
	}
	return entry, true
}

// Sweep evicts entries that have not been read for olderThan. Entries with a
// fetch in flight are kept.
func (c *Cache) Sweep(olderThan time.Duration) int {
	cutoff := c.now().Add(-olderThan)
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for id, rec := range c.entries {
		if rec.entry.Status == StatusPending || rec.lastRead.After(cutoff) {
			continue
		}
		delete(c.entries, id)
		removed++
	}
	return removed
}

// Len returns the number of tracked entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) isFresh(rec *record) bool {
	if rec.entry.Status != StatusFresh {
		return false
	}
	if c.staleTime <= 0 {
		return true
	}
	return c.now().Sub(rec.entry.UpdatedAt) < c.staleTime
}

func (c *Cache) recordLookup(hit bool, start time.Time) {
	if c.recorder == nil {
		return
	}
	c.recorder.RecordCacheOperation(hit, c.now().Sub(start))
}

func flightKey(id string, gen uint64) string {
	return id + "#" + strconv.FormatUint(gen, 10)
}

// Get reads key through c and asserts the cached data to T. The boolean
// reports whether the value was served from cache.
func Get[T any](ctx context.Context, c *Cache, key querykey.Key, fetch func(ctx context.Context) (T, error)) (T, bool, error) {
	var zero T
	entry, err := c.Read(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return zero, false, err
	}
	data, ok := entry.Data.(T)
	if !ok {
		return zero, false, appErrors.Clone(appErrors.ErrInternal, fmt.Sprintf("cached %s holds %T", key, entry.Data))
	}
	return data, entry.FromCache, nil
}
