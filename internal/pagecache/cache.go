// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pagecache memoizes page resolution. A Cache sits in front of a
// wiki.Source, fetches each distinct title at most once, remembers titles
// that could not be resolved, and can keep pages in a persistent
// pagestore.Store so a later process starts warm.
package pagecache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/wikibacon/internal/metrics"
	"github.com/pdiddy/wikibacon/internal/pagestore"
	"github.com/pdiddy/wikibacon/internal/wiki"
	"github.com/pdiddy/wikibacon/pkg/types"
)

// entry is either a page or a not-found marker.
type entry struct {
	page     *types.Page
	err      error
	storedAt time.Time
}

// abandonedError marks a fetch cut short because the context of the caller
// that ran it ended.
type abandonedError struct{ err error }

func (e abandonedError) Error() string { return e.err.Error() }
func (e abandonedError) Unwrap() error { return e.err }

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries      int   `json:"entries"`
	Hits         int64 `json:"hits"`
	NegativeHits int64 `json:"negative_hits"`
	Misses       int64 `json:"misses"`
	StoreHits    int64 `json:"store_hits"`
	Fetches      int64 `json:"fetches"`
}

// Option configures a Cache.
type Option func(*Cache)

// WithStore adds a persistent tier consulted before the source.
func WithStore(s pagestore.Store) Option {
	return func(c *Cache) { c.store = s }
}

// WithNegativeTTL expires not-found markers after d. Zero keeps them for
// the life of the cache.
func WithNegativeTTL(d time.Duration) Option {
	return func(c *Cache) { c.negativeTTL = d }
}

// WithLogger sets the logger used for store failures and fetch tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// Cache maps normalized titles to pages. It is safe for concurrent use and
// is the only state shared between searches.
type Cache struct {
	source      wiki.Source
	store       pagestore.Store
	negativeTTL time.Duration
	logger      *slog.Logger
	now         func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
	flight  singleflight.Group

	hits, negativeHits, misses, storeHits, fetches atomic.Int64
}

// New returns an empty cache over source.
func New(source wiki.Source, opts ...Option) *Cache {
	c := &Cache{
		source:  source,
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the page for name, fetching it on first use. Names that
// normalize to the same title share one entry, and concurrent misses for a
// title wait on a single fetch. Failures wrap wiki.ErrNotFound and are
// remembered. A fetch cut short by its caller's context is never
// remembered; a deadline error that arrives while the caller's context is
// live, such as an HTTP client timeout, is an ordinary failure.
func (c *Cache) Get(ctx context.Context, name string) (*types.Page, error) {
	key := wiki.NormalizeTitle(name)
	if key == "" {
		return nil, fmt.Errorf("%w: empty title", wiki.ErrNotFound)
	}

	if e, ok := c.lookup(key); ok {
		return e.page, e.err
	}

	for {
		ch := c.flight.DoChan(key, func() (any, error) {
			if e, ok := c.peek(key); ok {
				return e.page, e.err
			}
			page, err := c.load(ctx, key)
			if err != nil && ctx.Err() != nil {
				return nil, abandonedError{err}
			}
			return page, err
		})

		var res singleflight.Result
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res = <-ch:
		}

		if res.Err != nil {
			var abandoned abandonedError
			if errors.As(res.Err, &abandoned) {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				// Another caller ran the fetch and gave up.
				continue
			}
			return nil, res.Err
		}
		page, ok := res.Val.(*types.Page)
		if !ok {
			return nil, fmt.Errorf("unexpected type from page fetch: got %T", res.Val)
		}
		return page, nil
	}
}

// lookup reads an entry and records hit statistics.
func (c *Cache) lookup(key string) (entry, bool) {
	e, ok := c.peek(key)
	switch {
	case !ok:
		c.misses.Add(1)
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	case e.err != nil:
		c.negativeHits.Add(1)
		metrics.CacheLookups.WithLabelValues("negative").Inc()
	default:
		c.hits.Add(1)
		metrics.CacheLookups.WithLabelValues("hit").Inc()
	}
	return e, ok
}

// peek reads an entry without touching statistics. Expired negative
// entries count as absent.
func (c *Cache) peek(key string) (entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return entry{}, false
	}
	if e.err != nil && c.negativeTTL > 0 && c.now().Sub(e.storedAt) > c.negativeTTL {
		return entry{}, false
	}
	return e, true
}

// load fills key from the store or the source. It runs inside the flight.
func (c *Cache) load(ctx context.Context, key string) (*types.Page, error) {
	if c.store != nil {
		page, err := c.store.Get(ctx, key)
		switch {
		case err == nil:
			c.storeHits.Add(1)
			metrics.CacheLookups.WithLabelValues("store").Inc()
			c.remember(key, page)
			return page, nil
		case !errors.Is(err, pagestore.ErrMiss):
			c.logger.Warn("page store read failed", "title", key, "error", err)
		}
	}

	c.fetches.Add(1)
	page, err := c.source.Resolve(ctx, key)
	if err != nil {
		if wiki.Cancelled(ctx, err) {
			return nil, err
		}
		if !errors.Is(err, wiki.ErrNotFound) {
			err = fmt.Errorf("%w: %q: %v", wiki.ErrNotFound, key, err)
		}
		c.logger.Debug("page not found", "title", key, "error", err)
		c.mu.Lock()
		c.entries[key] = entry{err: err, storedAt: c.now()}
		c.mu.Unlock()
		return nil, err
	}

	c.remember(key, page)
	if c.store != nil {
		c.persist(ctx, key, page)
	}
	return page, nil
}

// remember stores page under key and under its canonical ID.
func (c *Cache) remember(key string, page *types.Page) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{page: page, storedAt: now}
	if id := wiki.NormalizeTitle(page.ID); id != "" && id != key {
		if e, ok := c.entries[id]; !ok || e.err != nil {
			c.entries[id] = entry{page: page, storedAt: now}
		}
	}
}

func (c *Cache) persist(ctx context.Context, key string, page *types.Page) {
	keys := []string{key}
	if id := wiki.NormalizeTitle(page.ID); id != "" && id != key {
		keys = append(keys, id)
	}
	for _, k := range keys {
		if err := c.store.Put(ctx, k, page); err != nil {
			c.logger.Warn("page store write failed", "title", k, "error", err)
		}
	}
}

// Suggest asks the source for a replacement title for name. Sources that
// cannot suggest return "". Suggestions are not cached.
func (c *Cache) Suggest(ctx context.Context, name string) (string, error) {
	s, ok := c.source.(wiki.Suggester)
	if !ok {
		return "", nil
	}
	return s.Suggest(ctx, name)
}

// Len returns the number of entries, not-found markers included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Entries:      c.Len(),
		Hits:         c.hits.Load(),
		NegativeHits: c.negativeHits.Load(),
		Misses:       c.misses.Load(),
		StoreHits:    c.storeHits.Load(),
		Fetches:      c.fetches.Load(),
	}
}
