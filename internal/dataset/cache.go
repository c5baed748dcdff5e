package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/dreamstate/guest-assistant/internal/cache"
	"github.com/dreamstate/guest-assistant/internal/domain"
	"github.com/dreamstate/guest-assistant/internal/observability"
)

// DefaultTTL is how long a fetched snapshot is served without touching the source.
const DefaultTTL = 10 * time.Minute

// Cache owns the process-wide property snapshot. Readers get the current
// *Snapshot and must not modify it.
//
// No lock is held across a refresh: two callers that both see a stale snapshot
// both fetch, and the last one to finish wins. Fetches are idempotent reads.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration
	logger  *observability.Logger
	now     func() time.Time

	// shared, when set, lets processes hand snapshots to each other.
	shared    cache.Client
	sharedKey string

	current atomic.Pointer[Snapshot]
	fetches atomic.Int64
}

// CacheOption customizes a Cache.
type CacheOption func(*Cache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithSharedStore publishes fetched snapshots to store and adopts fresh ones from it.
func WithSharedStore(store cache.Client) CacheOption {
	return func(c *Cache) { c.shared = store }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) { c.now = now }
}

// NewCache creates an empty cache; the first Load fetches.
func NewCache(fetcher Fetcher, logger *observability.Logger, opts ...CacheOption) *Cache {
	c := &Cache{
		fetcher: fetcher,
		ttl:     DefaultTTL,
		logger:  logger.WithComponent("dataset_cache"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.sharedKey = cache.Key("dataset", "snapshot", fetcher.Describe())
	return c
}

// Load returns the current snapshot, refreshing it first when stale.
func (c *Cache) Load(ctx context.Context) (*Snapshot, error) {
	if snap := c.current.Load(); snap.IsFresh(c.now(), c.ttl) {
		return snap, nil
	}

	log := c.logger.WithContext(ctx).WithOperation("load")
	if snap := c.loadShared(ctx, log); snap != nil {
		c.current.Store(snap)
		return snap, nil
	}

	start := c.now()
	values, err := c.fetcher.Fetch(ctx)
	c.fetches.Add(1)
	if err != nil {
		var de *domain.DomainError
		if !errors.As(err, &de) {
			err = domain.UpstreamFetchError("fetch dataset", err)
		}
		log.Error().Err(err).Str("source", c.fetcher.Describe()).Msg("Dataset fetch failed")
		return nil, err
	}

	snap, err := NewSnapshot(values, c.now())
	if err != nil {
		return nil, err
	}
	c.current.Store(snap)

	log.Info().
		Str("source", c.fetcher.Describe()).
		Int("headers", len(snap.Headers)).
		Int("rows", len(snap.Rows)).
		Dur("elapsed", c.now().Sub(start)).
		Msg("Dataset refreshed")

	c.saveShared(ctx, log, snap)
	return snap, nil
}

// Peek returns the current snapshot without refreshing; nil before the first load.
func (c *Cache) Peek() *Snapshot {
	return c.current.Load()
}

// Invalidate drops the in-process snapshot and the shared copy, if any, so
// the next Load refetches from the source.
func (c *Cache) Invalidate(ctx context.Context) {
	c.current.Store(nil)
	if c.shared == nil {
		return
	}
	if err := c.shared.Delete(ctx, c.sharedKey); err != nil {
		c.logger.WithContext(ctx).WithOperation("invalidate").Warn().Err(err).Msg("Shared snapshot delete failed")
	}
}

// Fetches returns how many remote fetches have been attempted.
func (c *Cache) Fetches() int64 {
	return c.fetches.Load()
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

func (c *Cache) loadShared(ctx context.Context, log *observability.Logger) *Snapshot {
	if c.shared == nil {
		return nil
	}

	data, err := c.shared.Get(ctx, c.sharedKey)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn().Err(err).Msg("Shared snapshot read failed")
		}
		return nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Warn().Err(err).Msg("Shared snapshot is corrupt, ignoring")
		return nil
	}
	if !snap.IsFresh(c.now(), c.ttl) || len(snap.Headers) == 0 {
		return nil
	}
	snap.buildIndex()

	log.Debug().Time("fetched_at", snap.FetchedAt).Msg("Adopted shared snapshot")
	return &snap
}

func (c *Cache) saveShared(ctx context.Context, log *observability.Logger, snap *Snapshot) {
	if c.shared == nil {
		return
	}

	data, err := json.Marshal(snap)
	if err != nil {
		log.Warn().Err(err).Msg("Encode snapshot failed")
		return
	}
	if err := c.shared.Set(ctx, c.sharedKey, data, c.ttl); err != nil {
		log.Warn().Err(err).Msg("Shared snapshot write failed")
	}
}
