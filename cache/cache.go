// Package cache memoizes rendered feeds for a bounded time window.
//
// Entries are never refreshed in the background: a value stays as it was
// computed until its TTL runs out or Invalidate is called, even if the data
// behind it changed in the meantime.
package cache

import (
	"context"
	"time"

	"blogFeed/logging"
)

// DefaultTTL is how long a feed stays cached after it was computed.
const DefaultTTL = 20 * time.Second

// DefaultPrefix namespaces the keys of the global feed.
const DefaultPrefix = "feed:global:"

// Store is a byte-valued key/value store with per-entry expiry.
type Store interface {
	// Get returns the value stored under key. ok is false for missing or expired keys.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePrefix removes every key that starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// ComputeFunc produces the value for a cache miss.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// FeedCache is a read-through cache in front of a Store.
type FeedCache struct {
	store  Store
	ttl    time.Duration
	prefix string
}

// Option configures a FeedCache.
type Option func(*FeedCache)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *FeedCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(c *FeedCache) {
		c.prefix = prefix
	}
}

// New returns a FeedCache backed by store.
func New(store Store, opts ...Option) *FeedCache {
	c := &FeedCache{
		store:  store,
		ttl:    DefaultTTL,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns how long entries live.
func (c *FeedCache) TTL() time.Duration {
	return c.ttl
}

// GetOrCompute returns the cached value for key, or computes, stores and
// returns it on a miss. A failing store never fails the read: the value is
// computed instead. Compute errors are returned and nothing is stored.
func (c *FeedCache) GetOrCompute(ctx context.Context, key string, compute ComputeFunc) ([]byte, error) {
	full := c.prefix + key
	value, ok, err := c.store.Get(ctx, full)
	if err != nil {
		logging.Log.WithError(err).WithField("key", full).Warn("feed cache read failed")
	} else if ok {
		return value, nil
	}

	value, err = compute(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, full, value, c.ttl); err != nil {
		logging.Log.WithError(err).WithField("key", full).Warn("feed cache write failed")
	}
	return value, nil
}

// Invalidate evicts every cached feed, so the next read recomputes.
func (c *FeedCache) Invalidate(ctx context.Context) error {
	return c.store.DeletePrefix(ctx, c.prefix)
}
