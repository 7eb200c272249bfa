// Package cache memoizes search results in Redis. Keys are derived from a
// hash of the executor fingerprint and the normalized query, and stored
// values have the query fields blanked, so query text never reaches the
// store. Callers put the raw query back on what they return.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/normsearch/normsearch/internal/searcher/executor"
	pkgredis "github.com/normsearch/normsearch/pkg/redis"
)

const keyPrefix = "normsearch:result:"

// Store is the subset of the Redis client the cache uses.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	store       Store
	ttl         time.Duration
	fingerprint string
	group       singleflight.Group
	logger      *slog.Logger
	hits        atomic.Int64
	misses      atomic.Int64
}

// New returns a cache for results produced under fingerprint. Results from
// executors with another fingerprint land under different keys.
func New(store Store, ttl time.Duration, fingerprint string) *QueryCache {
	return &QueryCache{
		store:       store,
		ttl:         ttl,
		fingerprint: fingerprint,
		logger:      slog.Default().With("component", "query-cache"),
	}
}

// Get looks up the result for an already normalized query. Store failures
// count as misses.
func (c *QueryCache) Get(ctx context.Context, normalized string) (*executor.SearchResult, bool) {
	key := c.Key(normalized)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, pkgredis.ErrMiss) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	result.Normalized = normalized
	c.hits.Add(1)
	return &result, true
}

func (c *QueryCache) Set(ctx context.Context, normalized string, result *executor.SearchResult) {
	key := c.Key(normalized)
	stored := *result
	stored.Query, stored.Normalized = "", ""
	data, err := json.Marshal(&stored)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result or runs compute once per key across
// concurrent callers. The bool reports a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	normalized string,
	compute func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, normalized); ok {
		return result, true, nil
	}
	val, err, _ := c.group.Do(c.Key(normalized), func() (interface{}, error) {
		result, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, normalized, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*executor.SearchResult), false, nil
}

func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Key is the store key for a normalized query.
func (c *QueryCache) Key(normalized string) string {
	sum := sha256.Sum256([]byte(c.fingerprint + "\x00" + normalized))
	return fmt.Sprintf("%s%x", keyPrefix, sum[:16])
}
