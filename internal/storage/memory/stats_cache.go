package memory

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"

	"crypto-recommendation/internal/domain"
	"crypto-recommendation/internal/storage"
)

// DefaultCacheShards is the shard count used by NewStatsCache.
const DefaultCacheShards = 16

// StatsCache is an in-memory, sharded implementation of storage.StatsCache.
// All ranges of one symbol live in the same shard.
// The cache has no eviction and grows with every distinct query range.
type StatsCache struct {
	shards []*cacheShard
}

type cacheShard struct {
	mu      sync.RWMutex
	entries map[string]domain.StatsSummary // keyed by storage.CacheKey
}

// NewStatsCache creates a cache with DefaultCacheShards shards.
func NewStatsCache() *StatsCache {
	return NewStatsCacheWithShards(DefaultCacheShards)
}

// NewStatsCacheWithShards creates a cache with n shards (minimum 1).
func NewStatsCacheWithShards(n int) *StatsCache {
	if n < 1 {
		n = 1
	}
	shards := make([]*cacheShard, n)
	for i := range shards {
		shards[i] = &cacheShard{entries: make(map[string]domain.StatsSummary)}
	}
	return &StatsCache{shards: shards}
}

// shardFor selects the shard owning symbol.
func (c *StatsCache) shardFor(symbol string) *cacheShard {
	h := xxhash.Sum64String(domain.CanonicalSymbol(symbol))
	return c.shards[h%uint64(len(c.shards))]
}

// Get retrieves the cached summary. Returns ErrNotFound if absent.
func (c *StatsCache) Get(_ context.Context, symbol string, r domain.DateRange) (*domain.StatsSummary, error) {
	shard := c.shardFor(symbol)

	shard.mu.RLock()
	summary, ok := shard.entries[storage.CacheKey(symbol, r)]
	shard.mu.RUnlock()

	if !ok {
		return nil, storage.ErrNotFound
	}
	return &summary, nil
}

// Put stores a copy of s under (symbol, r).
func (c *StatsCache) Put(_ context.Context, symbol string, r domain.DateRange, s *domain.StatsSummary) error {
	if s == nil || domain.CanonicalSymbol(symbol) == "" {
		return storage.ErrInvalidInput
	}
	shard := c.shardFor(symbol)

	shard.mu.Lock()
	shard.entries[storage.CacheKey(symbol, r)] = *s
	shard.mu.Unlock()

	return nil
}

// Len returns the number of cached entries across all shards.
func (c *StatsCache) Len(_ context.Context) (int, error) {
	total := 0
	for _, shard := range c.shards {
		shard.mu.RLock()
		total += len(shard.entries)
		shard.mu.RUnlock()
	}
	return total, nil
}

var _ storage.StatsCache = (*StatsCache)(nil)
