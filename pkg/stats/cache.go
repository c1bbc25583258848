package stats

import (
	"context"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

const filesCacheKey = "files"

// CacheConfig configures a CachedStore
type CacheConfig struct {
	MaxEntries int           // default: 1024
	TTL        time.Duration // default: 5m
}

// DefaultCacheConfig returns default cache configuration
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxEntries: 1024,
		TTL:        5 * time.Minute,
	}
}

// CachedStore serves reads from an expiring LRU in front of another store.
// Writes go to the backing store and purge the cache.
type CachedStore struct {
	backing Store
	history *lru.LRU[string, []Snapshot]
	files   *lru.LRU[string, []FileRecord]
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewCachedStore wraps backing with a read cache
func NewCachedStore(backing Store, config CacheConfig) *CachedStore {
	defaults := DefaultCacheConfig()
	if config.MaxEntries <= 0 {
		config.MaxEntries = defaults.MaxEntries
	}
	if config.TTL <= 0 {
		config.TTL = defaults.TTL
	}

	return &CachedStore{
		backing: backing,
		history: lru.NewLRU[string, []Snapshot](config.MaxEntries, nil, config.TTL),
		files:   lru.NewLRU[string, []FileRecord](1, nil, config.TTL),
	}
}

// History returns cached snapshots or loads them from the backing store
func (c *CachedStore) History(ctx context.Context, label string, metric Metric) ([]Snapshot, error) {
	key := historyKey(label, metric)
	if cached, ok := c.history.Get(key); ok {
		c.hits.Add(1)
		return cloneSnapshots(cached), nil
	}
	c.misses.Add(1)

	history, err := c.backing.History(ctx, label, metric)
	if err != nil {
		return nil, err
	}
	c.history.Add(key, cloneSnapshots(history))
	return history, nil
}

// Files returns cached file records or loads them from the backing store
func (c *CachedStore) Files(ctx context.Context) ([]FileRecord, error) {
	if cached, ok := c.files.Get(filesCacheKey); ok {
		c.hits.Add(1)
		out := make([]FileRecord, len(cached))
		copy(out, cached)
		return out, nil
	}
	c.misses.Add(1)

	files, err := c.backing.Files(ctx)
	if err != nil {
		return nil, err
	}
	stored := make([]FileRecord, len(files))
	copy(stored, files)
	c.files.Add(filesCacheKey, stored)
	return files, nil
}

// AppendSnapshot writes through and drops the cached history of label and metric
func (c *CachedStore) AppendSnapshot(ctx context.Context, label string, metric Metric, snap Snapshot) error {
	if err := c.backing.AppendSnapshot(ctx, label, metric, snap); err != nil {
		return err
	}
	c.history.Remove(historyKey(label, metric))
	return nil
}

// ReplaceFiles writes through and drops the cached file records
func (c *CachedStore) ReplaceFiles(ctx context.Context, files []FileRecord) error {
	if err := c.backing.ReplaceFiles(ctx, files); err != nil {
		return err
	}
	c.files.Purge()
	return nil
}

// Purge empties the cache
func (c *CachedStore) Purge() {
	c.history.Purge()
	c.files.Purge()
}

// CacheStats reports cache hits and misses since creation
func (c *CachedStore) CacheStats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func cloneSnapshots(in []Snapshot) []Snapshot {
	out := make([]Snapshot, len(in))
	for i, s := range in {
		counts := make(map[string]int64, len(s.Counts))
		for k, v := range s.Counts {
			counts[k] = v
		}
		out[i] = Snapshot{Timestamp: s.Timestamp, Counts: counts}
	}
	return out
}
