package aggregate

import (
	"sync"
	"time"

	"mediastream/sourceservice/internal/domain"
	"mediastream/sourceservice/internal/metrics"
)

const defaultCacheTTL = 30 * time.Minute

// ResultCache holds completed aggregation results in memory. Expiry is
// enforced on read: an expired entry stays in the map until the next run for
// the same content overwrites it (last writer wins). There is no background
// purge; the working set is one entry per recently browsed title and never
// grows past what users actually open.
type ResultCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cachedResult
}

type cachedResult struct {
	result    domain.AggregationResult
	expiresAt time.Time
}

func NewResultCache(ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &ResultCache{
		ttl:     ttl,
		entries: make(map[string]cachedResult),
	}
}

// CacheKey builds the canonical cache key for a content id. Movie and series
// aggregations for the same catalog id never collide.
func CacheKey(kind domain.MediaKind, contentID string) string {
	return string(kind) + "-" + contentID
}

func (c *ResultCache) Get(key string, now time.Time) (*domain.AggregationResult, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || now.After(entry.expiresAt) {
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}
	metrics.CacheHitsTotal.Inc()
	cloned := cloneResult(entry.result)
	return &cloned, true
}

func (c *ResultCache) Put(key string, result domain.AggregationResult, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cachedResult{
		result:    cloneResult(result),
		expiresAt: now.Add(c.ttl),
	}
}

func (c *ResultCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cloneResult(result domain.AggregationResult) domain.AggregationResult {
	cloned := result
	if result.Torrents != nil {
		cloned.Torrents = append([]domain.Stream(nil), result.Torrents...)
	}
	if result.Seasons != nil {
		cloned.Seasons = append([]domain.SeasonSummary(nil), result.Seasons...)
	}
	if result.Episodes != nil {
		cloned.Episodes = make([]domain.EpisodeBucket, len(result.Episodes))
		for i, bucket := range result.Episodes {
			copied := bucket
			copied.Streams = append([]domain.Stream(nil), bucket.Streams...)
			cloned.Episodes[i] = copied
		}
	}
	return cloned
}
