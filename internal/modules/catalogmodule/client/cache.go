package client

import (
	"fmt"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mantonx/cinecache/internal/metrics"
)

// Clock returns the current time
type Clock func() time.Time

type cacheEntry struct {
	body       []byte
	insertedAt time.Time
}

// ResponseCache holds raw upstream responses for a fixed TTL, bounded by
// an LRU policy. Safe for concurrent use.
type ResponseCache struct {
	entries *lru.Cache[string, cacheEntry]
	ttl     time.Duration
	now     Clock
}

// NewResponseCache creates a cache holding at most maxEntries responses
func NewResponseCache(maxEntries int, ttl time.Duration, now Clock) (*ResponseCache, error) {
	if maxEntries < 1 {
		return nil, fmt.Errorf("cache size must be positive, got %d", maxEntries)
	}
	if now == nil {
		now = time.Now
	}
	entries, err := lru.New[string, cacheEntry](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &ResponseCache{entries: entries, ttl: ttl, now: now}, nil
}

// Get returns the cached body for key while now < insertedAt + ttl
func (c *ResponseCache) Get(key string) ([]byte, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		metrics.CatalogCacheMisses.Inc()
		return nil, false
	}
	if !c.now().Before(entry.insertedAt.Add(c.ttl)) {
		c.entries.Remove(key)
		metrics.CatalogCacheEntries.Set(float64(c.entries.Len()))
		metrics.CatalogCacheMisses.Inc()
		return nil, false
	}
	metrics.CatalogCacheHits.Inc()
	return entry.body, true
}

// Set stores body under key, replacing any previous entry
func (c *ResponseCache) Set(key string, body []byte) {
	if evicted := c.entries.Add(key, cacheEntry{body: body, insertedAt: c.now()}); evicted {
		metrics.CatalogCacheEvictions.Inc()
	}
	metrics.CatalogCacheEntries.Set(float64(c.entries.Len()))
}

// Len returns the number of stored entries, expired ones included
func (c *ResponseCache) Len() int {
	return c.entries.Len()
}

// Purge drops every entry
func (c *ResponseCache) Purge() {
	c.entries.Purge()
	metrics.CatalogCacheEntries.Set(0)
}

// CacheKey builds the cache key from the endpoint and the full parameter
// set. url.Values.Encode sorts by key, so parameter order does not matter.
func CacheKey(endpoint string, params url.Values) string {
	if len(params) == 0 {
		return endpoint
	}
	return endpoint + "?" + params.Encode()
}
