package deadline

import (
	"sync"
	"time"
)

// InMemoryPreviewCache is a thread-safe in-memory PreviewCache.
type InMemoryPreviewCache struct {
	entries map[string]cacheEntry
	config  CacheConfig
	mu      sync.RWMutex
}

type cacheEntry struct {
	result   *PreviewResult
	cachedAt time.Time
}

// NewInMemoryPreviewCache creates an empty cache with the given config.
func NewInMemoryPreviewCache(config CacheConfig) *InMemoryPreviewCache {
	return &InMemoryPreviewCache{
		entries: make(map[string]cacheEntry),
		config:  config,
	}
}

// Get retrieves a cached result, nil on miss or expiry.
func (c *InMemoryPreviewCache) Get(fingerprint string) *PreviewResult {
	if fingerprint == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[fingerprint]
	if !ok {
		return nil
	}
	if c.config.TTL > 0 && time.Since(entry.cachedAt) > c.config.TTL {
		return nil
	}
	return entry.result
}

// Set stores a result under the request fingerprint. When the cache is
// full it first drops expired entries, then an arbitrary one; entries
// are short-lived and equally cheap to recompute, so no LRU bookkeeping.
func (c *InMemoryPreviewCache) Set(fingerprint string, result *PreviewResult) {
	if fingerprint == "" || result == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.config.MaxEntries > 0 && len(c.entries) >= c.config.MaxEntries {
		if c.config.TTL > 0 {
			for key, entry := range c.entries {
				if time.Since(entry.cachedAt) > c.config.TTL {
					delete(c.entries, key)
				}
			}
		}
		for key := range c.entries {
			if len(c.entries) < c.config.MaxEntries {
				break
			}
			delete(c.entries, key)
		}
	}

	c.entries[fingerprint] = cacheEntry{result: result, cachedAt: time.Now()}
}

// Invalidate clears the cache.
func (c *InMemoryPreviewCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
}
