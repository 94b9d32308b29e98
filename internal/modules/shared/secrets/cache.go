package secrets

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// CacheMetrics tracks cache performance statistics
type CacheMetrics struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// HitRate calculates the cache hit rate as a percentage
func (m CacheMetrics) HitRate() float64 {
	reads := m.Hits + m.Misses
	if reads == 0 {
		return 0.0
	}
	return float64(m.Hits) / float64(reads) * 100.0
}

// Cache is a small TTL cache for resolved secrets. Expired entries are dropped on
// read, so no background goroutine is needed.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]cacheEntry[V]
	ttl     time.Duration
	maxSize int
	clock   clockwork.Clock
	metrics CacheMetrics
}

// NewCache creates a cache with the given TTL and maximum number of entries
func NewCache[V any](ttl time.Duration, maxSize int, clock clockwork.Clock) *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]cacheEntry[V]),
		ttl:     ttl,
		maxSize: maxSize,
		clock:   clock,
	}
}

// Get returns the cached value and whether it was present and fresh
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || !c.clock.Now().Before(entry.expiresAt) {
		if ok {
			delete(c.entries, key)
			c.metrics.Evictions++
		}
		c.metrics.Misses++
		var zero V
		return zero, false
	}

	c.metrics.Hits++
	return entry.value, true
}

// Set stores value under key, evicting the entry closest to expiry when full
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = cacheEntry[V]{
		value:     value,
		expiresAt: c.clock.Now().Add(c.ttl),
	}
}

// Delete removes key from the cache
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Metrics returns a copy of the current cache metrics
func (c *Cache[V]) Metrics() CacheMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metrics
}

// evictOldest must be called with the lock held
func (c *Cache[V]) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey = key
			oldest = entry.expiresAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.metrics.Evictions++
	}
}
