package price

import (
	"sync"
	"time"
)

// Cache stores prices with an expiry. Implementations must be safe for concurrent use.
type Cache interface {
	Get(key string) (float64, bool)
	Set(key string, value float64, ttl time.Duration)
}

type cacheEntry struct {
	value     float64
	expiresAt time.Time
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty MemoryCache. A nil clock means time.Now.
func NewMemoryCache(now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		now:     now,
	}
}

// Get returns the value for key if it has not expired.
func (c *MemoryCache) Get(key string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !c.now().Before(e.expiresAt) {
		return 0, false
	}
	return e.value, true
}

// Set stores value under key for ttl.
func (c *MemoryCache) Set(key string, value float64, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{value: value, expiresAt: c.now().Add(ttl)}
}
