package transit

import (
	"sync"
	"time"
)

// Cache is a simple in-memory TTL cache for transit API responses.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	done    chan struct{}
	once    sync.Once
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// NewCache creates a cache with the given TTL and starts its background
// cleanup. Stop the cache when it is no longer needed.
func NewCache(ttl time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.cleanup()
			case <-c.done:
				return
			}
		}
	}()
	return c
}

// Stop ends the background cleanup. Safe to call more than once; the cache
// remains usable, expired entries are still skipped on Get.
func (c *Cache) Stop() {
	c.once.Do(func() { close(c.done) })
}

// Get retrieves a cached value if it exists and hasn't expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

// Set stores a value in the cache.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *Cache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, v := range c.entries {
		if now.After(v.expiresAt) {
			delete(c.entries, k)
		}
	}
}
