package service

import (
	"sync"
	"time"
)

type cacheEntry struct {
	response *Response
	cachedAt time.Time
}

// Cache holds recently extracted responses keyed by date, with a TTL.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache. A ttl of zero disables caching.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached response for date if present and not expired.
// Expired entries are removed.
func (c *Cache) Get(date string) *Response {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[date]
	if !ok {
		return nil
	}

	if c.now().Sub(entry.cachedAt) > c.ttl {
		delete(c.entries, date)
		return nil
	}

	return entry.response
}

// Set stores a response for date
func (c *Cache) Set(date string, response *Response) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[date] = cacheEntry{response: response, cachedAt: c.now()}
}

// CleanExpired removes expired entries and returns how many were removed
func (c *Cache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for date, entry := range c.entries {
		if now.Sub(entry.cachedAt) > c.ttl {
			delete(c.entries, date)
			removed++
		}
	}

	return removed
}

// Size returns the number of cached entries
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
