package ai

import (
	"sync"
	"time"

	"github.com/hackmate/hackmate-ai/internal/domain"
)

type cacheEntry struct {
	text     string
	storedAt time.Time
}

// MemoryCache is an in-process domain.ResponseCache with a fixed TTL.
// Expired entries behave as absent and are overwritten by the next Set;
// they are not proactively deleted.
type MemoryCache struct {
	mu  sync.RWMutex
	ttl time.Duration
	now func() time.Time
	m   map[string]cacheEntry
}

// NewMemoryCache constructs a cache with the given TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, now: time.Now, m: make(map[string]cacheEntry)}
}

// Get returns the stored text when present and fresh.
func (c *MemoryCache) Get(_ domain.Context, key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		return "", false
	}
	return e.text, true
}

// Set unconditionally overwrites the entry for key with a fresh timestamp.
func (c *MemoryCache) Set(_ domain.Context, key, text string) {
	c.mu.Lock()
	c.m[key] = cacheEntry{text: text, storedAt: c.now()}
	c.mu.Unlock()
}

// Clear drops all entries. Intended for test teardown.
func (c *MemoryCache) Clear(_ domain.Context) {
	c.mu.Lock()
	c.m = make(map[string]cacheEntry)
	c.mu.Unlock()
}
