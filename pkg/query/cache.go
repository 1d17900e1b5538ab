// Package query provides a small keyed cache for fetched API results, so
// views re-entering the screen don't refetch data that is already on hand.
// The whole cache is dropped when the server rejects the session.
package query

import "sync"

// Cache is a concurrency-safe map of query key to last fetched result.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]any)}
}

// Get returns the cached result for key, if any.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Set stores a result under key, replacing any previous one.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Invalidate drops a single key, typically after a mutation of the
// underlying resource.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear drops every cached result.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]any)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
