package cache

import (
	"slices"
	"sync"
)

// MemoryCache is an in-memory implementation of the Cache interface.
// It uses a map for storage and provides thread-safe operations via RWMutex.
//
// Entries live as long as the cache itself. There is no eviction, expiry
// or persistence.
type MemoryCache struct {
	mu   sync.RWMutex
	data map[string][]string
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates a new, empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string][]string),
	}
}

// Get retrieves a copy of the list stored under key.
// Safe for concurrent readers.
func (c *MemoryCache) Get(key string) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	value, exists := c.data[key]
	if !exists {
		return nil, false
	}
	return cloneList(value), true
}

// Put stores a copy of value under key.
// The copy is made before the lock is taken, so readers never see a
// partially built entry.
func (c *MemoryCache) Put(key string, value []string) {
	stored := cloneList(value)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = stored
}

// Contains reports whether key has an entry, without copying it.
func (c *MemoryCache) Contains(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, exists := c.data[key]
	return exists
}

// Size returns the number of entries in the cache.
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}

// cloneList copies v and never returns nil, so a cached empty list stays
// distinguishable from a miss for callers that compare against nil.
func cloneList(v []string) []string {
	if v == nil {
		return []string{}
	}
	return slices.Clone(v)
}
