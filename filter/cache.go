package filter

import (
	"sync"

	"github.com/golang/groupcache/lru"
)

// filterCache is a thread-safe LRU of compiled filters keyed by expression
type filterCache struct {
	mu    sync.Mutex
	cache *lru.Cache
}

func newFilterCache(size int) *filterCache {
	return &filterCache{cache: lru.New(size)}
}

// Get retrieves a compiled filter and marks it recently used
func (c *filterCache) Get(expression string) (CompiledFilter, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.cache.Get(expression)
	if !ok {
		return nil, false
	}
	return v.(CompiledFilter), true
}

// Put adds or replaces a compiled filter, evicting the least recently used
// one when full
func (c *filterCache) Put(expression string, filter CompiledFilter) {
	c.mu.Lock()
	c.cache.Add(expression, filter)
	c.mu.Unlock()
}

// Clear removes all items from the cache
func (c *filterCache) Clear() {
	c.mu.Lock()
	c.cache.Clear()
	c.mu.Unlock()
}

// Size returns the number of items in the cache
func (c *filterCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Len()
}
