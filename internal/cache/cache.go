package cache

import (
	"sync"
	"time"

	"ceassist/internal/clock"
)

// Item is a cached value with its expiry
type Item[V any] struct {
	Data      V
	ExpiresAt time.Time
}

// Cache is an in-memory TTL cache
type Cache[V any] struct {
	items map[string]*Item[V]
	mutex sync.RWMutex
	clock clock.Clock
}

// New creates a new cache instance. A nil clock uses the wall clock.
func New[V any](clk clock.Clock) *Cache[V] {
	if clk == nil {
		clk = clock.Real()
	}
	return &Cache[V]{
		items: make(map[string]*Item[V]),
		clock: clk,
	}
}

// Get retrieves an unexpired item from the cache
func (c *Cache[V]) Get(key string) (V, bool) {
	var zero V

	c.mutex.RLock()
	item, exists := c.items[key]
	c.mutex.RUnlock()
	if !exists {
		return zero, false
	}

	if c.clock.Now().After(item.ExpiresAt) {
		c.mutex.Lock()
		// Another Set may have replaced the entry since the read lock was released.
		if current, ok := c.items[key]; ok && current == item {
			delete(c.items, key)
		}
		c.mutex.Unlock()
		return zero, false
	}

	return item.Data, true
}

// Set stores an item in the cache with TTL
func (c *Cache[V]) Set(key string, data V, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = &Item[V]{
		Data:      data,
		ExpiresAt: c.clock.Now().Add(ttl),
	}
}

// Delete removes an item from the cache
func (c *Cache[V]) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.items, key)
}
