// Package cache provides a thread-safe LRU cache with optional expiry.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a size-bounded cache that evicts the least recently used entry.
// Entries older than the TTL are treated as missing; a zero TTL never
// expires entries.
type LRU[V any] struct {
	size      int
	ttl       time.Duration
	evictList *list.List
	items     map[string]*list.Element
	now       func() time.Time
	mu        sync.Mutex
}

// entry is stored in the cache
type entry[V any] struct {
	key      string
	value    V
	storedAt time.Time
}

// New creates a cache holding at most size entries. A non-positive size is
// raised to 1.
func New[V any](size int, ttl time.Duration) *LRU[V] {
	if size <= 0 {
		size = 1
	}
	return &LRU[V]{
		size:      size,
		ttl:       ttl,
		evictList: list.New(),
		items:     make(map[string]*list.Element),
		now:       time.Now,
	}
}

// Get retrieves a value from the cache
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	node, exists := c.items[key]
	if !exists {
		return zero, false
	}

	ent := node.Value.(*entry[V])
	if c.expired(ent) {
		c.removeElement(node)
		return zero, false
	}

	// Move to front (most recently used)
	c.evictList.MoveToFront(node)
	return ent.value, true
}

// Put adds or updates a value in the cache
func (c *LRU[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, exists := c.items[key]; exists {
		c.evictList.MoveToFront(node)
		ent := node.Value.(*entry[V])
		ent.value = value
		ent.storedAt = c.now()
		return
	}

	ent := &entry[V]{key: key, value: value, storedAt: c.now()}
	c.items[key] = c.evictList.PushFront(ent)

	if c.evictList.Len() > c.size {
		c.removeOldest()
	}
}

// Remove deletes key from the cache
func (c *LRU[V]) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, exists := c.items[key]; exists {
		c.removeElement(node)
	}
}

// Size returns the number of items in the cache, expired ones included
func (c *LRU[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.evictList.Len()
}

func (c *LRU[V]) expired(ent *entry[V]) bool {
	return c.ttl > 0 && c.now().Sub(ent.storedAt) > c.ttl
}

// removeOldest removes the least recently used item
func (c *LRU[V]) removeOldest() {
	if node := c.evictList.Back(); node != nil {
		c.removeElement(node)
	}
}

func (c *LRU[V]) removeElement(node *list.Element) {
	c.evictList.Remove(node)
	delete(c.items, node.Value.(*entry[V]).key)
}
