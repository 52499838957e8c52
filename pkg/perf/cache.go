package perf

import (
	"container/list"
	"sync"
	"time"
)

// entry is a single cached item together with its expiry.
type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// Cache is a thread-safe LRU cache with TTL support. A ttl of zero
// disables expiration.
type Cache[K comparable, V any] struct {
	mu        sync.RWMutex
	items     map[K]*list.Element
	lru       *list.List
	maxSize   int
	ttl       time.Duration
	closeCh   chan struct{}
	closed    bool
	closeOnce sync.Once
}

// NewCache creates a new cache
func NewCache[K comparable, V any](maxSize int, ttl time.Duration) *Cache[K, V] {
	c := &Cache[K, V]{
		items:   make(map[K]*list.Element),
		lru:     list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		closeCh: make(chan struct{}),
	}

	if ttl > 0 {
		go c.cleanupExpired()
	}

	return c
}

// Set adds or updates an item in the cache
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = time.Now().Add(c.ttl)
	}

	item := &entry[K, V]{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(item)
	c.items[key] = elem

	if c.lru.Len() > c.maxSize {
		c.evictOldest()
	}
}

// Get retrieves an item from the cache
// Returns the value and true if found, false if expired or not found
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		var zero V
		return zero, false
	}

	elem, exists := c.items[key]
	if !exists {
		var zero V
		return zero, false
	}

	item := elem.Value.(*entry[K, V])

	// Check expiration
	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
		c.removeElement(elem)
		var zero V
		return zero, false
	}

	// Move to front (most recently used)
	c.lru.MoveToFront(elem)

	return item.value, true
}

// Delete removes an item from the cache
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	if elem, exists := c.items[key]; exists {
		c.removeElement(elem)
	}
}

// Contains checks if a key exists in the cache (excluding expired items)
func (c *Cache[K, V]) Contains(key K) bool {
	_, ok := c.Get(key)
	return ok
}

// Len returns the number of items in the cache
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lru.Len()
}

// Clear removes all items from the cache
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*list.Element)
	c.lru.Init()
}

// Close closes the cache and stops the cleanup goroutine
// Safe to call multiple times - subsequent calls are no-ops
func (c *Cache[K, V]) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.closeCh)
		c.items = make(map[K]*list.Element)
		c.lru.Init()
		c.mu.Unlock()
	})
}

// removeElement removes an element from the cache
func (c *Cache[K, V]) removeElement(elem *list.Element) {
	c.lru.Remove(elem)
	item := elem.Value.(*entry[K, V])
	delete(c.items, item.key)
}

// evictOldest evicts the oldest (least recently used) item
func (c *Cache[K, V]) evictOldest() {
	elem := c.lru.Back()
	if elem != nil {
		c.removeElement(elem)
	}
}

// cleanupExpired periodically removes expired items
func (c *Cache[K, V]) cleanupExpired() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			for elem := c.lru.Back(); elem != nil; {
				item := elem.Value.(*entry[K, V])
				next := elem.Prev()

				if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
					c.removeElement(elem)
				}

				elem = next
			}
			c.mu.Unlock()
		case <-c.closeCh:
			return
		}
	}
}
