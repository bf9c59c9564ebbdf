package cache

import (
	"container/list"
	"sync"
)

// LRUCache is a thread-safe Least-Recently-Used cache. A capacity <= 0 makes
// it unbounded; otherwise the least-recently-used entry is evicted when full.
//
// Usage:
//
//	c := NewLRUCache[Key, *parser.Result](512)
//	c.Put(k, res)
//	if v, ok := c.Get(k); ok { ... }
type LRUCache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*list.Element
	order    *list.List // front = most-recently used
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

// NewLRUCache creates a new cache with the given capacity.
func NewLRUCache[K comparable, V any](capacity int) *LRUCache[K, V] {
	if capacity < 0 {
		capacity = 0
	}
	return &LRUCache[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element, min(capacity, 1024)),
		order:    list.New(),
	}
}

// Get returns the cached value and true if the key exists. A hit moves the
// entry to the front.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry[K, V]).value, true
}

// Put inserts or updates a key/value pair and reports whether an older
// entry had to be evicted to make room.
func (c *LRUCache[K, V]) Put(key K, value V) (evicted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.order.MoveToFront(el)
		el.Value.(*lruEntry[K, V]).value = value
		return false
	}

	if c.capacity > 0 && c.order.Len() >= c.capacity {
		evicted = c.evictLeastRecentLocked()
	}

	entry := &lruEntry[K, V]{key: key, value: value}
	c.items[key] = c.order.PushFront(entry)
	return evicted
}

// Peek returns the cached value without moving it to the front.
func (c *LRUCache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	return el.Value.(*lruEntry[K, V]).value, true
}

// Len returns the current number of items in the cache.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Cap returns the configured capacity; 0 means unbounded.
func (c *LRUCache[K, V]) Cap() int {
	return c.capacity
}

// Clear removes all items from the cache.
func (c *LRUCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[K]*list.Element, min(c.capacity, 1024))
}

// Caller must hold c.mu.
func (c *LRUCache[K, V]) evictLeastRecentLocked() bool {
	back := c.order.Back()
	if back == nil {
		return false
	}
	c.order.Remove(back)
	delete(c.items, back.Value.(*lruEntry[K, V]).key)
	return true
}
