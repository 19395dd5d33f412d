package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value    V
	expires  time.Time // zero means never
	lastUsed time.Time
}

func (e *entry[V]) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// Cache is a bounded in-memory cache with TTL support. When full, the least
// recently used entry is evicted.
type Cache[V any] struct {
	mu      sync.Mutex
	items   map[string]*entry[V]
	ttl     time.Duration
	maxSize int
	group   singleflight.Group
	now     func() time.Time
}

// New creates a cache holding at most maxSize entries for ttl each.
// ttl <= 0 keeps entries until evicted.
func New[V any](ttl time.Duration, maxSize int) *Cache[V] {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Cache[V]{
		items:   make(map[string]*entry[V]),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get retrieves an item from the cache
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e, ok := c.items[key]
	if !ok || e.expired(now) {
		if ok {
			delete(c.items, key)
		}
		var zero V
		return zero, false
	}
	e.lastUsed = now
	return e.value, true
}

// Set stores an item in the cache
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if _, ok := c.items[key]; !ok && len(c.items) >= c.maxSize {
		c.evictLocked(now)
	}

	e := &entry[V]{value: value, lastUsed: now}
	if c.ttl > 0 {
		e.expires = now.Add(c.ttl)
	}
	c.items[key] = e
}

// Delete removes an item from the cache
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	c.group.Forget(key)
}

// GetOrLoad returns the cached value for key or loads and stores it.
// Concurrent loads of one key share a single loader call. Errors are not cached.
func (c *Cache[V]) GetOrLoad(key string, loader func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	res, err, _ := c.group.Do(key, func() (interface{}, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := loader()
		if err != nil {
			return nil, err
		}
		c.Set(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// evictLocked drops every expired entry, or the least recently used one if
// none has expired
func (c *Cache[V]) evictLocked(now time.Time) {
	var (
		oldestKey string
		oldest    time.Time
	)
	removed := false
	for key, e := range c.items {
		if e.expired(now) {
			delete(c.items, key)
			removed = true
			continue
		}
		if oldestKey == "" || e.lastUsed.Before(oldest) {
			oldestKey, oldest = key, e.lastUsed
		}
	}
	if !removed && oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

// Len returns the number of items in the cache, expired ones included
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear removes all items from the cache
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	c.items = make(map[string]*entry[V])
	c.mu.Unlock()
}
