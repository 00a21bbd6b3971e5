package cache

import (
	"sync"
	"time"

	"github.com/ngenohkevin/devhub-agent/internal/clock"
)

// Item represents a cached item with expiration
type Item struct {
	Value      interface{}
	Expiration time.Time
}

// Cache is a thread-safe in-memory cache
type Cache struct {
	items map[string]Item
	mu    sync.RWMutex
	ttl   time.Duration
	clock clock.Clock

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a new cache with the specified default TTL
func New(ttl time.Duration) *Cache {
	return NewWithClock(ttl, clock.Real{})
}

// NewWithClock creates a cache that reads expiry against c
func NewWithClock(ttl time.Duration, c clock.Clock) *Cache {
	cache := &Cache{
		items: make(map[string]Item),
		ttl:   ttl,
		clock: c,
		stop:  make(chan struct{}),
	}

	// Start cleanup goroutine
	go cache.cleanup(time.Minute)

	return cache
}

// Set stores a value in the cache with the default TTL
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value in the cache with a custom TTL
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = Item{
		Value:      value,
		Expiration: c.clock.Now().Add(ttl),
	}
}

// Get retrieves a value from the cache
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[key]
	if !found {
		return nil, false
	}

	if c.clock.Now().After(item.Expiration) {
		return nil, false
	}

	return item.Value, true
}

// GetOrSet retrieves a value from cache or sets it using the provided function
func (c *Cache) GetOrSet(key string, fn func() (interface{}, error)) (interface{}, error) {
	if value, found := c.Get(key); found {
		return value, nil
	}

	value, err := fn()
	if err != nil {
		return nil, err
	}

	c.Set(key, value)
	return value, nil
}

// Delete removes a value from the cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Clear removes all items from the cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]Item)
}

// Len reports how many entries are stored, expired or not
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the cleanup goroutine
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// cleanup removes expired items periodically
func (c *Cache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.purge()
		}
	}
}

func (c *Cache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	for key, item := range c.items {
		if now.After(item.Expiration) {
			delete(c.items, key)
		}
	}
}
