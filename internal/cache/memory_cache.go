package cache

import (
	"context"
	"sync"
	"time"
)

// memoryCache is a process-local Cache for deployments without Valkey.
type memoryCache struct {
	items    map[string]memoryItem
	maxItems int
	mu       sync.RWMutex
}

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryCache creates an in-memory cache holding at most maxItems entries.
func NewMemoryCache(maxItems int) Cache {
	return &memoryCache{
		items:    make(map[string]memoryItem),
		maxItems: maxItems,
	}
}

// Get retrieves a value, treating expired entries as absent.
func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return nil, nil
	}

	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have replaced it.
		if current, ok := c.items[key]; ok && !current.expiresAt.IsZero() && time.Now().After(current.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, nil
	}

	return item.data, nil
}

// Set stores a value; expiration <= 0 means the entry never expires.
func (c *memoryCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.items) >= c.maxItems {
		c.evictOldest()
	}

	var expiresAt time.Time
	if expiration > 0 {
		expiresAt = time.Now().Add(expiration)
	}

	c.items[key] = memoryItem{
		data:      value,
		expiresAt: expiresAt,
	}

	return nil
}

// Delete removes a key.
func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
	return nil
}

// Exists checks if a live entry is present.
func (c *memoryCache) Exists(ctx context.Context, key string) (bool, error) {
	data, err := c.Get(ctx, key)
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

// Close drops all entries.
func (c *memoryCache) Close() error {
	c.mu.Lock()
	c.items = make(map[string]memoryItem)
	c.mu.Unlock()
	return nil
}

// Health always succeeds for the in-process cache.
func (c *memoryCache) Health(ctx context.Context) error {
	return nil
}

// evictOldest removes the entry closest to expiry. Caller holds the write
// lock.
func (c *memoryCache) evictOldest() {
	oldestKey := ""
	var oldestTime time.Time

	for key, item := range c.items {
		if oldestKey == "" || item.expiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.expiresAt
		}
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}
