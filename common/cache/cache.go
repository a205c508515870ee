package cache

import (
	"context"
	"sync"
	"time"

	"github.com/fnhub/ingest/common/logger"
)

// Cache interface for key-value storage
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// MemoryCache is an in-process cache used in development and tests
type MemoryCache struct {
	data map[string]*cacheEntry
	mu   sync.RWMutex
	log  *logger.Logger
	stop chan struct{}
	once sync.Once
	now  func() time.Time
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryCache creates a new in-memory cache with a background sweeper
func NewMemoryCache(log *logger.Logger) *MemoryCache {
	c := &MemoryCache{
		data: make(map[string]*cacheEntry),
		log:  log,
		stop: make(chan struct{}),
		now:  time.Now,
	}

	go c.cleanup(time.Minute)

	return c
}

// Get retrieves a value from cache
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.data[key]
	if !exists {
		return nil, false, nil
	}

	if !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		return nil, false, nil
	}

	return entry.value, true, nil
}

// Set stores a value in cache. A zero ttl never expires.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &cacheEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}
	c.data[key] = entry

	return nil
}

// Delete removes a value from cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
	return nil
}

// Close stops the sweeper and drops all entries
func (c *MemoryCache) Close() error {
	c.once.Do(func() {
		close(c.stop)

		c.mu.Lock()
		c.data = make(map[string]*cacheEntry)
		c.mu.Unlock()

		c.log.Info("memory cache closed")
	})
	return nil
}

// Len returns the number of stored entries, expired ones included
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *MemoryCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *MemoryCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.data {
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			delete(c.data, key)
		}
	}
}
