package cache

import (
	"time"

	"preventa-backend/pkg/cache"

	gocache "github.com/patrickmn/go-cache"
)

type memoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache creates an in-memory cache whose entries live for ttl.
// Expired entries are swept every 2*ttl.
func NewMemoryCache(ttl time.Duration) cache.CacheService {
	return &memoryCache{
		store: gocache.New(ttl, 2*ttl),
	}
}

func (c *memoryCache) Get(key string) (interface{}, bool) {
	return c.store.Get(key)
}

func (c *memoryCache) Set(key string, value interface{}, duration time.Duration) {
	c.store.Set(key, value, duration)
}

func (c *memoryCache) Delete(key string) {
	c.store.Delete(key)
}
