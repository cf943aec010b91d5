package transit

import (
	"time"

	"github.com/bluele/gcache"
)

// Cache is a small LRU cache with a TTL for static reference data.
// A nil *Cache or zero TTL caches nothing.
type Cache struct {
	store gcache.Cache
}

// NewCache creates a cache holding at most size entries for ttl.
func NewCache(size int, ttl time.Duration) *Cache {
	if ttl <= 0 {
		return nil
	}
	return &Cache{
		store: gcache.New(size).LRU().Expiration(ttl).Build(),
	}
}

// Get retrieves a cached value if it exists and hasn't expired.
func (c *Cache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	v, err := c.store.Get(key)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Set stores a value in the cache.
func (c *Cache) Set(key string, value any) {
	if c == nil {
		return
	}
	_ = c.store.Set(key, value)
}

// Purge drops every entry.
func (c *Cache) Purge() {
	if c == nil {
		return
	}
	c.store.Purge()
}
