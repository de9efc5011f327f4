package memory

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"todoapi/internal/core/port"
)

type Cache struct {
	store *cache.Cache
}

func NewCache(defaultTTL time.Duration) port.CacheRepository {
	return &Cache{
		store: cache.New(defaultTTL, 2*defaultTTL),
	}
}

func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	if ttl <= 0 {
		ttl = cache.DefaultExpiration
	}

	c.store.Set(key, stored, ttl)
	return nil
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	value, found := c.store.Get(key)
	if !found {
		return nil, port.ErrCacheMiss
	}

	stored := value.([]byte)
	out := make([]byte, len(stored))
	copy(out, stored)

	return out, nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

func (c *Cache) DeleteByPrefix(_ context.Context, prefix string) error {
	for key := range c.store.Items() {
		if strings.HasPrefix(key, prefix) {
			c.store.Delete(key)
		}
	}

	return nil
}

func (c *Cache) Close() error {
	c.store.Flush()
	return nil
}
