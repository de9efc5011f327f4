package cache

import (
	"context"
	"fmt"

	"todoapi/internal/adapter/cache/memory"
	"todoapi/internal/adapter/cache/redis"
	"todoapi/internal/core/port"
	"todoapi/pkg/config"
)

// NewCache returns nil when caching is disabled.
func NewCache(ctx context.Context, cfg config.CacheConfig) (port.CacheRepository, error) {
	switch cfg.Driver {
	case config.CacheNone, "":
		return nil, nil
	case config.CacheMemory:
		return memory.NewCache(cfg.TTL), nil
	case config.CacheRedis:
		return redis.NewCache(ctx, cfg)
	}

	return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
}
