package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoapi/pkg/config"
)

func TestNewCache(t *testing.T) {
	ctx := context.Background()

	disabled, err := NewCache(ctx, config.CacheConfig{Driver: config.CacheNone})
	require.NoError(t, err)
	assert.Nil(t, disabled)

	inMemory, err := NewCache(ctx, config.CacheConfig{Driver: config.CacheMemory, TTL: time.Minute})
	require.NoError(t, err)
	assert.NotNil(t, inMemory)

	_, err = NewCache(ctx, config.CacheConfig{Driver: "memcached"})
	assert.ErrorContains(t, err, "unknown cache driver")
}
