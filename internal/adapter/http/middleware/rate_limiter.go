package middleware

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"todoapi/internal/adapter/http/helper"
	"todoapi/internal/core/telemetry"
	"todoapi/pkg/config"
)

type RateLimiter struct {
	cache    *cache.Cache
	requests int
	window   time.Duration
	logger   *zap.Logger
	metrics  *telemetry.AppMetrics
	mutex    sync.Mutex
}

type RateLimitEntry struct {
	Count     int
	ResetTime time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig, logger *zap.Logger, metrics *telemetry.AppMetrics) *RateLimiter {
	return &RateLimiter{
		cache:    cache.New(cfg.Window, 2*cfg.Window),
		requests: cfg.Requests,
		window:   cfg.Window,
		logger:   logger,
		metrics:  metrics,
	}
}

// RateLimitMiddleware applies a fixed window per client and route.
func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		key := fmt.Sprintf("rate_limit:%s %s:%s", c.Request.Method, path, c.ClientIP())

		allowed, remaining, resetTime := rl.checkRateLimit(key)

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			if rl.metrics != nil {
				rl.metrics.RecordRateLimitHit(c.Request.Context(), path)
			}

			rl.logger.Warn("Rate limit exceeded",
				zap.String("key", key),
				zap.Int("limit", rl.requests),
				zap.Duration("window", rl.window))

			retryAfter := int(time.Until(resetTime).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			helper.SendTooManyRequestsError(c,
				fmt.Sprintf("Too many requests. Limit: %d per %v", rl.requests, rl.window),
				retryAfter)
			c.Abort()
			return
		}

		if rl.metrics != nil {
			rl.metrics.RecordRateLimitAllowed(c.Request.Context(), path)
		}

		c.Next()
	}
}

func (rl *RateLimiter) checkRateLimit(key string) (bool, int, time.Time) {
	now := time.Now()

	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	if item, found := rl.cache.Get(key); found {
		entry := item.(RateLimitEntry)

		if now.Before(entry.ResetTime) {
			if entry.Count >= rl.requests {
				return false, 0, entry.ResetTime
			}

			entry.Count++
			rl.cache.Set(key, entry, time.Until(entry.ResetTime))

			return true, rl.requests - entry.Count, entry.ResetTime
		}
	}

	resetTime := now.Add(rl.window)
	rl.cache.Set(key, RateLimitEntry{Count: 1, ResetTime: resetTime}, rl.window)

	return true, rl.requests - 1, resetTime
}

func (rl *RateLimiter) ActiveEntries() int {
	return rl.cache.ItemCount()
}
