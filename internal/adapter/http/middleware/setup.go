package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"todoapi/internal/core/telemetry"
	"todoapi/pkg/config"
)

// SetupGinMiddleware installs the middleware chain shared by every route.
func SetupGinMiddleware(router *gin.Engine, cfg *config.Config, metrics *telemetry.AppMetrics, logger *config.LokiLogger) {
	router.Use(gin.Recovery())

	httpsEnforcer := NewHTTPSEnforcer(cfg.Server.EnforceHTTPS, logger.Zap())
	router.Use(httpsEnforcer.HTTPSMiddleware())

	router.Use(otelgin.Middleware(cfg.App.Name))
	router.Use(CurrentMiddleware())
	router.Use(LoggingMiddleware(logger))
	router.Use(CORSMiddleware())

	if cfg.RateLimit.Enabled {
		rateLimiter := NewRateLimiter(cfg.RateLimit, logger.Zap(), metrics)
		router.Use(rateLimiter.RateLimitMiddleware())
	}

	if metrics != nil {
		router.Use(MetricsMiddleware(metrics))
	}
}
