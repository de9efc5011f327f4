package http

import (
	"time"

	"todoapi/internal/adapter/http/handler"
	"todoapi/internal/core/port"
	"todoapi/internal/core/service"
	"todoapi/internal/core/telemetry"
	"todoapi/pkg/config"
)

type Container struct {
	TodoRepo    port.TodoRepository
	TodoService port.TodoService
	TodoHandler *handler.TodoHandler
}

type Dependencies struct {
	TodoRepo  port.TodoRepository
	Cache     port.CacheRepository
	CacheTTL  time.Duration
	Telemetry port.Telemetry
	Metrics   *telemetry.AppMetrics
	Logger    *config.LokiLogger
}

// NewContainer builds the service and handler once over the injected repository.
func NewContainer(deps Dependencies) *Container {
	if deps.Logger == nil {
		deps.Logger = config.NewNopLogger()
	}

	opts := []service.Option{
		service.WithTelemetry(deps.Telemetry),
		service.WithLogger(deps.Logger.Zap()),
	}

	if deps.Cache != nil {
		var metrics service.CacheMetrics
		if deps.Metrics != nil {
			metrics = deps.Metrics
		}
		opts = append(opts, service.WithCache(deps.Cache, deps.CacheTTL, metrics))
	}

	todoSvc := service.NewTodoService(deps.TodoRepo, opts...)

	return &Container{
		TodoRepo:    deps.TodoRepo,
		TodoService: todoSvc,
		TodoHandler: handler.NewTodoHandler(todoSvc, deps.Logger),
	}
}
