package routes

import (
	"github.com/gin-gonic/gin"

	"todoapi/internal/adapter/http/handler"
	"todoapi/internal/adapter/http/middleware"
	"todoapi/internal/core/telemetry"
	"todoapi/pkg/config"
)

type HandlersConfig struct {
	TodoHandler *handler.TodoHandler
}

func SetupRouter(handlers HandlersConfig, metrics *telemetry.AppMetrics, logger *config.LokiLogger, cfg *config.Config) *gin.Engine {
	if gin.Mode() == "" || cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	middleware.SetupGinMiddleware(router, cfg, metrics, logger)

	setupTodoRoutes(router, handlers.TodoHandler)

	return router
}

func setupTodoRoutes(router *gin.Engine, todoHandler *handler.TodoHandler) {
	router.GET("/", todoHandler.Hello)
	router.GET("/health", todoHandler.Health)

	todos := router.Group("/todos")
	{
		todos.GET("", todoHandler.GetAllTodos)
		todos.POST("", todoHandler.CreateTodo)
		todos.GET("/:id", todoHandler.GetTodo)
		todos.PATCH("/:id", todoHandler.UpdateTodo)
		todos.DELETE("/:id", todoHandler.DeleteTodo)
	}
}

// SetupRouterForTests skips telemetry, logging and rate limiting.
func SetupRouterForTests(handlers HandlersConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CurrentMiddleware())
	router.Use(middleware.CORSMiddleware())

	setupTodoRoutes(router, handlers.TodoHandler)

	return router
}
