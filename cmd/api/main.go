package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"todoapi/internal/adapter/cache"
	"todoapi/internal/adapter/database"
	apihttp "todoapi/internal/adapter/http"
	"todoapi/internal/adapter/telemetry"
	"todoapi/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "path to a config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatal(err)
	}
}

func run(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := config.NewLokiLogger(cfg.App.Name, cfg.Log.Level, cfg.Log.LokiURL)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tel, err := telemetry.NewContainer(ctx, cfg, logger.Zap())
	if err != nil {
		logger.Zap().Error("Failed to initialize telemetry", zap.Error(err))
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Zap().Error("Failed to shut down telemetry", zap.Error(err))
		}
	}()

	probe := tel.NewTelemetryProbe()

	store, err := database.NewStore(ctx, cfg.Storage, probe, logger.Zap())
	if err != nil {
		logger.Zap().Error("Failed to open storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
		return err
	}
	defer store.Close()

	todoCache, err := cache.NewCache(ctx, cfg.Cache)
	if err != nil {
		logger.Zap().Error("Failed to open cache", zap.String("driver", cfg.Cache.Driver), zap.Error(err))
		return err
	}
	if todoCache != nil {
		defer todoCache.Close()
	}

	container := apihttp.NewContainer(apihttp.Dependencies{
		TodoRepo:  store.Todos,
		Cache:     todoCache,
		CacheTTL:  cfg.Cache.TTL,
		Telemetry: probe,
		Metrics:   tel.AppMetrics,
		Logger:    logger,
	})

	server := apihttp.NewServer(cfg, container, tel.AppMetrics, logger)

	if err := server.Run(ctx); err != nil {
		logger.Zap().Error("Server failed", zap.Error(err))
		return err
	}

	logger.Zap().Info("Server stopped")

	return nil
}
