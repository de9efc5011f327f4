package http

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"todoapi/internal/adapter/http/routes"
	"todoapi/internal/core/telemetry"
	"todoapi/pkg/config"
)

type Server struct {
	srv    *http.Server
	logger *config.LokiLogger
	cfg    *config.Config
}

func NewServer(cfg *config.Config, container *Container, metrics *telemetry.AppMetrics, logger *config.LokiLogger) *Server {
	router := routes.SetupRouter(routes.HandlersConfig{
		TodoHandler: container.TodoHandler,
	}, metrics, logger, cfg)

	return &Server{
		srv: &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		logger: logger,
		cfg:    cfg,
	}
}

func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run serves until ctx is canceled, then drains in-flight requests within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Zap().Info("Server starting",
			zap.String("port", s.cfg.Server.Port),
			zap.String("environment", s.cfg.App.Environment),
			zap.String("storage", s.cfg.Storage.Driver),
			zap.String("cache", s.cfg.Cache.Driver),
			zap.Bool("rate_limit_enabled", s.cfg.RateLimit.Enabled),
			zap.Bool("https_enforced", s.cfg.Server.EnforceHTTPS))

		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Zap().Info("Shutting down server", zap.Duration("timeout", s.cfg.Server.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return <-errCh
}
