// Package database selects and opens the todo storage backend named in the configuration.
package database

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"todoapi/internal/adapter/database/memory"
	"todoapi/internal/adapter/database/mysql"
	mysqlrepo "todoapi/internal/adapter/database/mysql/repository"
	"todoapi/internal/adapter/database/postgres"
	pgrepo "todoapi/internal/adapter/database/postgres/repository"
	"todoapi/internal/adapter/database/sqlite"
	sqliterepo "todoapi/internal/adapter/database/sqlite/repository"
	"todoapi/internal/core/port"
	"todoapi/pkg/config"
)

type Store struct {
	Todos  port.TodoRepository
	Driver string
	close  func() error
}

func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}

	return s.close()
}

// NewStore opens the configured backend and runs its migrations. Any failure here is a
// startup error.
func NewStore(ctx context.Context, cfg config.StorageConfig, telemetry port.Telemetry, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Driver {
	case config.DriverMemory, "":
		return &Store{Todos: memory.NewTodoRepository(), Driver: config.DriverMemory}, nil

	case config.DriverSQLite:
		db, err := sqlite.NewDB(cfg)
		if err != nil {
			return nil, fmt.Errorf("open sqlite storage: %w", err)
		}

		return &Store{
			Todos:  sqliterepo.NewTodoRepository(db, telemetry, cfg.QueryTimeout),
			Driver: cfg.Driver,
			close:  db.Close,
		}, nil

	case config.DriverPostgres:
		db, err := postgres.NewDB(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres storage: %w", err)
		}

		return &Store{
			Todos:  pgrepo.NewTodoRepository(db, telemetry, cfg.QueryTimeout),
			Driver: cfg.Driver,
			close:  db.Close,
		}, nil

	case config.DriverMySQL:
		db, err := mysql.NewDB(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("open mysql storage: %w", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("open mysql storage: %w", err)
		}

		return &Store{
			Todos:  mysqlrepo.NewTodoRepository(db, telemetry, cfg.QueryTimeout),
			Driver: cfg.Driver,
			close:  sqlDB.Close,
		}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}
