package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"

	"todoapi/db/migrations"
	"todoapi/pkg/config"
)

const defaultPath = "database.db"

type DB struct {
	*sql.DB
	QueryBuilder *squirrel.StatementBuilderType
}

// NewDB migrates the schema and opens a traced, query-logging connection pool.
func NewDB(cfg config.StorageConfig) (*DB, error) {
	dsn := buildDSN(cfg.URL)

	migrationDB, err := sql.Open("sqlite3", dsn)

	if err != nil {
		return nil, fmt.Errorf("open sqlite for migrations: %w", err)
	}

	err = RunMigrations(migrationDB)
	migrationDB.Close()

	if err != nil {
		return nil, err
	}

	tracedDB, err := otelsql.Open("sqlite3", dsn,
		otelsql.WithDBSystem("sqlite"),
		otelsql.WithDBName("todoapi"),
	)

	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "sqlite").Logger()

	level := sqldblogger.LevelError
	if cfg.LogQueries {
		level = sqldblogger.LevelInfo
	}

	sqlDB := sqldblogger.OpenDriver(dsn, tracedDB.Driver(), zerologadapter.New(logger),
		sqldblogger.WithMinimumLevel(level),
	)
	tracedDB.Close()

	// sqlite has a single writer; one connection keeps transactions from failing with SQLITE_BUSY
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	queryBuilder := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

	return &DB{
		DB:           sqlDB,
		QueryBuilder: &queryBuilder,
	}, nil
}

func RunMigrations(db *sql.DB) error {
	source, err := iofs.New(migrations.FS, migrations.SQLite)

	if err != nil {
		return fmt.Errorf("load sqlite migrations: %w", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})

	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)

	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run sqlite migrations: %w", err)
	}

	return nil
}

func buildDSN(path string) string {
	if path == "" {
		path = defaultPath
	}

	separator := "?"
	if strings.Contains(path, "?") {
		separator = "&"
	}

	return path + separator + "_foreign_keys=on&_busy_timeout=5000&_txlock=immediate"
}
