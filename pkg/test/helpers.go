package test

import (
	"path/filepath"
	"testing"

	"todoapi/internal/adapter/database/sqlite"
	"todoapi/pkg/config"
)

// InitTestDB opens a migrated sqlite database in a per-test temporary directory.
func InitTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	db, err := sqlite.NewDB(config.StorageConfig{
		Driver: config.DriverSQLite,
		URL:    filepath.Join(t.TempDir(), "todoapi_test.db"),
	})

	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
