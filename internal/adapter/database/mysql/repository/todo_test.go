package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"todoapi/internal/adapter/database/mysql"
	"todoapi/internal/adapter/database/mysql/repository"
	"todoapi/internal/core/domain"
	"todoapi/internal/core/port"
	"todoapi/internal/core/telemetry"
	"todoapi/pkg/config"
	. "todoapi/pkg/test"
)

func startMySQL(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping mysql container test in short mode")
	}

	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	req := testcontainers.GenericContainerRequest{
		Started: true,
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mysql:8.0",
			ExposedPorts: []string{"3306/tcp"},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": "test",
				"MYSQL_DATABASE":      "testdb",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("port: 3306  MySQL Community Server"),
				wait.ForListeningPort("3306/tcp"),
			).WithStartupTimeout(2 * time.Minute),
		},
	}

	container, err := testcontainers.GenericContainer(ctx, req)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	port, err := container.MappedPort(ctx, "3306")
	require.NoError(t, err)

	return fmt.Sprintf("mysql://root:test@%s:%s/testdb", host, port.Port())
}

func newDB(t *testing.T, url string) *gorm.DB {
	t.Helper()

	db, err := mysql.NewDB(config.StorageConfig{Driver: config.DriverMySQL, URL: url}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, db.Exec("TRUNCATE TABLE todos").Error)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

func TestTodoRepository(t *testing.T) {
	url := startMySQL(t)

	t.Run("contract", func(t *testing.T) {
		RunTodoRepositorySuite(t, func(t *testing.T) port.TodoRepository {
			return repository.NewTodoRepository(newDB(t, url), telemetry.NewNoOpProbe(), 5*time.Second)
		})
	})

	t.Run("update with unchanged values returns the todo", func(t *testing.T) {
		RegisterTestingT(t)

		ctx := context.Background()
		repo := repository.NewTodoRepository(newDB(t, url), nil, 0)

		created, err := repo.Create(ctx, domain.CreateTodo{Text: "same"})
		Expect(err).To(BeNil())

		text := "same"
		updated, err := repo.Update(ctx, created.ID, domain.UpdateTodo{Text: &text})

		Expect(err).To(BeNil())
		Expect(updated).To(Equal(created))
	})

	t.Run("closed connection is backend error", func(t *testing.T) {
		RegisterTestingT(t)

		db := newDB(t, url)
		repo := repository.NewTodoRepository(db, nil, 0)

		sqlDB, err := db.DB()
		Expect(err).To(BeNil())
		sqlDB.Close()

		_, err = repo.Find(context.Background(), 1)

		Expect(err).To(MatchError(domain.ErrBackend))
		Expect(domain.IsNotFound(err)).To(BeFalse())
	})
}
