package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"

	ct "todoapi/pkg/context"
)

func TestGormLogger_Trace(t *testing.T) {
	RegisterTestingT(t)

	core, logs := observer.New(zap.DebugLevel)
	logger := newGormLogger(zap.New(core), true)

	current := ct.NewCurrent()
	current.Set(ct.RequestIDKey, "req-1")
	ctx := ct.WithCurrent(context.Background(), current)

	sql := func() (string, int64) { return "SELECT * FROM todos", 2 }

	logger.Trace(ctx, time.Now(), sql, nil)
	logger.Trace(ctx, time.Now(), sql, gormlogger.ErrRecordNotFound)
	logger.Trace(ctx, time.Now(), sql, errors.New("connection refused"))

	Expect(logs.Len()).To(Equal(2))
	Expect(logs.All()[0].Message).To(Equal("SQL query executed"))
	Expect(logs.All()[0].ContextMap()).To(HaveKeyWithValue("request_id", "req-1"))
	Expect(logs.All()[1].Message).To(Equal("Database operation failed"))
}

func TestGormLogger_QuietByDefault(t *testing.T) {
	RegisterTestingT(t)

	core, logs := observer.New(zap.DebugLevel)
	logger := newGormLogger(zap.New(core), false)

	logger.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)

	Expect(logs.Len()).To(BeZero())
}

func TestDSN(t *testing.T) {
	RegisterTestingT(t)

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"url", "mysql://root:pw@localhost:3306/todos", "root:pw@tcp(localhost:3306)/todos?parseTime=true&charset=utf8mb4"},
		{"url without port", "mysql://root:pw@db/todos", "root:pw@tcp(db:3306)/todos?parseTime=true&charset=utf8mb4"},
		{"url with query", "mysql://root:pw@localhost:3306/todos?timeout=5s", "root:pw@tcp(localhost:3306)/todos?timeout=5s&parseTime=true&charset=utf8mb4"},
		{"driver dsn", "root:pw@tcp(localhost:3306)/todos?timeout=5s", "root:pw@tcp(localhost:3306)/todos?timeout=5s&parseTime=true&charset=utf8mb4"},
		{"driver dsn keeps parseTime", "root:pw@tcp(localhost:3306)/todos?parseTime=false", "root:pw@tcp(localhost:3306)/todos?parseTime=false"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewWithT(t)

			got, err := dsn(tc.in)

			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(got).To(Equal(tc.want))

			parsed, err := gomysql.ParseDSN(got)
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(parsed.Net).To(Equal("tcp"))
			g.Expect(parsed.DBName).To(Equal("todos"))
			g.Expect(parsed.User).To(Equal("root"))
			g.Expect(parsed.Passwd).To(Equal("pw"))
		})
	}
}

func TestDSN_Invalid(t *testing.T) {
	RegisterTestingT(t)

	_, err := dsn("root:pw@localhost:3306/todos")

	Expect(err).To(HaveOccurred())
}
