package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	ct "todoapi/pkg/context"
)

const slowQueryThreshold = 200 * time.Millisecond

// gormLogger forwards gorm statements to zap.
type gormLogger struct {
	level  gormlogger.LogLevel
	logger *zap.Logger
}

func newGormLogger(logger *zap.Logger, logQueries bool) *gormLogger {
	if logger == nil {
		logger = zap.NewNop()
	}

	level := gormlogger.Warn
	if logQueries {
		level = gormlogger.Info
	}

	return &gormLogger{level: level, logger: logger.With(zap.String("component", "gorm"))}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &gormLogger{level: level, logger: l.logger}
}

func (l *gormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.logger.Info(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.logger.Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.logger.Error(fmt.Sprintf(msg, args...))
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	sql, rows := fc()
	elapsed := time.Since(begin)
	fields := []zap.Field{
		zap.String("sql", sql),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
	}

	if requestID := ct.RequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}

	switch {
	case err != nil && l.level >= gormlogger.Error:
		// a missing row is reported to callers as not found
		if errors.Is(err, gormlogger.ErrRecordNotFound) {
			return
		}
		l.logger.Error("Database operation failed", append(fields, zap.Error(err))...)
	case elapsed > slowQueryThreshold && l.level >= gormlogger.Warn:
		l.logger.Warn("Slow SQL query", fields...)
	case l.level >= gormlogger.Info:
		l.logger.Info("SQL query executed", fields...)
	}
}
