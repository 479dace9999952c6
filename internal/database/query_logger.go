package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// queryLogger sends GORM output to slog. Failed queries log at error, slow
// ones at warn and, at Info level, every statement at debug.
type queryLogger struct {
	log   *slog.Logger
	level logger.LogLevel
	slow  time.Duration
}

func newQueryLogger(l *slog.Logger, slow time.Duration) *queryLogger {
	return &queryLogger{log: l.With(slog.String("component", "gorm")), level: logger.Warn, slow: slow}
}

func (q *queryLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *q
	clone.level = level
	return &clone
}

func (q *queryLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	q.emit(ctx, logger.Info, slog.LevelInfo, msg, args)
}

func (q *queryLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	q.emit(ctx, logger.Warn, slog.LevelWarn, msg, args)
}

func (q *queryLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	q.emit(ctx, logger.Error, slog.LevelError, msg, args)
}

func (q *queryLogger) emit(ctx context.Context, need logger.LogLevel, level slog.Level, msg string, args []interface{}) {
	if q.level < need {
		return
	}
	q.log.Log(ctx, level, fmt.Sprintf(msg, args...))
}

func (q *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var (
		level slog.Level
		msg   string
	)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && q.level >= logger.Error:
		level, msg = slog.LevelError, "query failed"
	case q.slow > 0 && elapsed > q.slow && q.level >= logger.Warn:
		level, msg = slog.LevelWarn, "slow query"
	case q.level >= logger.Info:
		level, msg = slog.LevelDebug, "query"
	default:
		return
	}

	sql, rows := fc()
	attrs := []slog.Attr{
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}
	if err != nil && level == slog.LevelError {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	q.log.LogAttrs(ctx, level, msg, attrs...)
}
