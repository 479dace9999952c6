// Package cache keeps resolved users in Redis so authenticated requests skip
// the database.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"peeps/internal/middleware"
	"peeps/internal/observability"

	"github.com/redis/go-redis/v9"
)

// errorCounter feeds RedisErrorRate. A miss (redis.Nil) is not an error.
type errorCounter struct{}

func (errorCounter) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (errorCounter) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		countError(cmd.Name(), err)
		return err
	}
}

func (errorCounter) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		countError("pipeline", err)
		return err
	}
}

func countError(op string, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		observability.RedisErrorRate.WithLabelValues(op).Inc()
	}
}

// ParseOptions accepts a redis:// URL or a bare host:port.
func ParseOptions(addr string) (*redis.Options, error) {
	if strings.Contains(addr, "://") {
		return redis.ParseURL(addr)
	}
	return &redis.Options{Addr: addr}, nil
}

// Connect dials Redis at addr. It returns nil when addr is empty, malformed
// or unreachable; callers then run without a cache.
func Connect(ctx context.Context, addr string) *redis.Client {
	if strings.TrimSpace(addr) == "" {
		return nil
	}
	opts, err := ParseOptions(addr)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "invalid REDIS_URL, user cache disabled", slog.String("error", err.Error()))
		return nil
	}

	client := redis.NewClient(opts)
	client.AddHook(errorCounter{})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "redis unreachable, user cache disabled", slog.String("error", err.Error()))
		_ = client.Close()
		return nil
	}

	middleware.Logger.InfoContext(ctx, "redis connected", slog.String("addr", opts.Addr))
	return client
}
