package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"peeps/internal/middleware"
	"peeps/internal/observability"

	"github.com/redis/go-redis/v9"
)

const userKeyPrefix = "user:username:%s"

// DefaultUserTTL bounds how long a resolved user may be served from cache.
const DefaultUserTTL = 5 * time.Minute

// UserKey is the cache key of a user looked up by username.
func UserKey(username string) string {
	return fmt.Sprintf(userKeyPrefix, username)
}

// Store is a JSON cache on top of Redis. A Store with a nil client is valid
// and behaves as an always-empty cache.
type Store struct {
	client *redis.Client
}

// NewStore wraps client, which may be nil.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Enabled reports whether a Redis client is attached.
func (s *Store) Enabled() bool {
	return s != nil && s.client != nil
}

// Ping checks the Redis connection; a disabled store is always healthy.
func (s *Store) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	return s.client.Ping(ctx).Err()
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, b, ttl).Err()
}

// Aside serves key from Redis when present. On a miss it calls fetch, which
// fills dest and reports whether the value exists, and caches found values.
// Cache failures degrade to fetch; fetch errors are returned unchanged.
func (s *Store) Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() (bool, error)) (bool, error) {
	found, err := s.GetJSON(ctx, key, dest)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if found {
		observability.CacheLookups.WithLabelValues("hit").Inc()
		return true, nil
	}
	observability.CacheLookups.WithLabelValues("miss").Inc()

	found, err = fetch()
	if err != nil || !found {
		return found, err
	}

	if err := s.SetJSON(ctx, key, dest, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return true, nil
}

// Invalidate deletes keys, logging failures.
func (s *Store) Invalidate(ctx context.Context, keys ...string) {
	if !s.Enabled() || len(keys) == 0 {
		return
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidation failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}

// InvalidateUser drops the cached lookups for the given usernames.
func (s *Store) InvalidateUser(ctx context.Context, usernames ...string) {
	keys := make([]string, 0, len(usernames))
	for _, u := range usernames {
		if u != "" {
			keys = append(keys, UserKey(u))
		}
	}
	s.Invalidate(ctx, keys...)
}
