// Package cache signals read-view invalidation after committed
// mutations. The signal is advisory: core correctness never depends on
// it, so failures are logged and swallowed by callers.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Invalidator drops cached read views by name.
type Invalidator interface {
	Invalidate(ctx context.Context, views ...string) error
}

// RedisInvalidator deletes view keys from Redis.
type RedisInvalidator struct {
	client *redis.Client
	prefix string
}

// NewRedisInvalidator builds a Redis-backed invalidator.
func NewRedisInvalidator(addr, password, prefix string) *RedisInvalidator {
	if prefix == "" {
		prefix = "chattala:view"
	}
	return &RedisInvalidator{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		prefix: prefix,
	}
}

// Invalidate removes the named views.
func (r *RedisInvalidator) Invalidate(ctx context.Context, views ...string) error {
	if len(views) == 0 {
		return nil
	}
	keys := make([]string, 0, len(views))
	for _, view := range views {
		keys = append(keys, r.prefix+":"+view)
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return r.client.Del(ctx, keys...).Err()
}

// Noop discards invalidation signals. Used when no Redis is configured.
type Noop struct{}

func (Noop) Invalidate(context.Context, ...string) error {
	return nil
}
