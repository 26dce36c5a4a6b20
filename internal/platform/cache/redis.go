package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// New creates a Redis client and pings it within five seconds.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping: %w", err)
	}

	return client, nil
}

// Counter is a monotonically increasing per-key version stored in Redis.
type Counter struct {
	client *redis.Client
	prefix string
}

// NewCounter constructs a Counter whose keys share prefix.
func NewCounter(client *redis.Client, prefix string) *Counter {
	return &Counter{client: client, prefix: prefix}
}

// Get returns the current version for id, or zero when unset.
func (c *Counter) Get(ctx context.Context, id string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	v, err := c.client.Get(ctx, c.key(id)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

// Bump increments the version for id.
func (c *Counter) Bump(ctx context.Context, id string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	return c.client.Incr(ctx, c.key(id)).Result()
}

func (c *Counter) key(id string) string {
	return c.prefix + ":" + id
}
