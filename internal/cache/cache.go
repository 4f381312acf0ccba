// Package cache provides the Redis client and small coordination helpers
// built on it.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Client wraps the go-redis client with health checking.
type Client struct {
	*redis.Client
}

// Connect creates a new Redis client and verifies the connection.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{Client: client}, nil
}

// Health checks if the Redis connection is healthy.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}

// Guard is a Redis-backed idempotency guard. Reserve takes a short-lived
// lock on a key; it returns false when the key is already held.
type Guard struct {
	client *Client
}

// NewGuard creates an idempotency guard on top of the Redis client.
func NewGuard(client *Client) *Guard {
	return &Guard{client: client}
}

// Reserve attempts to claim the key for ttl. The claim is released either
// explicitly or when the TTL lapses.
func (g *Guard) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return g.client.SetNX(ctx, "guard:"+key, "1", ttl).Result()
}

// Release drops the claim on a key.
func (g *Guard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, "guard:"+key).Err()
}
