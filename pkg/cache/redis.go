package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient wraps go-redis with a namespace prefix. The symbol directory
// keeps its caches in process memory; Redis only carries pub/sub traffic
// between instances.
type RedisClient struct {
	client *redis.Client
	prefix string
}

// NewRedisClient creates a Redis client and pings it.
func NewRedisClient(opts ...RedisOption) (*RedisClient, error) {
	cfg := &RedisConfig{
		Addr:         "localhost:6379",
		PoolSize:     10,
		PoolTimeout:  30 * time.Second,
		MinIdleConns: 2,
		Prefix:       "symdir",
		PingTimeout:  5 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		PoolTimeout:  cfg.PoolTimeout,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisClient{client: client, prefix: cfg.Prefix}, nil
}

// Client returns underlying redis client.
func (c *RedisClient) Client() *redis.Client {
	return c.client
}

// Publish sends payload on the prefixed channel.
func (c *RedisClient) Publish(ctx context.Context, channel string, payload []byte) error {
	return c.client.Publish(ctx, c.wrapKey(channel), payload).Err()
}

// Subscribe opens a subscription on the prefixed channel and waits for the
// server confirmation so no message published afterwards is missed.
func (c *RedisClient) Subscribe(ctx context.Context, channel string) (*redis.PubSub, error) {
	sub := c.client.Subscribe(ctx, c.wrapKey(channel))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", channel, err)
	}
	return sub, nil
}

// Health pings the server.
func (c *RedisClient) Health(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisClient) Close() error {
	return c.client.Close()
}

func (c *RedisClient) wrapKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}
