// Package redis opens the client behind the token revocation list.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"cockpit/internal/platform/config"
	"cockpit/pkg/platform/sentinel"
)

type Client struct {
	*redis.Client
}

// New connects with the pool settings from cfg and pings once.
// An empty URL returns a nil client: the caller falls back to the in-memory list.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	c := &Client{Client: redis.NewClient(opts)}
	if err := c.Health(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Health pings the server. A pool that has started timing out waiting for
// connections is reported as unavailable even when the ping succeeds.
func (c *Client) Health(ctx context.Context) error {
	if err := c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis ping: %w", sentinel.ErrUnavailable, err)
	}
	if stats := c.PoolStats(); stats != nil && stats.Timeouts > 0 && stats.IdleConns == 0 && stats.TotalConns >= uint32(c.Options().PoolSize) {
		return fmt.Errorf("%w: redis pool exhausted (%d timeouts)", sentinel.ErrUnavailable, stats.Timeouts)
	}
	return nil
}
