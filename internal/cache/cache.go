package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Client wraps redis.Client but fails safe: an unreachable Redis behaves like
// an empty cache. A nil *Client is a valid, disabled cache.
type Client struct {
	client *redis.Client
	log    zerolog.Logger
}

// New creates a Redis-backed cache. An empty addr disables caching and
// returns nil.
func New(addr, password string, db int, log zerolog.Logger) *Client {
	if addr == "" {
		return nil
	}
	opts := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
	return &Client{client: redis.NewClient(opts), log: log}
}

// Enabled reports whether a Redis server is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Get returns value or nil if missing or redis unavailable.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if !c.Enabled() {
		return nil, nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		return nil, nil
	}
	return res, nil
}

// Set stores value with TTL. Redis errors are logged, not returned.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// Delete removes a key. Redis errors are logged, not returned.
func (c *Client) Delete(ctx context.Context, key string) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache delete failed")
	}
}

// GetJSON decodes a cached value into dst and reports whether it was found.
// Undecodable entries count as misses.
func (c *Client) GetJSON(ctx context.Context, key string, dst any) bool {
	data, _ := c.Get(ctx, key)
	if data == nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// SetJSON encodes value and stores it with TTL. Values that cannot be
// encoded are logged and skipped.
func (c *Client) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		c.log.Error().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	c.Set(ctx, key, payload, ttl)
}

// Ping checks connectivity. A disabled cache is always healthy.
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
