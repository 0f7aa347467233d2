// Package cache is an optional Redis read-through cache for aggregation
// summaries. The dashboard polls the same windows repeatedly; a short TTL
// absorbs most of that without letting charts go stale.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/whowhywhen/whowhywhen/internal/config"
)

// Cache wraps a Redis client with JSON marshalling and a fixed TTL. A nil
// *Cache is valid and behaves as a permanent miss.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis per cfg and verifies the connection. Returns nil
// without error when cfg is nil.
func New(ctx context.Context, cfg *config.CacheConfig) (*Cache, error) {
	if cfg == nil {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Cache{client: client, ttl: time.Duration(cfg.TTLSeconds) * time.Second}, nil
}

// Get unmarshals the cached value for key into dest. ok is false on a
// miss; Redis errors other than a miss are returned.
func (c *Cache) Get(ctx context.Context, key string, dest any) (ok bool, err error) {
	if c == nil {
		return false, nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache decode: %w", err)
	}
	return true, nil
}

// Set stores value under key for the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
