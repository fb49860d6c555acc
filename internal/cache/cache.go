// Package cache implements the namespaced TTL cache of §4.2 (C2) on top
// of Redis, with a no-op fallback so the pipeline can still boot and
// serve read-only endpoints when Redis is unreachable.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the contract every pipeline component depends on instead of
// a concrete Redis client, so degraded mode is invisible to callers.
type Cache interface {
	Get(ctx context.Context, prefix, id string, dest any) (bool, error)
	Set(ctx context.Context, prefix, id string, value any, ttl time.Duration) error
	Exists(ctx context.Context, prefix, id string) (bool, error)
	Invalidate(ctx context.Context, prefix, id string) error
	InvalidatePrefix(ctx context.Context, prefix string) error
	TTLOf(ctx context.Context, prefix, id string) (time.Duration, error)
	ClearAll(ctx context.Context) error
	Stats() Stats
}

// Stats is a coarse hit/miss counter surfaced for operational visibility.
type Stats struct {
	Hits   int64
	Misses int64
	Errors int64
}

// RedisCache is the real, Redis-backed implementation.
type RedisCache struct {
	client *redis.Client
	stats  Stats
}

func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func key(prefix, id string) string {
	return prefix + ":" + id
}

func (c *RedisCache) Get(ctx context.Context, prefix, id string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, key(prefix, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.stats.Misses++
		return false, nil
	}
	if err != nil {
		c.stats.Errors++
		return false, err
	}
	c.stats.Hits++
	return true, json.Unmarshal(raw, dest)
}

func (c *RedisCache) Set(ctx context.Context, prefix, id string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(prefix, id), raw, ttl).Err()
}

func (c *RedisCache) Exists(ctx context.Context, prefix, id string) (bool, error) {
	n, err := c.client.Exists(ctx, key(prefix, id)).Result()
	return n > 0, err
}

func (c *RedisCache) Invalidate(ctx context.Context, prefix, id string) error {
	return c.client.Del(ctx, key(prefix, id)).Err()
}

func (c *RedisCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+":*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) TTLOf(ctx context.Context, prefix, id string) (time.Duration, error) {
	return c.client.TTL(ctx, key(prefix, id)).Result()
}

func (c *RedisCache) ClearAll(ctx context.Context) error {
	return c.client.FlushDB(ctx).Err()
}

func (c *RedisCache) Stats() Stats {
	return c.stats
}

// Ping verifies connectivity at boot time; callers fall back to NoopCache
// when this fails (§4.5 "degrade to a no-op mock").
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// NoopCache is the always-miss degraded-mode fallback of §4.2/§4.5.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string, string, any) (bool, error)    { return false, nil }
func (NoopCache) Set(context.Context, string, string, any, time.Duration) error { return nil }
func (NoopCache) Exists(context.Context, string, string) (bool, error)     { return false, nil }
func (NoopCache) Invalidate(context.Context, string, string) error         { return nil }
func (NoopCache) InvalidatePrefix(context.Context, string) error           { return nil }
func (NoopCache) TTLOf(context.Context, string, string) (time.Duration, error) {
	return 0, nil
}
func (NoopCache) ClearAll(context.Context) error { return nil }
func (NoopCache) Stats() Stats                   { return Stats{} }
