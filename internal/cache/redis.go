package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a thin namespaced client. Frames are PNG encoded and
// incompressible, so values are stored as-is.
type RedisCache struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

func NewRedisCache(addr, password string, db int, logger *slog.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisCache{
		client: client,
		prefix: "mowmap:",
		logger: logger.With("component", "redis_cache"),
	}, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := c.client.Set(ctx, c.key(key), value, ttl).Err()
	if err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
		return err
	}
	c.logger.Debug("cache set", "key", key, "size_bytes", len(value), "ttl", ttl, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Get returns nil bytes and nil error on a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err == redis.Nil {
		c.logger.Debug("cache miss", "key", key)
		return nil, nil
	}
	if err != nil {
		c.logger.Error("cache get failed", "key", key, "error", err)
		return nil, err
	}
	c.logger.Debug("cache hit", "key", key, "size_bytes", len(val), "duration_ms", time.Since(start).Milliseconds())
	return val, nil
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.key(k)
	}
	return c.client.Del(ctx, prefixed...).Err()
}

func (c *RedisCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	return c.Set(ctx, key, data, ttl)
}

func (c *RedisCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("json unmarshal: %w", err)
	}
	return true, nil
}
