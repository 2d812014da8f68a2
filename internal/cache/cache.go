// Package cache memoizes knowledge search results with a TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "knowledge_search:"

// Cache stores ordered string sequences under a key for a bounded time.
type Cache interface {
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, value []string, ttl time.Duration) error
}

// Key derives the cache key for a knowledge search. Queries that differ only
// in whitespace share a key.
func Key(query string, limit int) string {
	return keyPrefix + strconv.Itoa(limit) + ":" + strings.Join(strings.Fields(query), " ")
}

// RedisCache implements Cache with JSON-encoded Redis strings.
type RedisCache struct {
	client redis.Cmdable
}

func NewRedisCache(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}

	var vals []string
	if err := json.Unmarshal(raw, &vals); err != nil {
		return nil, false, fmt.Errorf("decoding %s: %w", key, err)
	}
	if vals == nil {
		vals = []string{}
	}
	return vals, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []string, ttl time.Duration) error {
	if value == nil {
		value = []string{}
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
