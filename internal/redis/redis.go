// Package redis connects to the Redis instance backing the knowledge cache,
// session logs and rate limits.
package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/dentalcare/aftercare/internal/config"
)

func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	slog.Info("connected to Redis", "addr", cfg.Addr(), "db", cfg.DB)
	return client, nil
}

// HealthCheck pings Redis.
func HealthCheck(ctx context.Context, client redis.Cmdable) error {
	return client.Ping(ctx).Err()
}
