package database

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int

	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultRedisConfig returns local development defaults. Timeouts are short
// because Redis only fronts lookups that can fall back to Postgres.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host:         "localhost",
		Port:         6379,
		PoolSize:     20,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	}
}

// Addr returns the Redis address string.
func (c RedisConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NewRedisClient creates a Redis client and verifies the connection, with
// the same startup retries as NewPostgresPool. The logger may be nil.
func NewRedisClient(ctx context.Context, cfg RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	var lastErr error
	for attempt := 0; attempt < defaultRetryAttempts; attempt++ {
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		if attempt == defaultRetryAttempts-1 {
			break
		}
		if logger != nil {
			logger.Warn("redis connection failed, retrying",
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", defaultRetryAttempts),
				slog.String("error", lastErr.Error()),
			)
		}
		if err := sleepBackoff(ctx, attempt); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect to redis: context canceled during retry: %w", err)
		}
	}

	_ = client.Close()
	return nil, fmt.Errorf("ping redis after %d attempts: %w", defaultRetryAttempts, lastErr)
}
