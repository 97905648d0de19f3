// Package ratelimit provides distributed rate limiting using Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/authgate/pkg/errors"
	"github.com/turtacn/authgate/pkg/logger"
)

// RedisRateLimiter is a fixed-window limiter shared by every gateway replica.
type RedisRateLimiter struct {
	client redis.UniversalClient
	logger logger.Logger
	config RateLimiterConfig
}

// RateLimiterConfig holds rate limiter configuration.
type RateLimiterConfig struct {
	// Limit is the number of attempts allowed per window
	Limit int64
	// Window is the length of one counting window
	Window time.Duration
	// KeyPrefix is the Redis key prefix
	KeyPrefix string
}

// INCR and PEXPIRE run as one script so a counter never lives without a TTL.
var fixedWindowScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return current
`)

// NewRedisRateLimiter creates a new Redis-based rate limiter.
func NewRedisRateLimiter(client redis.UniversalClient, cfg RateLimiterConfig, log logger.Logger) (*RedisRateLimiter, error) {
	if client == nil {
		return nil, errors.ErrInvalidRequest.WithMessage("redis client is required")
	}
	if cfg.Limit <= 0 || cfg.Window <= 0 {
		return nil, errors.ErrInvalidRequest.WithMessage("rate limit and window must be positive")
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "ratelimit"
	}

	log = log.WithComponent("RateLimiter")
	log.Info(context.Background(), "Redis rate limiter initialized", logger.Fields{
		"limit":  cfg.Limit,
		"window": cfg.Window.String(),
	})

	return &RedisRateLimiter{client: client, logger: log, config: cfg}, nil
}

// Allow counts one attempt for key and reports whether it is within the limit.
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := fixedWindowScript.Run(ctx, rl.client, []string{rl.buildKey(key)}, rl.config.Window.Milliseconds()).Int64()
	if err != nil {
		rl.logger.Error(ctx, "Rate limit check failed", err, logger.Fields{"key": key})
		return false, errors.ErrStoreUnavailable.WithCause(err)
	}
	return count <= rl.config.Limit, nil
}

// Reset clears the counter for key.
func (rl *RedisRateLimiter) Reset(ctx context.Context, key string) error {
	if err := rl.client.Del(ctx, rl.buildKey(key)).Err(); err != nil {
		return errors.ErrStoreUnavailable.WithCause(err)
	}
	return nil
}

func (rl *RedisRateLimiter) buildKey(key string) string {
	return fmt.Sprintf("%s:%s", rl.config.KeyPrefix, key)
}
