// Package redis provides Redis connection management and client initialization.
// It supports standalone, cluster, and sentinel deployment modes with connection pooling.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/authgate/internal/config"
	"github.com/turtacn/authgate/pkg/logger"
)

// ConnectionMode defines Redis deployment mode
type ConnectionMode string

const (
	// ModeStandalone represents single Redis instance
	ModeStandalone ConnectionMode = "standalone"
	// ModeCluster represents Redis cluster mode
	ModeCluster ConnectionMode = "cluster"
	// ModeSentinel represents Redis sentinel mode for high availability
	ModeSentinel ConnectionMode = "sentinel"
)

// RedisConnection owns the single pooled client shared by the revocation
// store and the login rate limiter.
type RedisConnection struct {
	config config.RedisConfig
	client redis.UniversalClient
	logger logger.Logger
}

// NewRedisConnection creates a new Redis connection manager instance.
func NewRedisConnection(cfg config.RedisConfig, log logger.Logger) *RedisConnection {
	return &RedisConnection{
		config: withDefaults(cfg),
		logger: log.WithComponent("RedisConnection"),
	}
}

// Connect builds the client for the configured mode and verifies it with PING.
func (rc *RedisConnection) Connect(ctx context.Context) error {
	if rc.client != nil {
		rc.logger.Warn(ctx, "Redis connection already initialized")
		return nil
	}

	client, err := rc.newClient()
	if err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, rc.config.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		rc.logger.Error(ctx, "Redis ping failed", err, logger.Fields{"mode": rc.config.Mode})
		_ = client.Close()
		return fmt.Errorf("redis ping failed: %w", err)
	}

	rc.client = client
	rc.logger.Info(ctx, "Redis connection established successfully", logger.Fields{
		"mode":      rc.config.Mode,
		"addresses": rc.config.Addresses,
		"pool_size": rc.config.PoolSize,
	})
	return nil
}

func (rc *RedisConnection) newClient() (redis.UniversalClient, error) {
	cfg := rc.config
	switch ConnectionMode(cfg.Mode) {
	case ModeStandalone:
		return redis.NewClient(&redis.Options{
			Addr:         cfg.Addresses[0],
			Password:     cfg.Password,
			DB:           cfg.DB,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		}), nil
	case ModeCluster:
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        cfg.Addresses,
			Password:     cfg.Password,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			DialTimeout:  cfg.DialTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		}), nil
	case ModeSentinel:
		if cfg.MasterName == "" {
			return nil, fmt.Errorf("sentinel master name not configured")
		}
		return redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:    cfg.MasterName,
			SentinelAddrs: cfg.Addresses,
			Password:      cfg.Password,
			DB:            cfg.DB,
			PoolSize:      cfg.PoolSize,
			MinIdleConns:  cfg.MinIdleConns,
			DialTimeout:   cfg.DialTimeout,
			ReadTimeout:   cfg.ReadTimeout,
			WriteTimeout:  cfg.WriteTimeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported Redis mode: %s", cfg.Mode)
	}
}

// withDefaults sets default configuration values if not specified.
func withDefaults(cfg config.RedisConfig) config.RedisConfig {
	if cfg.Mode == "" {
		cfg.Mode = string(ModeStandalone)
	}
	if len(cfg.Addresses) == 0 {
		cfg.Addresses = []string{"localhost:6379"}
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = 10
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 3 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 3 * time.Second
	}
	return cfg
}

// Client returns the Redis client, nil before Connect succeeds.
func (rc *RedisConnection) Client() redis.UniversalClient {
	return rc.client
}

// Ping checks Redis server connectivity.
func (rc *RedisConnection) Ping(ctx context.Context) error {
	if rc.client == nil {
		return fmt.Errorf("redis connection not initialized")
	}
	return rc.client.Ping(ctx).Err()
}

// HealthCheck reports connectivity, latency and pool statistics.
func (rc *RedisConnection) HealthCheck(ctx context.Context) (map[string]interface{}, error) {
	if rc.client == nil {
		return nil, fmt.Errorf("redis connection not initialized")
	}

	health := make(map[string]interface{})
	start := time.Now()
	err := rc.client.Ping(ctx).Err()
	health["connected"] = err == nil
	health["latency_ms"] = time.Since(start).Milliseconds()
	if err != nil {
		health["error"] = err.Error()
		return health, err
	}

	stats := rc.client.PoolStats()
	health["total_conns"] = stats.TotalConns
	health["idle_conns"] = stats.IdleConns
	health["pool_timeouts"] = stats.Timeouts
	return health, nil
}

// Close gracefully closes Redis connection and releases resources.
func (rc *RedisConnection) Close() error {
	if rc.client == nil {
		return nil
	}
	if err := rc.client.Close(); err != nil {
		rc.logger.Error(context.Background(), "Failed to close Redis connection", err)
		return err
	}
	rc.client = nil
	rc.logger.Info(context.Background(), "Redis connection closed successfully")
	return nil
}
