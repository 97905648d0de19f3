// Package bootstrap wires the shared runtime of the authgate binaries:
// configuration, logging, tracing, metrics and the backing stores.
package bootstrap

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/turtacn/authgate/internal/config"
	"github.com/turtacn/authgate/internal/domain/service"
	"github.com/turtacn/authgate/internal/infrastructure/audit"
	"github.com/turtacn/authgate/internal/infrastructure/crypto"
	"github.com/turtacn/authgate/internal/infrastructure/kms"
	"github.com/turtacn/authgate/internal/infrastructure/monitoring"
	"github.com/turtacn/authgate/internal/infrastructure/persistence/postgres"
	redisconn "github.com/turtacn/authgate/internal/infrastructure/persistence/redis"
	"github.com/turtacn/authgate/internal/infrastructure/ratelimit"
	"github.com/turtacn/authgate/internal/infrastructure/redis"
	"github.com/turtacn/authgate/pkg/logger"
)

// Runtime holds the process-wide observability stack and the resources to
// release on shutdown.
type Runtime struct {
	Config   *config.Config
	Logger   logger.Logger
	Tracing  *monitoring.TracingManager
	Metrics  *monitoring.Metrics
	Registry *prometheus.Registry

	closers []func(ctx context.Context) error
}

// NewRuntime loads the configuration at configPath and builds logging,
// tracing and metrics for serviceName.
func NewRuntime(configPath, serviceName string) (*Runtime, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	log, err := monitoring.NewZapLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	log = log.WithFields(logger.Fields{"service": serviceName})

	tracing, err := monitoring.NewTracingManager(cfg.Tracing, serviceName, log)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	rt := &Runtime{
		Config:   cfg,
		Logger:   log,
		Tracing:  tracing,
		Metrics:  monitoring.NewMetrics(reg),
		Registry: reg,
	}
	rt.OnClose(tracing.Shutdown)
	return rt, nil
}

// OnClose registers fn to run on Close, in reverse registration order.
func (rt *Runtime) OnClose(fn func(ctx context.Context) error) {
	rt.closers = append(rt.closers, fn)
}

// Close releases every registered resource and reports all failures.
func (rt *Runtime) Close(ctx context.Context) error {
	var result *multierror.Error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func closer(c io.Closer) func(context.Context) error {
	return func(context.Context) error { return c.Close() }
}

// Database opens the user/product database and migrates it when configured.
func (rt *Runtime) Database(ctx context.Context) (*postgres.DBConnection, error) {
	db, err := postgres.NewDBConnection(ctx, rt.Config.Database, rt.Logger)
	if err != nil {
		return nil, err
	}
	rt.OnClose(closer(db))
	return db, nil
}

// Redis connects the pooled client shared by the revocation store and the limiter.
func (rt *Runtime) Redis(ctx context.Context) (*redisconn.RedisConnection, error) {
	rc := redisconn.NewRedisConnection(rt.Config.Redis, rt.Logger)
	if err := rc.Connect(ctx); err != nil {
		return nil, err
	}
	rt.OnClose(closer(rc))
	return rc, nil
}

// AuditSink returns the Kafka publisher when enabled, otherwise the database
// table when db is non-nil, otherwise nil.
func (rt *Runtime) AuditSink(db *postgres.DBConnection) service.AuditService {
	if rt.Config.Kafka.Enabled {
		producer := audit.NewKafkaProducer(rt.Config.Kafka, rt.Logger)
		rt.OnClose(closer(producer))
		return producer
	}
	if db != nil {
		return audit.NewGormAuditService(db.DB())
	}
	return nil
}

// Authority builds the in-process token authority on top of rc.
func (rt *Runtime) Authority(ctx context.Context, rc *redisconn.RedisConnection, sink service.AuditService) (*service.Authority, error) {
	secret, err := kms.LoadSigningSecret(ctx, rt.Config, rt.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing secret: %w", err)
	}
	codec, err := crypto.NewJWTManager(secret, rt.Config.JWT.TokenTTL, rt.Logger)
	if err != nil {
		return nil, err
	}
	store := redis.NewRevocationStore(rc.Client(), rt.Config.Revocation.CheckTimeout)

	opts := []service.AuthorityOption{
		service.WithFailOpen(rt.Config.Revocation.FailOpen),
		service.WithMetrics(rt.Metrics),
		service.WithTracer(rt.Tracing.Tracer()),
	}
	if sink != nil {
		opts = append(opts, service.WithAudit(sink))
	}
	if rt.Config.Revocation.FailOpen {
		rt.Logger.Warn(ctx, "Revocation checks fail open: an unreachable store admits tokens")
	}
	return service.NewTokenAuthority(codec, store, rt.Logger, opts...), nil
}

// LoginLimiter returns the login rate limiter, or nil when disabled.
func (rt *Runtime) LoginLimiter(rc *redisconn.RedisConnection) (service.RateLimiter, error) {
	rl := rt.Config.RateLimit
	if !rl.LoginEnabled {
		return nil, nil
	}
	limiter, err := ratelimit.NewRedisRateLimiter(rc.Client(), ratelimit.RateLimiterConfig{
		Limit:  int64(rl.LoginMaxAttempts),
		Window: rl.LoginWindow,
	}, rt.Logger)
	if err != nil {
		return nil, err
	}
	return limiter, nil
}
