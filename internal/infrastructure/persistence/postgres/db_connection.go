// Package postgres provides the relational store for users, credentials and products.
// It wraps gorm with the postgres driver in production and sqlite for local runs and tests.
package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/turtacn/authgate/internal/config"
	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/pkg/logger"
)

// DBConnection manages the gorm handle and its connection pool.
type DBConnection struct {
	db     *gorm.DB
	config config.DatabaseConfig
	logger logger.Logger
}

// NewDBConnection opens the configured database and performs an initial health check.
func NewDBConnection(ctx context.Context, cfg config.DatabaseConfig, log logger.Logger) (*DBConnection, error) {
	log = log.WithComponent("DBConnection")

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.GetDSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Error(ctx, "Failed to open database", err, logger.Fields{"driver": cfg.Driver})
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("access sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	conn := &DBConnection{db: db, config: cfg, logger: log}
	if err := conn.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := conn.Migrate(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	log.Info(ctx, "Database connection initialized successfully", logger.Fields{
		"driver":   cfg.Driver,
		"database": cfg.Database,
	})
	return conn, nil
}

// DB returns the gorm handle used by the repositories.
func (c *DBConnection) DB() *gorm.DB {
	return c.db
}

// Migrate creates or updates the users, passwords, products and audit_events tables.
func (c *DBConnection) Migrate(ctx context.Context) error {
	if err := c.db.WithContext(ctx).AutoMigrate(&models.User{}, &models.Credential{}, &models.Product{}, &models.AuditEvent{}); err != nil {
		c.logger.Error(ctx, "Schema migration failed", err)
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity and responsiveness.
func (c *DBConnection) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		c.logger.Error(ctx, "Database ping failed", err)
		return fmt.Errorf("database ping: %w", err)
	}
	if latency := time.Since(start); latency > 100*time.Millisecond {
		c.logger.Warn(ctx, "High database latency detected", logger.Fields{"latency_ms": latency.Milliseconds()})
	}
	return nil
}

// HealthCheck performs a ping and reports pool statistics.
func (c *DBConnection) HealthCheck(ctx context.Context) (map[string]interface{}, error) {
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return nil, err
	}
	stats := sqlDB.Stats()
	return map[string]interface{}{
		"status":           "healthy",
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
	}, nil
}

// Close closes the underlying connection pool.
func (c *DBConnection) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	c.logger.Info(context.Background(), "Closing database connection pool")
	return sqlDB.Close()
}
