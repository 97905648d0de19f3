package config

import (
	"fmt"
	"time"

	"github.com/turtacn/authgate/pkg/constants"
)

// Config holds the application's configuration. It is loaded once at startup
// and never mutated afterwards.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Vault       VaultConfig       `mapstructure:"vault"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Revocation  RevocationConfig  `mapstructure:"revocation"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Kafka       KafkaConfig       `mapstructure:"kafka"`
	Gateway     GatewayConfig     `mapstructure:"gateway"`
	Log         LogConfig         `mapstructure:"log"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
}

type ServerConfig struct {
	Host               string        `mapstructure:"host"`
	HTTPPort           int           `mapstructure:"http_port"`
	GRPCPort           int           `mapstructure:"grpc_port"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	EnablePprof        bool          `mapstructure:"enable_pprof"`
	CORSAllowedOrigins []string      `mapstructure:"cors_allowed_origins"`
}

// HTTPAddr returns the gateway listen address.
func (c ServerConfig) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// GRPCAddr returns the token authority listen address.
func (c ServerConfig) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.GRPCPort)
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres | sqlite
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	SQLitePath      string        `mapstructure:"sqlite_path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

type RedisConfig struct {
	Mode         string        `mapstructure:"mode"` // standalone | cluster | sentinel
	Addresses    []string      `mapstructure:"addresses"`
	MasterName   string        `mapstructure:"master_name"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type VaultConfig struct {
	Address    string `mapstructure:"address"`
	Token      string `mapstructure:"token"`
	MountPath  string `mapstructure:"mount_path"`
	SecretPath string `mapstructure:"secret_path"`
	SecretKey  string `mapstructure:"secret_key"`
}

// JWTConfig configures the token codec. SecretSource selects where the
// signing secret comes from: "config" uses Secret, "vault" reads it from Vault.
type JWTConfig struct {
	Secret       string        `mapstructure:"secret"`
	SecretSource string        `mapstructure:"secret_source"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

type RevocationConfig struct {
	// FailOpen treats an unreachable store as "not revoked" instead of rejecting the token.
	FailOpen     bool          `mapstructure:"fail_open"`
	CheckTimeout time.Duration `mapstructure:"check_timeout"`
}

type CredentialsConfig struct {
	// LegacyMD5 accepts a matching MD5 digest in addition to SHA-256.
	LegacyMD5 bool `mapstructure:"legacy_md5"`
}

type RateLimitConfig struct {
	LoginEnabled     bool          `mapstructure:"login_enabled"`
	LoginMaxAttempts int           `mapstructure:"login_max_attempts"`
	LoginWindow      time.Duration `mapstructure:"login_window"`
}

type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	AuditTopic   string        `mapstructure:"audit_topic"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	RequiredAcks int           `mapstructure:"required_acks"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	// SigningKey, when set, HMAC-signs every published event.
	SigningKey   string        `mapstructure:"signing_key"`
}

// GatewayConfig controls how the HTTP gateway reaches the token authority.
// An empty AuthAddr embeds the authority in the gateway process.
type GatewayConfig struct {
	AuthAddr    string        `mapstructure:"auth_addr"`
	AuthTimeout time.Duration `mapstructure:"auth_timeout"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	SampleRate     float64 `mapstructure:"sample_rate"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	switch c.JWT.SecretSource {
	case "", "config":
		if len(c.JWT.Secret) < constants.MinSecretLength {
			return fmt.Errorf("jwt.secret must be at least %d characters", constants.MinSecretLength)
		}
	case "vault":
		if c.Vault.Address == "" || c.Vault.SecretPath == "" {
			return fmt.Errorf("vault.address and vault.secret_path are required when jwt.secret_source is vault")
		}
	default:
		return fmt.Errorf("unknown jwt.secret_source %q", c.JWT.SecretSource)
	}
	if c.JWT.TokenTTL <= 0 {
		return fmt.Errorf("jwt.token_ttl must be positive")
	}
	if len(c.Redis.Addresses) == 0 {
		return fmt.Errorf("redis.addresses must not be empty")
	}
	switch c.Redis.Mode {
	case "standalone", "cluster":
	case "sentinel":
		if c.Redis.MasterName == "" {
			return fmt.Errorf("redis.master_name is required in sentinel mode")
		}
	default:
		return fmt.Errorf("unknown redis.mode %q", c.Redis.Mode)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers must not be empty when kafka is enabled")
	}
	if c.RateLimit.LoginEnabled && (c.RateLimit.LoginMaxAttempts <= 0 || c.RateLimit.LoginWindow <= 0) {
		return fmt.Errorf("rate_limit.login_max_attempts and rate_limit.login_window must be positive")
	}
	return nil
}
