package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/turtacn/authgate/pkg/constants"
)

// EnvPrefix is the prefix of every environment override, e.g. AUTHGATE_JWT_SECRET.
const EnvPrefix = "AUTHGATE"

// legacyEnv maps the variable names used by older deployments onto config keys.
var legacyEnv = map[string]string{
	"jwt.secret":        "JWT_SECRET_KEY",
	"redis.hostname":    "REDIS_HOSTNAME",
	"server.grpc_port":  "SERVER_PORT",
	"gateway.auth_host": "AUTH_SERVICE_HOSTNAME",
	"gateway.auth_port": "AUTH_SERVICE_PORT",
}

// LoadConfig loads the configuration from a .env file, an optional YAML file and environment variables.
// An empty configPath searches ./config.yaml and /etc/authgate/config.yaml.
func LoadConfig(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/authgate/")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Load from environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyLegacy(v, &cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", constants.DefaultGatewayHTTPPort)
	v.SetDefault("server.grpc_port", constants.DefaultAuthGRPCPort)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.enable_pprof", false)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "authgate")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.sqlite_path", "authgate.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.mode", "standalone")
	v.SetDefault("redis.addresses", []string{"localhost:6379"})
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")

	v.SetDefault("vault.mount_path", "secret")
	v.SetDefault("vault.secret_path", "authgate/jwt")
	v.SetDefault("vault.secret_key", "secret_key")

	v.SetDefault("jwt.secret_source", "config")
	v.SetDefault("jwt.token_ttl", constants.DefaultTokenTTL.String())

	v.SetDefault("revocation.fail_open", false)
	v.SetDefault("revocation.check_timeout", constants.RevocationCheckTimeout.String())

	v.SetDefault("credentials.legacy_md5", true)

	v.SetDefault("rate_limit.login_enabled", false)
	v.SetDefault("rate_limit.login_max_attempts", 5)
	v.SetDefault("rate_limit.login_window", "1m")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.audit_topic", "authgate.audit")
	v.SetDefault("kafka.write_timeout", "5s")
	v.SetDefault("kafka.required_acks", 1)
	v.SetDefault("kafka.batch_size", 100)
	v.SetDefault("kafka.batch_timeout", "1s")

	v.SetDefault("gateway.auth_timeout", "3s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "stdout")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("tracing.sample_rate", 1.0)
}

// applyLegacy folds the host-style variables of older deployments into the structured config.
func applyLegacy(v *viper.Viper, cfg *Config) {
	if host := v.GetString("redis.hostname"); host != "" {
		cfg.Redis.Addresses = []string{withDefaultPort(host, 6379)}
	}
	if host := v.GetString("gateway.auth_host"); host != "" && cfg.Gateway.AuthAddr == "" {
		port := v.GetInt("gateway.auth_port")
		if port == 0 {
			port = constants.DefaultAuthGRPCPort
		}
		cfg.Gateway.AuthAddr = fmt.Sprintf("%s:%d", host, port)
	}
}

func withDefaultPort(host string, port int) string {
	if strings.Contains(host, ":") {
		return host
	}
	return fmt.Sprintf("%s:%d", host, port)
}
