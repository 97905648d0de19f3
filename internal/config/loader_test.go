package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("AUTHGATE_JWT_SECRET", testSecret)

	cfg, err := LoadConfig(writeConfig(t, "log:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, 24*time.Hour, cfg.JWT.TokenTTL)
	assert.False(t, cfg.Revocation.FailOpen, "revocation must fail closed by default")
	assert.True(t, cfg.Credentials.LegacyMD5)
	assert.False(t, cfg.RateLimit.LoginEnabled)
	assert.Equal(t, 50052, cfg.Server.GRPCPort)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, []string{"localhost:6379"}, cfg.Redis.Addresses)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: `+testSecret+`
  token_ttl: 2h
revocation:
  fail_open: true
credentials:
  legacy_md5: false
redis:
  addresses: ["cache:6380"]
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.JWT.TokenTTL)
	assert.True(t, cfg.Revocation.FailOpen)
	assert.False(t, cfg.Credentials.LegacyMD5)
	assert.Equal(t, []string{"cache:6380"}, cfg.Redis.Addresses)
}

func TestLoadConfig_LegacyEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)
	t.Setenv("REDIS_HOSTNAME", "redis")
	t.Setenv("AUTH_SERVICE_HOSTNAME", "auth")

	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, testSecret, cfg.JWT.Secret)
	assert.Equal(t, []string{"redis:6379"}, cfg.Redis.Addresses)
	assert.Equal(t, "auth:50052", cfg.Gateway.AuthAddr)
}

func TestLoadConfig_RejectsShortSecret(t *testing.T) {
	t.Setenv("AUTHGATE_JWT_SECRET", "short")

	_, err := LoadConfig(writeConfig(t, ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			JWT:      JWTConfig{Secret: testSecret, SecretSource: "config", TokenTTL: time.Hour},
			Redis:    RedisConfig{Mode: "standalone", Addresses: []string{"localhost:6379"}},
			Database: DatabaseConfig{Driver: "sqlite"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"vault source needs address", func(c *Config) { c.JWT.SecretSource = "vault" }, "vault.address"},
		{"unknown source", func(c *Config) { c.JWT.SecretSource = "kms" }, "secret_source"},
		{"zero ttl", func(c *Config) { c.JWT.TokenTTL = 0 }, "token_ttl"},
		{"sentinel needs master", func(c *Config) { c.Redis.Mode = "sentinel" }, "master_name"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mysql" }, "database.driver"},
		{"kafka needs brokers", func(c *Config) { c.Kafka.Enabled = true }, "kafka.brokers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
