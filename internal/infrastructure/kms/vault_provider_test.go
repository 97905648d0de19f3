package kms_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/authgate/internal/config"
	"github.com/turtacn/authgate/internal/infrastructure/kms"
	"github.com/turtacn/authgate/pkg/logger"
)

func newVaultServer(t *testing.T, data map[string]interface{}) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/secret/data/authgate/jwt" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		assert.Equal(t, "root-token", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{
				"data":     data,
				"metadata": map[string]interface{}{"version": 3},
			},
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func vaultConfig(addr string) config.VaultConfig {
	return config.VaultConfig{
		Address:    addr,
		Token:      "root-token",
		MountPath:  "secret",
		SecretPath: "authgate/jwt",
		SecretKey:  "secret_key",
	}
}

func TestVaultProvider_SigningSecret(t *testing.T) {
	ts := newVaultServer(t, map[string]interface{}{"secret_key": "vault-held-secret-0123456789"})

	p, err := kms.NewVaultProvider(vaultConfig(ts.URL), logger.NewNoopLogger())
	require.NoError(t, err)

	secret, err := p.SigningSecret(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte("vault-held-secret-0123456789"), secret)
}

func TestVaultProvider_Rejections(t *testing.T) {
	tests := []struct {
		name string
		data map[string]interface{}
		path string
	}{
		{"missing key", map[string]interface{}{"other": "vault-held-secret-0123456789"}, "authgate/jwt"},
		{"short secret", map[string]interface{}{"secret_key": "short"}, "authgate/jwt"},
		{"non-string secret", map[string]interface{}{"secret_key": 42}, "authgate/jwt"},
		{"unknown path", map[string]interface{}{"secret_key": "vault-held-secret-0123456789"}, "authgate/missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newVaultServer(t, tt.data)
			cfg := vaultConfig(ts.URL)
			cfg.SecretPath = tt.path

			p, err := kms.NewVaultProvider(cfg, logger.NewNoopLogger())
			require.NoError(t, err)

			_, err = p.SigningSecret(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestLoadSigningSecret(t *testing.T) {
	cfg := &config.Config{JWT: config.JWTConfig{Secret: "config-held-secret-0123456789"}}
	secret, err := kms.LoadSigningSecret(context.Background(), cfg, logger.NewNoopLogger())
	require.NoError(t, err)
	assert.Equal(t, []byte("config-held-secret-0123456789"), secret)

	ts := newVaultServer(t, map[string]interface{}{"secret_key": "vault-held-secret-0123456789"})
	cfg.JWT.SecretSource = kms.SecretSourceVault
	cfg.Vault = vaultConfig(ts.URL)
	secret, err = kms.LoadSigningSecret(context.Background(), cfg, logger.NewNoopLogger())
	require.NoError(t, err)
	assert.Equal(t, []byte("vault-held-secret-0123456789"), secret)
}
