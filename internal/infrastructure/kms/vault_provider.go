// Package kms loads the token signing secret from HashiCorp Vault.
package kms

import (
	"context"
	"fmt"

	vault "github.com/hashicorp/vault/api"

	"github.com/turtacn/authgate/internal/config"
	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/logger"
)

// SecretSourceVault selects Vault as the signing secret source.
const SecretSourceVault = "vault"

// VaultProvider reads the HS256 signing secret from a KV v2 mount.
type VaultProvider struct {
	client *vault.Client
	config config.VaultConfig
	logger logger.Logger
}

// NewVaultProvider creates a new VaultProvider.
func NewVaultProvider(cfg config.VaultConfig, log logger.Logger) (*VaultProvider, error) {
	vc := vault.DefaultConfig()
	vc.Address = cfg.Address
	client, err := vault.NewClient(vc)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}
	return NewVaultProviderWithClient(client, cfg, log), nil
}

// NewVaultProviderWithClient wraps an existing Vault client.
func NewVaultProviderWithClient(client *vault.Client, cfg config.VaultConfig, log logger.Logger) *VaultProvider {
	return &VaultProvider{
		client: client,
		config: cfg,
		logger: log.WithComponent("VaultProvider"),
	}
}

// SigningSecret fetches the current signing secret.
func (p *VaultProvider) SigningSecret(ctx context.Context) ([]byte, error) {
	secret, err := p.client.KVv2(p.config.MountPath).Get(ctx, p.config.SecretPath)
	if err != nil {
		p.logger.Error(ctx, "Failed to read signing secret from Vault", err, logger.Fields{
			"mount": p.config.MountPath,
			"path":  p.config.SecretPath,
		})
		return nil, fmt.Errorf("read %s/%s: %w", p.config.MountPath, p.config.SecretPath, err)
	}

	raw, ok := secret.Data[p.config.SecretKey]
	if !ok {
		return nil, fmt.Errorf("vault secret %s has no key %q", p.config.SecretPath, p.config.SecretKey)
	}
	value, ok := raw.(string)
	if !ok || len(value) < constants.MinSecretLength {
		return nil, fmt.Errorf("vault secret %s/%s must be a string of at least %d characters",
			p.config.SecretPath, p.config.SecretKey, constants.MinSecretLength)
	}

	p.logger.Info(ctx, "Signing secret loaded from Vault", logger.Fields{"path": p.config.SecretPath})
	return []byte(value), nil
}

// LoadSigningSecret returns the signing secret from the configured source.
func LoadSigningSecret(ctx context.Context, cfg *config.Config, log logger.Logger) ([]byte, error) {
	if cfg.JWT.SecretSource != SecretSourceVault {
		return []byte(cfg.JWT.Secret), nil
	}
	p, err := NewVaultProvider(cfg.Vault, log)
	if err != nil {
		return nil, err
	}
	return p.SigningSecret(ctx)
}
