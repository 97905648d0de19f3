package service

import (
	"context"

	"github.com/turtacn/authgate/internal/domain/models"
)

// TokenCodec signs and parses bearer tokens. It holds no per-token state.
// TokenCodec 负责签发与解析令牌，不保存任何令牌状态。
type TokenCodec interface {
	// Issue returns a signed token for id expiring after the configured validity window.
	Issue(ctx context.Context, id models.PrincipalID) (string, error)

	// Parse checks signature, algorithm and expiry. Claims are non-nil only for a valid verdict.
	Parse(ctx context.Context, token string) (*models.TokenClaims, models.Verdict)
}

// RevocationStore is the shared set of revoked raw tokens.
// RevocationStore 是共享的已撤销令牌集合。
type RevocationStore interface {
	// MarkRevoked adds token to the set. Idempotent.
	MarkRevoked(ctx context.Context, token string) error

	// IsRevoked reports membership. Every call reaches the backing store.
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// TokenAuthority issues, verifies, resolves and revokes tokens.
// Both the in-process authority and the gRPC client implement it.
type TokenAuthority interface {
	IssueToken(ctx context.Context, id models.PrincipalID) (string, error)
	VerifyToken(ctx context.Context, token string) (models.Verdict, error)
	ResolvePrincipal(ctx context.Context, token string) (models.Resolution, error)
	RevokeToken(ctx context.Context, token string) error
}

// UserDirectory loads principal records. FindByID returns errors.ErrNotFound for
// unknown or soft-deleted principals.
type UserDirectory interface {
	FindByID(ctx context.Context, id models.PrincipalID) (*models.User, error)
}

// CredentialRepository loads a user together with its stored digests.
type CredentialRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// AuditService publishes audit events. Failures never change an auth outcome.
type AuditService interface {
	LogEvent(ctx context.Context, event *models.AuditEvent) error
}

// RateLimiter answers whether key may perform one more attempt.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
