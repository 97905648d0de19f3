// Package redis provides Redis-backed implementations of domain interfaces.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/authgate/internal/domain/service"
	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/errors"
)

// revocationStore keeps revoked raw tokens in a single Redis set. Entries
// never expire and are never removed here.
type revocationStore struct {
	client  redis.UniversalClient
	key     string
	timeout time.Duration
}

// NewRevocationStore creates a Redis-backed RevocationStore. timeout bounds
// each round trip when the caller's context carries no deadline.
func NewRevocationStore(client redis.UniversalClient, timeout time.Duration) service.RevocationStore {
	if timeout <= 0 {
		timeout = constants.RevocationCheckTimeout
	}
	return &revocationStore{
		client:  client,
		key:     constants.RevokedTokensSet,
		timeout: timeout,
	}
}

// MarkRevoked adds token to the revoked set. Re-adding is a no-op.
func (s *revocationStore) MarkRevoked(ctx context.Context, token string) error {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.client.SAdd(ctx, s.key, token).Err(); err != nil {
		return errors.ErrStoreUnavailable.WithCause(err)
	}
	return nil
}

// IsRevoked asks Redis on every call; results are never cached.
func (s *revocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	member, err := s.client.SIsMember(ctx, s.key, token).Result()
	if err != nil {
		return false, errors.ErrStoreUnavailable.WithCause(err)
	}
	return member, nil
}

func (s *revocationStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}
