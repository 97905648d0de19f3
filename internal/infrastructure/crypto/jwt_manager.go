// Package crypto implements the HS256 token codec.
package crypto

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/internal/domain/service"
	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/logger"
)

// JWTManager signs and parses HS256 tokens with a single shared secret.
// It is immutable after construction and safe for concurrent use.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
	log    logger.Logger
}

var _ service.TokenCodec = (*JWTManager)(nil)

// Option customises a JWTManager.
type Option func(*JWTManager)

// WithClock replaces the wall clock, used by tests to move past expiry.
func WithClock(now func() time.Time) Option {
	return func(m *JWTManager) { m.now = now }
}

// NewJWTManager creates a new JWTManager. An empty or short secret is
// rejected here so that no request ever runs against a weak key.
func NewJWTManager(secret []byte, ttl time.Duration, log logger.Logger, opts ...Option) (*JWTManager, error) {
	if len(secret) < constants.MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", constants.MinSecretLength)
	}
	if ttl <= 0 {
		ttl = constants.DefaultTokenTTL
	}

	m := &JWTManager{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
		log:    log.WithComponent("JWTManager"),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		// Unused trailing bits must be zero so each signature has one spelling.
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(m.now),
	)
	return m, nil
}

// Issue creates and signs a new token for id.
func (m *JWTManager) Issue(ctx context.Context, id models.PrincipalID) (string, error) {
	now := m.now()
	claims := models.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		UserID: id,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		m.log.Error(ctx, "Failed to sign JWT", err)
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates signature, algorithm and expiry with no leeway.
// An authentic token past its expiry is Expired; anything else that fails is Malformed.
func (m *JWTManager) Parse(ctx context.Context, token string) (*models.TokenClaims, models.Verdict) {
	claims := &models.TokenClaims{}
	parsed, err := m.parser.ParseWithClaims(token, claims, m.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.VerdictExpired
		}
		m.log.Debug(ctx, "token rejected", logger.Fields{"reason": err.Error()})
		return nil, models.VerdictMalformed
	}
	if !parsed.Valid || claims.UserID <= 0 {
		return nil, models.VerdictMalformed
	}
	return claims, models.VerdictValid
}

func (m *JWTManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
	}
	return m.secret, nil
}
