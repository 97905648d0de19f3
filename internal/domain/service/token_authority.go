package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/errors"
	"github.com/turtacn/authgate/pkg/logger"
)

// Authority is the in-process TokenAuthority. It keeps no per-token state:
// validity is the codec's verdict overridden by membership in the revocation store.
// Authority 是进程内的令牌权威，不保存任何令牌状态。
type Authority struct {
	codec    TokenCodec
	store    RevocationStore
	audit    AuditService
	metrics  Metrics
	tracer   trace.Tracer
	logger   logger.Logger
	failOpen bool
}

var _ TokenAuthority = (*Authority)(nil)

// AuthorityOption customises an Authority.
type AuthorityOption func(*Authority)

// WithFailOpen sets the policy for an unreachable revocation store. When true
// the failure is logged and the token is treated as not revoked.
func WithFailOpen(failOpen bool) AuthorityOption {
	return func(a *Authority) { a.failOpen = failOpen }
}

// WithAudit publishes issuance and revocation events.
func WithAudit(audit AuditService) AuthorityOption {
	return func(a *Authority) { a.audit = audit }
}

// WithMetrics records operation metrics.
func WithMetrics(m Metrics) AuthorityOption {
	return func(a *Authority) { a.metrics = m }
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) AuthorityOption {
	return func(a *Authority) { a.tracer = t }
}

// NewTokenAuthority creates a new Authority. Fail-closed unless WithFailOpen(true).
func NewTokenAuthority(codec TokenCodec, store RevocationStore, log logger.Logger, opts ...AuthorityOption) *Authority {
	a := &Authority{
		codec:   codec,
		store:   store,
		metrics: NoopMetrics{},
		tracer:  otel.Tracer("authgate/authority"),
		logger:  log.WithComponent("TokenAuthority"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// IssueToken signs a new token for id. No state is written.
func (a *Authority) IssueToken(ctx context.Context, id models.PrincipalID) (string, error) {
	ctx, span := a.tracer.Start(ctx, "authority.IssueToken", trace.WithAttributes(attribute.Int64("principal_id", int64(id))))
	defer span.End()

	if id <= 0 {
		return "", errors.ErrInvalidRequest.WithMessage("principal id must be positive")
	}
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", errors.ErrInternal.WithCause(err)
	}

	start := time.Now()
	token, err := a.codec.Issue(ctx, id)
	a.metrics.RecordTokenIssue(err == nil, time.Since(start))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", errors.ErrInternal.WithCause(err)
	}

	a.publish(ctx, models.NewAuditEvent(constants.AuditEventTokenIssued, "success", "").WithPrincipal(id))
	return token, nil
}

// VerifyToken returns the token's verdict. The revocation store is consulted
// first; a revoked token is never handed to the codec. The error is non-nil
// only when the store could not answer under the fail-closed policy.
func (a *Authority) VerifyToken(ctx context.Context, token string) (models.Verdict, error) {
	ctx, span := a.tracer.Start(ctx, "authority.VerifyToken")
	defer span.End()

	_, verdict, err := a.check(ctx, token)
	span.SetAttributes(attribute.String("verdict", verdict.String()))
	a.metrics.RecordTokenVerify(verdict)
	return verdict, err
}

// ResolvePrincipal returns the principal of a valid token. Found is false
// for every other verdict, which is carried in the resolution.
func (a *Authority) ResolvePrincipal(ctx context.Context, token string) (models.Resolution, error) {
	ctx, span := a.tracer.Start(ctx, "authority.ResolvePrincipal")
	defer span.End()

	claims, verdict, err := a.check(ctx, token)
	span.SetAttributes(attribute.String("verdict", verdict.String()))
	a.metrics.RecordTokenVerify(verdict)
	if err != nil || !verdict.IsValid() {
		return models.Unresolved(verdict), err
	}
	return models.Resolved(claims.UserID), nil
}

// RevokeToken adds token to the revocation set without inspecting it, so
// expired or malformed tokens can be revoked too.
func (a *Authority) RevokeToken(ctx context.Context, token string) error {
	ctx, span := a.tracer.Start(ctx, "authority.RevokeToken")
	defer span.End()

	if token == "" {
		return errors.ErrTokenMissing
	}
	if err := ctx.Err(); err != nil {
		return errors.ErrStoreUnavailable.WithCause(err)
	}

	err := a.store.MarkRevoked(ctx, token)
	a.metrics.RecordTokenRevoke(err == nil)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		a.logger.Error(ctx, "Failed to revoke token", err, logger.Fields{"token": token})
		if errors.Is(err, errors.ErrStoreUnavailable) {
			return err
		}
		return errors.ErrStoreUnavailable.WithCause(err)
	}

	a.logger.Info(ctx, "Token revoked", logger.Fields{"token": token})
	a.publish(ctx, models.NewAuditEvent(constants.AuditEventTokenRevoked, "success", "").WithToken(token))
	return nil
}

func (a *Authority) check(ctx context.Context, token string) (*models.TokenClaims, models.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.VerdictUnavailable, errors.ErrStoreUnavailable.WithCause(err)
	}
	if token == "" {
		return nil, models.VerdictMalformed, nil
	}

	revoked, err := a.store.IsRevoked(ctx, token)
	switch {
	case err != nil && a.failOpen:
		a.logger.Warn(ctx, "Revocation store unavailable, treating token as not revoked", logger.Fields{"error": err.Error()})
	case err != nil:
		a.logger.Error(ctx, "Revocation store unavailable", err)
		if !errors.Is(err, errors.ErrStoreUnavailable) {
			err = errors.ErrStoreUnavailable.WithCause(err)
		}
		return nil, models.VerdictUnavailable, err
	case revoked:
		return nil, models.VerdictRevoked, nil
	}

	claims, verdict := a.codec.Parse(ctx, token)
	return claims, verdict, nil
}

func (a *Authority) publish(ctx context.Context, event *models.AuditEvent) {
	if a.audit == nil {
		return
	}
	if err := a.audit.LogEvent(ctx, event); err != nil {
		a.logger.Warn(ctx, "Failed to publish audit event", logger.Fields{
			"event_type": event.EventType,
			"error":      err.Error(),
		})
	}
}
