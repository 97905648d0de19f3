package service

import (
	"context"

	"github.com/turtacn/authgate/internal/domain/models"
	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/errors"
	"github.com/turtacn/authgate/pkg/logger"
)

// Enforcer gates protected operations: token → principal → role → policy.
// The role is loaded from the directory on every request so role changes and
// deletions take effect immediately.
// Enforcer 在每次请求时重新加载角色，角色变更立即生效。
type Enforcer struct {
	authority TokenAuthority
	users     UserDirectory
	audit     AuditService
	metrics   Metrics
	logger    logger.Logger
}

// NewEnforcer creates a new Enforcer. audit and metrics may be nil.
func NewEnforcer(authority TokenAuthority, users UserDirectory, audit AuditService, metrics Metrics, log logger.Logger) *Enforcer {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Enforcer{
		authority: authority,
		users:     users,
		audit:     audit,
		metrics:   metrics,
		logger:    log.WithComponent("Enforcer"),
	}
}

// Authorize runs the state machine NoToken → TokenChecked → RoleChecked → Allowed|Denied.
func (e *Enforcer) Authorize(ctx context.Context, req models.AccessRequest) models.Decision {
	d := e.authorize(ctx, req)
	e.metrics.RecordAuthorization(d)
	if !d.Allowed {
		e.logger.Info(ctx, "Request denied", logger.Fields{
			"reason":       d.Reason,
			"verdict":      d.Verdict,
			"principal_id": d.PrincipalID,
		})
		e.publishDenial(ctx, req.Token, d)
	}
	return d
}

func (e *Enforcer) authorize(ctx context.Context, req models.AccessRequest) models.Decision {
	if req.Token == "" {
		d := models.Deny(models.ReasonMissingToken, "")
		d.State = models.StateNoToken
		return d
	}

	res, err := e.authority.ResolvePrincipal(ctx, req.Token)
	if err != nil {
		return models.Deny(models.ReasonUnavailable, models.VerdictUnavailable)
	}
	if !res.Found {
		if res.Verdict == models.VerdictUnavailable {
			return models.Deny(models.ReasonUnavailable, res.Verdict)
		}
		return models.Deny(models.ReasonInvalidToken, res.Verdict)
	}

	user, err := e.users.FindByID(ctx, res.PrincipalID)
	if err != nil {
		reason := models.ReasonUnavailable
		if errors.Is(err, errors.ErrNotFound) {
			reason = models.ReasonPrincipalNotFound
		} else {
			e.logger.Error(ctx, "User directory lookup failed", err, logger.Fields{"principal_id": res.PrincipalID})
		}
		d := models.Deny(reason, models.VerdictValid)
		d.State = models.StateTokenChecked
		d.PrincipalID = res.PrincipalID
		return d
	}

	return EvaluatePolicy(res.PrincipalID, user.Role, req.AllowedRoles, req.Owner)
}

// EvaluatePolicy is the pure authorization policy. An empty required set admits
// any role; an owner rule additionally requires the principal to own the
// resource unless its role is listed in the rule's bypass roles.
func EvaluatePolicy(principal models.PrincipalID, role constants.Role, required []constants.Role, owner *models.OwnerRule) models.Decision {
	deny := func(reason models.DenialReason) models.Decision {
		d := models.Deny(reason, models.VerdictValid)
		d.State = models.StateRoleChecked
		d.PrincipalID = principal
		d.Role = role
		return d
	}

	if len(required) > 0 && !containsRole(required, role) {
		return deny(models.ReasonForbiddenRole)
	}
	if owner != nil && owner.OwnerID != principal && !containsRole(owner.BypassRoles, role) {
		return deny(models.ReasonForbiddenOwner)
	}
	return models.Allow(principal, role)
}

func containsRole(roles []constants.Role, role constants.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func (e *Enforcer) publishDenial(ctx context.Context, token string, d models.Decision) {
	if e.audit == nil {
		return
	}
	event := models.NewAuditEvent(constants.AuditEventAuthorizationDenied, "failure", string(d.Reason)).WithToken(token)
	if d.PrincipalID != 0 {
		event.WithPrincipal(d.PrincipalID)
	}
	if err := e.audit.LogEvent(ctx, event); err != nil {
		e.logger.Warn(ctx, "Failed to publish audit event", logger.Fields{"error": err.Error()})
	}
}
