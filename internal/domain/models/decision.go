package models

import (
	"github.com/turtacn/authgate/pkg/constants"
	"github.com/turtacn/authgate/pkg/errors"
)

// DenialReason names why the enforcer refused a request.
type DenialReason string

const (
	ReasonNone              DenialReason = ""
	ReasonMissingToken      DenialReason = "missing_token"
	ReasonInvalidToken      DenialReason = "invalid_token"
	ReasonPrincipalNotFound DenialReason = "principal_not_found"
	ReasonForbiddenRole     DenialReason = "forbidden_role"
	ReasonForbiddenOwner    DenialReason = "forbidden_owner"
	ReasonUnavailable       DenialReason = "unavailable"
)

// EnforcementState tracks how far a request travelled through the enforcer.
type EnforcementState string

const (
	StateNoToken      EnforcementState = "no_token"
	StateTokenChecked EnforcementState = "token_checked"
	StateRoleChecked  EnforcementState = "role_checked"
	StateAllowed      EnforcementState = "allowed"
	StateDenied       EnforcementState = "denied"
)

// OwnerRule binds an operation to the principal owning the target resource.
// Principals holding one of BypassRoles may act on resources they do not own.
type OwnerRule struct {
	OwnerID     PrincipalID
	BypassRoles []constants.Role
}

// AccessRequest describes a protected operation: the presented token, the
// roles allowed to perform it and, for owner-bound operations, the owner.
// An empty AllowedRoles admits any authenticated principal.
type AccessRequest struct {
	Token        string
	AllowedRoles []constants.Role
	Owner        *OwnerRule
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed     bool
	State       EnforcementState
	Reason      DenialReason
	Verdict     Verdict
	PrincipalID PrincipalID
	Role        constants.Role
}

// Allow builds an allowing decision.
func Allow(id PrincipalID, role constants.Role) Decision {
	return Decision{Allowed: true, State: StateAllowed, Verdict: VerdictValid, PrincipalID: id, Role: role}
}

// Deny builds a denying decision.
func Deny(reason DenialReason, verdict Verdict) Decision {
	return Decision{State: StateDenied, Reason: reason, Verdict: verdict}
}

// Err converts a denial into the error surfaced to transports. Allowed decisions return nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case ReasonMissingToken:
		return errors.ErrTokenMissing
	case ReasonInvalidToken:
		return d.Verdict.Err()
	case ReasonPrincipalNotFound:
		return errors.ErrPrincipalNotFound
	case ReasonForbiddenRole:
		return errors.ErrForbidden.WithMessage("role %q is not permitted", d.Role)
	case ReasonForbiddenOwner:
		return errors.ErrForbidden.WithMessage("principal %d does not own the resource", d.PrincipalID)
	case ReasonUnavailable:
		return errors.ErrStoreUnavailable
	default:
		return errors.ErrInternal
	}
}
