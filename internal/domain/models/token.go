// Package models defines the domain models for the authgate services.
package models

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/turtacn/authgate/pkg/errors"
)

// TokenClaims is the payload of an issued token: the principal plus the
// registered exp and iat claims.
// TokenClaims 是已颁发令牌的载荷：主体标识加上注册声明 exp 与 iat。
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID PrincipalID `json:"user_id"`
}

// Verdict is the outcome of checking a token.
type Verdict string

const (
	VerdictValid       Verdict = "valid"
	VerdictExpired     Verdict = "expired"
	VerdictMalformed   Verdict = "malformed"
	VerdictRevoked     Verdict = "revoked"
	VerdictUnavailable Verdict = "unavailable"
)

// String implements fmt.Stringer
func (v Verdict) String() string { return string(v) }

// IsValid reports whether the verdict admits the token.
func (v Verdict) IsValid() bool { return v == VerdictValid }

// Err maps a non-valid verdict to its error. Valid maps to nil.
func (v Verdict) Err() error {
	switch v {
	case VerdictValid:
		return nil
	case VerdictExpired:
		return errors.ErrTokenExpired
	case VerdictRevoked:
		return errors.ErrTokenRevoked
	case VerdictUnavailable:
		return errors.ErrStoreUnavailable
	default:
		return errors.ErrTokenMalformed
	}
}

// VerdictFromError recovers the verdict carried by an error returned from
// a token operation, defaulting to malformed for unknown errors.
func VerdictFromError(err error) Verdict {
	switch {
	case err == nil:
		return VerdictValid
	case errors.Is(err, errors.ErrTokenExpired):
		return VerdictExpired
	case errors.Is(err, errors.ErrTokenRevoked):
		return VerdictRevoked
	case errors.Is(err, errors.ErrStoreUnavailable):
		return VerdictUnavailable
	default:
		return VerdictMalformed
	}
}

// Resolution is the tagged result of resolving a token to its principal.
// Found is true only when Verdict is valid; PrincipalID is meaningless otherwise.
type Resolution struct {
	Found       bool
	PrincipalID PrincipalID
	Verdict     Verdict
}

// Resolved returns a successful resolution.
func Resolved(id PrincipalID) Resolution {
	return Resolution{Found: true, PrincipalID: id, Verdict: VerdictValid}
}

// Unresolved returns a failed resolution carrying the reason.
func Unresolved(v Verdict) Resolution {
	return Resolution{Verdict: v}
}
