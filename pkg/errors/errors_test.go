package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
)

func TestAuthError_IsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("resolve: %w", ErrTokenRevoked.WithMessage("revoked at logout").WithCause(New("boom")))

	assert.True(t, Is(wrapped, ErrTokenRevoked))
	assert.False(t, Is(wrapped, ErrTokenExpired))
	assert.Equal(t, "revoked at logout: boom", ErrTokenRevoked.WithMessage("revoked at logout").WithCause(New("boom")).Error())
	assert.Equal(t, "Token has been revoked", ErrTokenRevoked.Error())
}

func TestAuthError_CopiesDoNotMutateSentinels(t *testing.T) {
	e := ErrForbidden.WithMetadata("role", "user")
	assert.Equal(t, "user", e.Metadata()["role"])
	assert.Empty(t, ErrForbidden.Metadata())
	assert.Nil(t, ErrForbidden.Unwrap())
}

func TestAuthError_GRPCCode(t *testing.T) {
	tests := []struct {
		err  *AuthError
		want codes.Code
	}{
		{ErrInvalidRequest, codes.InvalidArgument},
		{ErrTokenExpired, codes.Unauthenticated},
		{ErrForbidden, codes.PermissionDenied},
		{ErrNotFound, codes.NotFound},
		{ErrConflict, codes.AlreadyExists},
		{ErrRateLimitExceeded, codes.ResourceExhausted},
		{ErrStoreUnavailable, codes.Unavailable},
		{ErrInternal, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Code()), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.GRPCCode())
		})
	}
}

func TestFromCode(t *testing.T) {
	e, ok := FromCode(CodeTokenRevoked)
	assert.True(t, ok)
	assert.Same(t, ErrTokenRevoked, e)

	_, ok = FromCode("no_such_code")
	assert.False(t, ok)
}

func TestToResponse(t *testing.T) {
	status, resp := ToResponse(ErrStoreUnavailable.WithCause(New("dial tcp: refused")))
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "store_unavailable", resp.Error)
	assert.Nil(t, resp.Metadata)

	status, resp = ToResponse(New("unexpected"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal_error", resp.Error)

	_, resp = ToResponse(ErrForbidden.WithMetadata("reason", "forbidden_owner"))
	assert.Equal(t, "forbidden_owner", resp.Metadata["reason"])
}

func TestShouldLogError(t *testing.T) {
	assert.True(t, ShouldLogError(ErrInternal))
	assert.True(t, ShouldLogError(New("plain")))
	assert.False(t, ShouldLogError(ErrTokenExpired))
}
