// Package errors defines custom error types and error handling utilities for the authgate services.
// This package provides structured error types that map to HTTP status codes and gRPC codes.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a stable, machine-readable error code.
type Code string

const (
	CodeTokenMalformed     Code = "token_malformed"
	CodeTokenExpired       Code = "token_expired"
	CodeTokenRevoked       Code = "token_revoked"
	CodeTokenMissing       Code = "token_missing"
	CodeStoreUnavailable   Code = "store_unavailable"
	CodeForbidden          Code = "forbidden"
	CodePrincipalNotFound  Code = "principal_not_found"
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeInvalidRequest     Code = "invalid_request"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeRateLimitExceeded  Code = "rate_limit_exceeded"
	CodeInternal           Code = "internal_error"
)

// ================================================================================
// AuthError
// ================================================================================

// AuthError is a structured error carrying a code, a transport status and optional cause.
type AuthError struct {
	code        Code
	httpStatus  int
	description string
	message     string
	cause       error
	metadata    map[string]interface{}
}

// NewError creates a new AuthError.
func NewError(code Code, httpStatus int, description, message string) *AuthError {
	return &AuthError{
		code:        code,
		httpStatus:  httpStatus,
		description: description,
		message:     message,
	}
}

// Error implements the error interface
func (e *AuthError) Error() string {
	msg := e.message
	if msg == "" {
		msg = e.description
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Code returns the error code
func (e *AuthError) Code() Code { return e.code }

// HTTPStatus returns the HTTP status code
func (e *AuthError) HTTPStatus() int { return e.httpStatus }

// Description returns a human-readable description
func (e *AuthError) Description() string { return e.description }

// Unwrap returns the underlying cause
func (e *AuthError) Unwrap() error { return e.cause }

// Metadata returns attached metadata
func (e *AuthError) Metadata() map[string]interface{} { return e.metadata }

// Is reports whether target is an AuthError with the same code, so
// wrapped copies still match the package sentinels with errors.Is.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return t.code == e.code
}

// WithCause returns a copy of the error with the cause attached.
func (e *AuthError) WithCause(cause error) *AuthError {
	cp := e.clone()
	cp.cause = cause
	return cp
}

// WithMessage returns a copy of the error with a specific message.
func (e *AuthError) WithMessage(format string, args ...interface{}) *AuthError {
	cp := e.clone()
	cp.message = fmt.Sprintf(format, args...)
	return cp
}

// WithMetadata returns a copy of the error with an extra metadata entry.
func (e *AuthError) WithMetadata(key string, value interface{}) *AuthError {
	cp := e.clone()
	cp.metadata[key] = value
	return cp
}

// GRPCCode maps the error to a gRPC status code.
func (e *AuthError) GRPCCode() codes.Code {
	switch e.httpStatus {
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.AlreadyExists
	case http.StatusTooManyRequests:
		return codes.ResourceExhausted
	case http.StatusServiceUnavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

func (e *AuthError) clone() *AuthError {
	md := make(map[string]interface{}, len(e.metadata)+1)
	for k, v := range e.metadata {
		md[k] = v
	}
	return &AuthError{
		code:        e.code,
		httpStatus:  e.httpStatus,
		description: e.description,
		message:     e.message,
		cause:       e.cause,
		metadata:    md,
	}
}

// ================================================================================
// Predefined Errors
// ================================================================================

var (
	// ErrTokenMalformed is returned for tokens failing structural or signature validation.
	ErrTokenMalformed = NewError(CodeTokenMalformed, http.StatusUnauthorized, "Token is malformed or its signature is invalid", "")
	// ErrTokenExpired is returned for structurally valid tokens past their expiry.
	ErrTokenExpired = NewError(CodeTokenExpired, http.StatusUnauthorized, "Token has expired", "")
	// ErrTokenRevoked is returned for explicitly revoked tokens.
	ErrTokenRevoked = NewError(CodeTokenRevoked, http.StatusUnauthorized, "Token has been revoked", "")
	// ErrTokenMissing is returned when a protected operation receives no token.
	ErrTokenMissing = NewError(CodeTokenMissing, http.StatusUnauthorized, "Token not provided", "")
	// ErrStoreUnavailable is returned when the revocation store cannot be reached.
	ErrStoreUnavailable = NewError(CodeStoreUnavailable, http.StatusServiceUnavailable, "Revocation store is unavailable", "")
	// ErrForbidden is returned when a valid identity fails the role or ownership policy.
	ErrForbidden = NewError(CodeForbidden, http.StatusForbidden, "Insufficient permissions for this operation", "")
	// ErrPrincipalNotFound is returned when a resolved principal has no record.
	ErrPrincipalNotFound = NewError(CodePrincipalNotFound, http.StatusUnauthorized, "Principal not found", "")
	// ErrInvalidCredentials is returned when a name/secret pair does not authenticate.
	ErrInvalidCredentials = NewError(CodeInvalidCredentials, http.StatusUnauthorized, "Invalid username or password", "")
	// ErrInvalidRequest is returned for malformed client input.
	ErrInvalidRequest = NewError(CodeInvalidRequest, http.StatusBadRequest, "The request is malformed", "")
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = NewError(CodeNotFound, http.StatusNotFound, "Resource not found", "")
	// ErrConflict is returned when a unique resource already exists.
	ErrConflict = NewError(CodeConflict, http.StatusConflict, "Resource already exists", "")
	// ErrRateLimitExceeded is returned when a caller exceeded its request budget.
	ErrRateLimitExceeded = NewError(CodeRateLimitExceeded, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", "")
	// ErrInternal is returned for unexpected server-side failures.
	ErrInternal = NewError(CodeInternal, http.StatusInternalServerError, "An unexpected error occurred", "")
)

var registry = map[Code]*AuthError{}

func init() {
	for _, e := range []*AuthError{
		ErrTokenMalformed, ErrTokenExpired, ErrTokenRevoked, ErrTokenMissing,
		ErrStoreUnavailable, ErrForbidden, ErrPrincipalNotFound, ErrInvalidCredentials,
		ErrInvalidRequest, ErrNotFound, ErrConflict, ErrRateLimitExceeded, ErrInternal,
	} {
		registry[e.code] = e
	}
}

// FromCode returns the predefined error registered for code.
func FromCode(code Code) (*AuthError, bool) {
	e, ok := registry[code]
	return e, ok
}

// ================================================================================
// Error Utilities
// ================================================================================

// Is is errors.Is re-exported so callers need a single errors import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As is errors.As re-exported so callers need a single errors import.
func As(err error, target interface{}) bool { return stderrors.As(err, target) }

// New is errors.New re-exported.
func New(text string) error { return stderrors.New(text) }

// AsAuthError extracts an AuthError from an error chain.
func AsAuthError(err error) (*AuthError, bool) {
	var ae *AuthError
	if stderrors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// FromError converts any error into an AuthError, defaulting to ErrInternal.
func FromError(err error) *AuthError {
	if err == nil {
		return nil
	}
	if ae, ok := AsAuthError(err); ok {
		return ae
	}
	return ErrInternal.WithCause(err)
}

// ================================================================================
// Error Response Builder
// ================================================================================

// ErrorResponse represents the JSON structure for error responses
type ErrorResponse struct {
	Error            string                 `json:"error"`
	ErrorDescription string                 `json:"error_description"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// ToResponse converts any error to an ErrorResponse and its HTTP status.
func ToResponse(err error) (int, *ErrorResponse) {
	ae := FromError(err)
	resp := &ErrorResponse{
		Error:            string(ae.Code()),
		ErrorDescription: ae.Description(),
	}
	if len(ae.Metadata()) > 0 {
		resp.Metadata = ae.Metadata()
	}
	return ae.HTTPStatus(), resp
}

// ShouldLogError determines if an error should be logged at error level.
func ShouldLogError(err error) bool {
	if ae, ok := AsAuthError(err); ok {
		return ae.HTTPStatus() >= 500
	}
	return true
}
