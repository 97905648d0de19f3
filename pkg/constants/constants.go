// Package constants defines system-wide constants for the authgate services.
// This package provides type-safe constant definitions used across all modules.
package constants

import "time"

// ================================================================================
// Token Constants
// ================================================================================

const (
	// DefaultTokenTTL is the fixed validity window of an issued bearer token (24 hours)
	DefaultTokenTTL = 24 * time.Hour

	// MinSecretLength is the minimum accepted length of the HS256 signing secret
	MinSecretLength = 16

	// ClaimPrincipalID is the JWT claim carrying the principal identifier
	ClaimPrincipalID = "user_id"

	// TokenHeader is the request header / metadata key carrying the bearer token
	TokenHeader = "token"

	// AuthorizationHeader is the standard HTTP authorization header
	AuthorizationHeader = "Authorization"

	// BearerScheme is the authorization scheme prefix accepted by the gateway
	BearerScheme = "Bearer"
)

// ================================================================================
// Revocation Store Constants
// ================================================================================

const (
	// RevokedTokensSet is the logical set name holding revoked raw tokens
	RevokedTokensSet = "revoked_tokens"

	// RevocationCheckTimeout bounds a single membership round trip when the caller has no deadline
	RevocationCheckTimeout = 2 * time.Second
)

// ================================================================================
// Role Constants
// ================================================================================

// Role is the authorization role stored on a principal record
type Role string

const (
	// RoleUser is the default role for newly created principals
	RoleUser Role = "user"

	// RoleAdmin grants administrative operations
	RoleAdmin Role = "admin"
)

// ================================================================================
// Service Names
// ================================================================================

const (
	// ServiceNameAuth is the service name of the token authority
	ServiceNameAuth = "authgate-auth"

	// ServiceNameGateway is the service name of the HTTP gateway
	ServiceNameGateway = "authgate-gateway"

	// DefaultAuthGRPCPort is the gRPC port of the token authority
	DefaultAuthGRPCPort = 50052

	// DefaultGatewayHTTPPort is the HTTP port of the gateway
	DefaultGatewayHTTPPort = 8080
)

// ================================================================================
// Context Keys
// ================================================================================

// ContextKey is the type used for values stored in context.Context
type ContextKey string

const (
	// ContextKeyRequestID holds the per-request correlation identifier
	ContextKeyRequestID ContextKey = "request_id"

	// ContextKeyTraceID holds the OpenTelemetry trace identifier
	ContextKeyTraceID ContextKey = "trace_id"

	// ContextKeyPrincipalID holds the resolved principal of an authorized request
	ContextKeyPrincipalID ContextKey = "principal_id"

	// ContextKeyRole holds the role loaded for an authorized request
	ContextKeyRole ContextKey = "role"
)

// ================================================================================
// Audit Event Types
// ================================================================================

// AuditEventType classifies events sent to the audit stream
type AuditEventType string

const (
	AuditEventTokenIssued          AuditEventType = "token.issued"
	AuditEventTokenRevoked         AuditEventType = "token.revoked"
	AuditEventAuthenticationFailed AuditEventType = "authentication.failed"
	AuditEventAuthorizationDenied  AuditEventType = "authorization.denied"
)
