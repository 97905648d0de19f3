package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/authgate/pkg/constants"
)

// AuditEvent is a single security-relevant event published to the audit stream.
// Raw tokens never appear in an event; TokenHint carries a truncated SHA-256
// fingerprint that correlates events for the same token.
type AuditEvent struct {
	EventID     uuid.UUID                `gorm:"type:varchar(36);primaryKey" json:"event_id"`
	EventType   constants.AuditEventType `gorm:"type:varchar(64);not null;index" json:"event_type"`
	PrincipalID *PrincipalID             `gorm:"index" json:"principal_id,omitempty"`
	Result      string                   `gorm:"type:varchar(16);not null" json:"result"`
	Reason      string                   `gorm:"type:varchar(64)" json:"reason,omitempty"`
	TokenHint   string                   `gorm:"type:varchar(16)" json:"token_hint,omitempty"`
	IPAddress   string                   `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	TraceID     string                   `gorm:"type:varchar(32)" json:"trace_id,omitempty"`
	Timestamp   time.Time                `gorm:"not null;index" json:"timestamp"`
}

// TableName specifies the table name for GORM
func (AuditEvent) TableName() string {
	return "audit_events"
}

// NewAuditEvent creates a new audit event.
func NewAuditEvent(eventType constants.AuditEventType, result, reason string) *AuditEvent {
	return &AuditEvent{
		EventID:   uuid.New(),
		EventType: eventType,
		Result:    result,
		Reason:    reason,
		Timestamp: time.Now().UTC(),
	}
}

// WithPrincipal sets the principal for the audit event.
func (a *AuditEvent) WithPrincipal(id PrincipalID) *AuditEvent {
	a.PrincipalID = &id
	return a
}

// WithToken records a short, non-replayable fingerprint of the token.
func (a *AuditEvent) WithToken(token string) *AuditEvent {
	if token != "" {
		a.TokenHint = TokenFingerprint(token)
	}
	return a
}

// TokenFingerprint returns the first 8 bytes of the token's SHA-256 digest, hex encoded.
func TokenFingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

// WithContextInfo sets context-related information.
func (a *AuditEvent) WithContextInfo(ip, traceID string) *AuditEvent {
	a.IPAddress = ip
	a.TraceID = traceID
	return a
}
