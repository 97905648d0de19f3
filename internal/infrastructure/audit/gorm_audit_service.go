package audit

import (
	"context"

	"gorm.io/gorm"

	"github.com/turtacn/authgate/internal/domain/models"
)

// GormAuditService stores audit events in the audit_events table.
// It is the sink used when Kafka is disabled.
type GormAuditService struct {
	db *gorm.DB
}

// NewGormAuditService creates and configures a new GormAuditService.
func NewGormAuditService(db *gorm.DB) *GormAuditService {
	return &GormAuditService{db: db}
}

// LogEvent saves an AuditEvent to the database.
func (s *GormAuditService) LogEvent(ctx context.Context, event *models.AuditEvent) error {
	return s.db.WithContext(ctx).Create(event).Error
}
