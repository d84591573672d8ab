package repository

import (
	"context"

	"github.com/dutch3883/th-stray-sub000/internal/model"
	"gorm.io/gorm"
)

// AuditLogRepository persists audit log entries.
type AuditLogRepository interface {
	Save(ctx context.Context, entry *model.AuditLogModel) error
	FindByResourceID(ctx context.Context, resourceID string) ([]*model.AuditLogModel, error)
}

// auditLogRepository is the gorm implementation.
type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates the audit log repository.
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

// Save inserts an audit entry.
func (r *auditLogRepository) Save(ctx context.Context, entry *model.AuditLogModel) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

// FindByResourceID returns the audit trail of one resource, newest
// first.
func (r *auditLogRepository) FindByResourceID(ctx context.Context, resourceID string) ([]*model.AuditLogModel, error) {
	var rows []*model.AuditLogModel
	err := r.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
