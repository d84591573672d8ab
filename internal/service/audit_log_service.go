package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dutch3883/th-stray-sub000/internal/model"
	"github.com/dutch3883/th-stray-sub000/internal/repository"
	"github.com/google/uuid"
)

// AuditLogService records who invoked which operation.
type AuditLogService interface {
	RecordAction(ctx context.Context, userID string, action string, resourceType string, resourceID string, details interface{}) error
}

// auditLogService is the repository-backed implementation.
type auditLogService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditLogService creates the audit log service.
func NewAuditLogService(auditRepo repository.AuditLogRepository) AuditLogService {
	return &auditLogService{auditRepo: auditRepo}
}

// RecordAction writes one audit entry, picking request id, client ip
// and user agent off the request context where the middleware put them.
func (s *auditLogService) RecordAction(
	ctx context.Context,
	userID string,
	action string,
	resourceType string,
	resourceID string,
	details interface{},
) error {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}

	entry := &model.AuditLogModel{
		ID:           uuid.New().String(),
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    contextString(ctx, "request_id"),
		IP:           contextString(ctx, "ip"),
		UserAgent:    contextString(ctx, "user_agent"),
		Details:      detailsJSON,
		CreatedAt:    time.Now(),
	}

	return s.auditRepo.Save(ctx, entry)
}
