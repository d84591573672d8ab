package repository

import (
	"context"

	"github.com/dutch3883/th-stray-sub000/internal/model"
	"gorm.io/gorm"
)

// StatusHistoryRepository reads the append-only status history.
type StatusHistoryRepository interface {
	FindByReportID(ctx context.Context, reportID string) ([]*model.StatusChangeModel, error)
	FindByReportIDs(ctx context.Context, reportIDs []string) (map[string][]*model.StatusChangeModel, error)
}

// statusHistoryRepository is the gorm implementation.
type statusHistoryRepository struct {
	db *gorm.DB
}

// NewStatusHistoryRepository creates the status history repository.
func NewStatusHistoryRepository(db *gorm.DB) StatusHistoryRepository {
	return &statusHistoryRepository{db: db}
}

// FindByReportID returns the history of one report in append order.
func (r *statusHistoryRepository) FindByReportID(ctx context.Context, reportID string) ([]*model.StatusChangeModel, error) {
	var rows []*model.StatusChangeModel
	err := r.db.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("changed_at ASC").Order("id ASC").
		Find(&rows).Error
	return rows, err
}

// FindByReportIDs batch-loads histories for a result set in a single
// query, grouped by report id. Avoids an N+1 on list operations.
func (r *statusHistoryRepository) FindByReportIDs(ctx context.Context, reportIDs []string) (map[string][]*model.StatusChangeModel, error) {
	grouped := make(map[string][]*model.StatusChangeModel, len(reportIDs))
	if len(reportIDs) == 0 {
		return grouped, nil
	}
	var rows []*model.StatusChangeModel
	err := r.db.WithContext(ctx).
		Where("report_id IN ?", reportIDs).
		Order("changed_at ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		grouped[row.ReportID] = append(grouped[row.ReportID], row)
	}
	return grouped, nil
}
