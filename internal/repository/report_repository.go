package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dutch3883/th-stray-sub000/internal/model"
	"github.com/dutch3883/th-stray-sub000/internal/report"
	"github.com/dutch3883/th-stray-sub000/internal/utils"
	"gorm.io/gorm"
)

// ReportRepository persists reports.
type ReportRepository interface {
	Create(ctx context.Context, rm *model.ReportModel) error
	FindByID(ctx context.Context, id string) (*model.ReportModel, error)
	FindByFilter(ctx context.Context, filter *ReportFilter) ([]*model.ReportModel, error)
	Count(ctx context.Context, filter *ReportFilter) (int64, error)
	UpdateDetails(ctx context.Context, rm *model.ReportModel) error
	TransitionStatus(ctx context.Context, rm *model.ReportModel, fromStatus string, change *model.StatusChangeModel) error
}

// ReportFilter narrows and orders report queries. Nil fields impose no
// constraint; supplied fields compose by AND.
type ReportFilter struct {
	OwnerID   *string
	Status    *string
	Type      *string
	SortBy    string // created_at, id, status, type
	SortOrder string // asc, desc
}

// reportRepository is the gorm implementation.
type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates the report repository.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

// Create inserts a new report row.
func (r *reportRepository) Create(ctx context.Context, rm *model.ReportModel) error {
	if err := rm.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(rm).Error
}

// FindByID looks up a report row by id.
func (r *reportRepository) FindByID(ctx context.Context, id string) (*model.ReportModel, error) {
	var rm model.ReportModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rm).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, report.ErrNotFound
		}
		return nil, err
	}
	return &rm, nil
}

// applyFilter adds the equality constraints to a query.
func applyFilter(query *gorm.DB, filter *ReportFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	return query
}

// FindByFilter returns every matching row ordered by the requested key
// with id ASC as a deterministic tie-break. No pagination: callers get
// the full matching set.
func (r *reportRepository) FindByFilter(ctx context.Context, filter *ReportFilter) ([]*model.ReportModel, error) {
	query := applyFilter(r.db.WithContext(ctx).Model(&model.ReportModel{}), filter)

	sortBy := "created_at"
	order := "desc"
	if filter != nil {
		if filter.SortBy != "" {
			sortBy = filter.SortBy
		}
		if filter.SortOrder != "" {
			order = filter.SortOrder
		}
	}
	if err := utils.ValidateSortField(sortBy); err != nil {
		return nil, fmt.Errorf("invalid sort field: %w", err)
	}
	if err := utils.ValidateSortOrder(order); err != nil {
		return nil, fmt.Errorf("invalid sort order: %w", err)
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, strings.ToUpper(order)))
	if sortBy != "id" {
		query = query.Order("id ASC")
	}

	var rows []*model.ReportModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count applies the same filter semantics with a count reducer.
func (r *reportRepository) Count(ctx context.Context, filter *ReportFilter) (int64, error) {
	var total int64
	query := applyFilter(r.db.WithContext(ctx).Model(&model.ReportModel{}), filter)
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// UpdateDetails writes the non-status fields of an existing row.
func (r *reportRepository) UpdateDetails(ctx context.Context, rm *model.ReportModel) error {
	res := r.db.WithContext(ctx).Model(&model.ReportModel{}).
		Where("id = ?", rm.ID).
		Updates(map[string]interface{}{
			"number_of_cats":       rm.NumberOfCats,
			"type":                 rm.Type,
			"contact_phone":        rm.ContactPhone,
			"description":          rm.Description,
			"images":               rm.Images,
			"location_lat":         rm.LocationLat,
			"location_long":        rm.LocationLong,
			"location_description": rm.LocationDescription,
			"updated_at":           rm.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return report.ErrNotFound
	}
	return nil
}

// TransitionStatus persists a validated status change. The UPDATE is
// guarded by the snapshot status the transition was computed against;
// zero rows affected on an existing report means a concurrent writer
// won and the caller gets ErrConflict. The history row is appended in
// the same transaction.
func (r *reportRepository) TransitionStatus(ctx context.Context, rm *model.ReportModel, fromStatus string, change *model.StatusChangeModel) error {
	if err := change.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.ReportModel{}).
			Where("id = ? AND status = ?", rm.ID, fromStatus).
			Updates(map[string]interface{}{
				"status":     rm.Status,
				"updated_at": rm.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&model.ReportModel{}).Where("id = ?", rm.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return report.ErrNotFound
			}
			return report.ErrConflict
		}
		return tx.Create(change).Error
	})
}
