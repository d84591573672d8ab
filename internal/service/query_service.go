package service

import (
	"context"
	"fmt"

	"github.com/dutch3883/th-stray-sub000/internal/auth"
	"github.com/dutch3883/th-stray-sub000/internal/report"
	"github.com/dutch3883/th-stray-sub000/internal/repository"
)

// QueryService retrieves reports matching caller-supplied criteria,
// scoped by the caller's authorization. List calls return the full
// matching set; there is no pagination, which is a known scale limit
// kept for contract compatibility.
type QueryService interface {
	ListReports(ctx context.Context, filter *ListReportsFilter) ([]*report.Report, error)
	ListMyReports(ctx context.Context, caller Caller) ([]*report.Report, error)
	CountAllReports(ctx context.Context, filter *CountReportsFilter) (int64, error)
	CountMyReports(ctx context.Context, caller Caller) (int64, error)
	GetHistory(ctx context.Context, caller Caller, reportID string) ([]report.StatusChange, error)
}

// ListReportsFilter narrows and orders the global listing. Omitted
// filters impose no constraint; supplied ones compose by AND.
type ListReportsFilter struct {
	Status    *report.Status
	Type      *report.ReportType
	SortBy    string // createdAt, id, status, type
	SortOrder string // asc, desc
}

// CountReportsFilter narrows the global count.
type CountReportsFilter struct {
	Status *report.Status
	Type   *report.ReportType
}

// sortColumns maps API sort keys to whitelisted columns.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"id":        "id",
	"status":    "status",
	"type":      "type",
}

// queryService is the repository-backed implementation.
type queryService struct {
	reportRepo  repository.ReportRepository
	historyRepo repository.StatusHistoryRepository
}

// NewQueryService creates the query service.
func NewQueryService(reportRepo repository.ReportRepository, historyRepo repository.StatusHistoryRepository) QueryService {
	return &queryService{
		reportRepo:  reportRepo,
		historyRepo: historyRepo,
	}
}

// ListReports returns every report matching the filter, ordered by the
// requested key (id ASC tie-break).
func (s *queryService) ListReports(ctx context.Context, filter *ListReportsFilter) ([]*report.Report, error) {
	repoFilter := &repository.ReportFilter{}
	if filter != nil {
		if filter.Status != nil {
			if !filter.Status.Valid() {
				return nil, &report.ValidationError{Field: "status", Reason: "unknown status " + string(*filter.Status)}
			}
			status := string(*filter.Status)
			repoFilter.Status = &status
		}
		if filter.Type != nil {
			if !filter.Type.Valid() {
				return nil, &report.ValidationError{Field: "type", Reason: "unknown report type " + string(*filter.Type)}
			}
			reportType := string(*filter.Type)
			repoFilter.Type = &reportType
		}
		if filter.SortBy != "" {
			column, ok := sortColumns[filter.SortBy]
			if !ok {
				return nil, &report.ValidationError{Field: "sortBy", Reason: "unsupported sort key " + filter.SortBy}
			}
			repoFilter.SortBy = column
		}
		if filter.SortOrder != "" {
			if filter.SortOrder != "asc" && filter.SortOrder != "desc" {
				return nil, &report.ValidationError{Field: "sortOrder", Reason: "must be asc or desc"}
			}
			repoFilter.SortOrder = filter.SortOrder
		}
	}
	return s.query(ctx, repoFilter)
}

// ListMyReports returns the caller's own reports, newest first. No
// other filter or sort parameters are accepted.
func (s *queryService) ListMyReports(ctx context.Context, caller Caller) ([]*report.Report, error) {
	owner := caller.Subject
	return s.query(ctx, &repository.ReportFilter{
		OwnerID:   &owner,
		SortBy:    "created_at",
		SortOrder: "desc",
	})
}

// CountAllReports applies the list filter semantics with a count
// reducer, avoiding full payload transfer.
func (s *queryService) CountAllReports(ctx context.Context, filter *CountReportsFilter) (int64, error) {
	repoFilter := &repository.ReportFilter{}
	if filter != nil {
		if filter.Status != nil {
			if !filter.Status.Valid() {
				return 0, &report.ValidationError{Field: "status", Reason: "unknown status " + string(*filter.Status)}
			}
			status := string(*filter.Status)
			repoFilter.Status = &status
		}
		if filter.Type != nil {
			if !filter.Type.Valid() {
				return 0, &report.ValidationError{Field: "type", Reason: "unknown report type " + string(*filter.Type)}
			}
			reportType := string(*filter.Type)
			repoFilter.Type = &reportType
		}
	}
	return s.reportRepo.Count(ctx, repoFilter)
}

// CountMyReports counts the caller's own reports.
func (s *queryService) CountMyReports(ctx context.Context, caller Caller) (int64, error) {
	owner := caller.Subject
	return s.reportRepo.Count(ctx, &repository.ReportFilter{OwnerID: &owner})
}

// GetHistory returns one report's status history in append order.
// Reporters may only read their own report's history.
func (s *queryService) GetHistory(ctx context.Context, caller Caller, reportID string) ([]report.StatusChange, error) {
	rm, err := s.reportRepo.FindByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !caller.Role.Operator() && rm.OwnerID != caller.Subject {
		return nil, &auth.PermissionDeniedError{
			Operation: auth.OpGetHistory,
			Role:      caller.Role,
			Required:  []auth.Role{auth.RoleRescuer, auth.RoleAdmin},
		}
	}
	rows, err := s.historyRepo.FindByReportID(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", reportID, err)
	}
	history := make([]report.StatusChange, 0, len(rows))
	for _, row := range rows {
		history = append(history, row.ToStatusChange())
	}
	return history, nil
}

// query runs the filter and batch-loads histories so every returned
// report carries its full audit trail without an N+1.
func (s *queryService) query(ctx context.Context, filter *repository.ReportFilter) ([]*report.Report, error) {
	rows, err := s.reportRepo.FindByFilter(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}

	ids := make([]string, 0, len(rows))
	for _, rm := range rows {
		ids = append(ids, rm.ID)
	}
	histories, err := s.historyRepo.FindByReportIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load histories: %w", err)
	}

	reports := make([]*report.Report, 0, len(rows))
	for _, rm := range rows {
		r, err := rm.ToReport()
		if err != nil {
			return nil, fmt.Errorf("failed to decode report %s: %w", rm.ID, err)
		}
		changes := histories[rm.ID]
		r.StatusHistory = make([]report.StatusChange, 0, len(changes))
		for _, row := range changes {
			r.StatusHistory = append(r.StatusHistory, row.ToStatusChange())
		}
		reports = append(reports, r)
	}
	return reports, nil
}
