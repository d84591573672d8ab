package service

import (
	"context"
	"fmt"

	"github.com/dutch3883/th-stray-sub000/internal/model"
	"gorm.io/gorm"
)

// StatisticsService aggregates report counts for the triage dashboard.
type StatisticsService interface {
	GetReportStatisticsByStatus(ctx context.Context) ([]*ReportStatisticsByStatus, error)
	GetReportStatisticsByType(ctx context.Context) ([]*ReportStatisticsByType, error)
}

// ReportStatisticsByStatus is one status bucket.
type ReportStatisticsByStatus struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// ReportStatisticsByType is one type bucket.
type ReportStatisticsByType struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// statisticsService is the gorm implementation.
type statisticsService struct {
	db *gorm.DB
}

// NewStatisticsService creates the statistics service.
func NewStatisticsService(db *gorm.DB) StatisticsService {
	return &statisticsService{db: db}
}

// GetReportStatisticsByStatus groups reports by status.
func (s *statisticsService) GetReportStatisticsByStatus(ctx context.Context) ([]*ReportStatisticsByStatus, error) {
	var results []struct {
		Status string
		Count  int64
	}

	err := s.db.WithContext(ctx).Model(&model.ReportModel{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Order("status ASC").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get report statistics by status: %w", err)
	}

	stats := make([]*ReportStatisticsByStatus, 0, len(results))
	for _, r := range results {
		stats = append(stats, &ReportStatisticsByStatus{Status: r.Status, Count: r.Count})
	}
	return stats, nil
}

// GetReportStatisticsByType groups reports by type.
func (s *statisticsService) GetReportStatisticsByType(ctx context.Context) ([]*ReportStatisticsByType, error) {
	var results []struct {
		Type  string
		Count int64
	}

	err := s.db.WithContext(ctx).Model(&model.ReportModel{}).
		Select("type, COUNT(*) as count").
		Group("type").
		Order("type ASC").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get report statistics by type: %w", err)
	}

	stats := make([]*ReportStatisticsByType, 0, len(results))
	for _, r := range results {
		stats = append(stats, &ReportStatisticsByType{Type: r.Type, Count: r.Count})
	}
	return stats, nil
}
