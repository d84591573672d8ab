package model

import (
	"errors"
	"time"

	"github.com/dutch3883/th-stray-sub000/internal/report"
)

// StatusChangeModel is one row of the append-only status history.
type StatusChangeModel struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)"`
	ReportID   string    `gorm:"type:varchar(64);not null;index"`
	FromStatus string    `gorm:"type:varchar(32);not null"`
	ToStatus   string    `gorm:"type:varchar(32);not null"`
	ChangedBy  string    `gorm:"type:varchar(64);not null"`
	Remark     string    `gorm:"type:text"`
	ChangedAt  time.Time `gorm:"not null;index"`
}

// TableName sets the table name.
func (StatusChangeModel) TableName() string {
	return "status_history"
}

// Validate checks the history row for structural completeness.
func (scm *StatusChangeModel) Validate() error {
	if scm.ID == "" {
		return errors.New("status change ID is required")
	}
	if scm.ReportID == "" {
		return errors.New("report ID is required")
	}
	if scm.FromStatus == "" {
		return errors.New("from status is required")
	}
	if scm.ToStatus == "" {
		return errors.New("to status is required")
	}
	if scm.ChangedBy == "" {
		return errors.New("changed by is required")
	}
	return nil
}

// ToStatusChange maps a stored row back to the domain value.
func (scm *StatusChangeModel) ToStatusChange() report.StatusChange {
	return report.StatusChange{
		From:      report.Status(scm.FromStatus),
		To:        report.Status(scm.ToStatus),
		ChangedAt: scm.ChangedAt,
		ChangedBy: scm.ChangedBy,
		Remark:    scm.Remark,
	}
}
