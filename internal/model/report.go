package model

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dutch3883/th-stray-sub000/internal/report"
)

// ReportModel is the persisted form of a report.
type ReportModel struct {
	ID                  string    `gorm:"primaryKey;type:varchar(64)"`
	OwnerID             string    `gorm:"type:varchar(64);not null;index"`
	NumberOfCats        int       `gorm:"type:int;not null"`
	Type                string    `gorm:"type:varchar(32);not null;index"`
	ContactPhone        string    `gorm:"type:varchar(32);not null"`
	Description         string    `gorm:"type:text"`
	Images              []byte    `gorm:"type:jsonb"` // JSON array of image URIs
	LocationLat         float64   `gorm:"type:double precision;not null"`
	LocationLong        float64   `gorm:"type:double precision;not null"`
	LocationDescription string    `gorm:"type:text"`
	Status              string    `gorm:"type:varchar(32);not null;index"`
	CreatedAt           time.Time `gorm:"not null;index"`
	UpdatedAt           time.Time `gorm:"not null;index"`
}

// TableName sets the table name.
func (ReportModel) TableName() string {
	return "reports"
}

// Validate checks the stored row for structural completeness.
func (rm *ReportModel) Validate() error {
	if rm.ID == "" {
		return errors.New("report ID is required")
	}
	if rm.OwnerID == "" {
		return errors.New("owner ID is required")
	}
	if rm.NumberOfCats < 0 {
		return errors.New("number of cats must not be negative")
	}
	if rm.Type == "" {
		return errors.New("report type is required")
	}
	if rm.Status == "" {
		return errors.New("report status is required")
	}
	return nil
}

// FromReport maps a domain report to its persisted form.
func FromReport(r *report.Report) (*ReportModel, error) {
	images, err := json.Marshal(r.Images)
	if err != nil {
		return nil, err
	}
	return &ReportModel{
		ID:                  r.ID,
		OwnerID:             r.OwnerID,
		NumberOfCats:        r.NumberOfCats,
		Type:                string(r.Type),
		ContactPhone:        r.ContactPhone,
		Description:         r.Description,
		Images:              images,
		LocationLat:         r.Location.Lat,
		LocationLong:        r.Location.Long,
		LocationDescription: r.Location.Description,
		Status:              string(r.Status),
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}, nil
}

// ToReport maps a stored row back to the domain value. History rows
// are loaded separately and attached by the caller.
func (rm *ReportModel) ToReport() (*report.Report, error) {
	var images []string
	if len(rm.Images) > 0 {
		if err := json.Unmarshal(rm.Images, &images); err != nil {
			return nil, err
		}
	}
	return &report.Report{
		ID:           rm.ID,
		OwnerID:      rm.OwnerID,
		NumberOfCats: rm.NumberOfCats,
		Type:         report.ReportType(rm.Type),
		ContactPhone: rm.ContactPhone,
		Description:  rm.Description,
		Images:       images,
		Location: report.Location{
			Lat:         rm.LocationLat,
			Long:        rm.LocationLong,
			Description: rm.LocationDescription,
		},
		Status:    report.Status(rm.Status),
		CreatedAt: rm.CreatedAt,
		UpdatedAt: rm.UpdatedAt,
	}, nil
}
