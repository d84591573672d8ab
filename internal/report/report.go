package report

import (
	"time"
)

// Status is the lifecycle stage of a report.
type Status string

const (
	StatusPending   Status = "pending"
	StatusOnHold    Status = "onHold"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status has no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether the status is one of the known lifecycle stages.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusOnHold, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// ReportType classifies what the citizen observed.
type ReportType string

const (
	TypeStray   ReportType = "stray"
	TypeInjured ReportType = "injured"
	TypeSick    ReportType = "sick"
	TypeKitten  ReportType = "kitten"
)

// Valid reports whether the type is one of the known categories.
func (t ReportType) Valid() bool {
	switch t {
	case TypeStray, TypeInjured, TypeSick, TypeKitten:
		return true
	}
	return false
}

// Location is where the cats were sighted.
type Location struct {
	Lat         float64 `json:"lat"`
	Long        float64 `json:"long"`
	Description string  `json:"description"`
}

// StatusChange is one append-only audit entry recording a single
// transition. For a report with N entries, entry N's To equals the
// report's current status and entry i's To equals entry i+1's From.
type StatusChange struct {
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	ChangedAt time.Time `json:"changed_at"`
	ChangedBy string    `json:"changed_by"`
	Remark    string    `json:"remark"`
}

// Report is one citizen-submitted cat-sighting case. Values are
// immutable: every operation returns a fresh copy and never writes
// through the receiver, so persistence can detect stale snapshots.
type Report struct {
	ID            string         `json:"id"`
	OwnerID       string         `json:"owner_id"`
	NumberOfCats  int            `json:"number_of_cats"`
	Type          ReportType     `json:"type"`
	ContactPhone  string         `json:"contact_phone"`
	Description   string         `json:"description,omitempty"`
	Images        []string       `json:"images"`
	Location      Location       `json:"location"`
	Status        Status         `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	StatusHistory []StatusChange `json:"status_history"`
}

// New builds a report in the pending state with empty history.
func New(id, ownerID string, numberOfCats int, reportType ReportType, contactPhone, description string, images []string, location Location, now time.Time) (Report, error) {
	if id == "" {
		return Report{}, &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if ownerID == "" {
		return Report{}, &ValidationError{Field: "owner_id", Reason: "must not be empty"}
	}
	if numberOfCats < 0 {
		return Report{}, &ValidationError{Field: "number_of_cats", Reason: "must not be negative"}
	}
	if !reportType.Valid() {
		return Report{}, &ValidationError{Field: "type", Reason: "unknown report type " + string(reportType)}
	}
	if contactPhone == "" {
		return Report{}, &ValidationError{Field: "contact_phone", Reason: "must not be empty"}
	}
	return Report{
		ID:           id,
		OwnerID:      ownerID,
		NumberOfCats: numberOfCats,
		Type:         reportType,
		ContactPhone: contactPhone,
		Description:  description,
		Images:       append([]string(nil), images...),
		Location:     location,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// clone deep-copies the report so callers can build a new value
// without aliasing the receiver's slices.
func (r Report) clone() Report {
	next := r
	next.Images = append([]string(nil), r.Images...)
	next.StatusHistory = append([]StatusChange(nil), r.StatusHistory...)
	return next
}
