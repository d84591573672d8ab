package report

import "time"

// transitions is the fixed table of legal status changes. Completed
// and cancelled have no outgoing edges.
var transitions = map[Status][]Status{
	StatusPending: {StatusOnHold, StatusCompleted, StatusCancelled},
	StatusOnHold:  {StatusPending},
}

// CanTransition reports whether from -> to appears in the transition
// table.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// transition validates the move against the table and returns a new
// report with the status applied and a StatusChange appended. The
// receiver is left untouched.
func (r Report) transition(to Status, changedBy, remark string, now time.Time) (Report, error) {
	if !CanTransition(r.Status, to) {
		return Report{}, &InvalidTransitionError{From: r.Status, To: to}
	}
	next := r.clone()
	next.Status = to
	next.UpdatedAt = now
	next.StatusHistory = append(next.StatusHistory, StatusChange{
		From:      r.Status,
		To:        to,
		ChangedAt: now,
		ChangedBy: changedBy,
		Remark:    remark,
	})
	return next, nil
}

// PutOnHold moves a pending report to onHold.
func (r Report) PutOnHold(changedBy, remark string, now time.Time) (Report, error) {
	return r.transition(StatusOnHold, changedBy, remark, now)
}

// Resume moves an onHold report back to pending.
func (r Report) Resume(changedBy, remark string, now time.Time) (Report, error) {
	return r.transition(StatusPending, changedBy, remark, now)
}

// Complete closes a pending report as resolved.
func (r Report) Complete(changedBy, remark string, now time.Time) (Report, error) {
	return r.transition(StatusCompleted, changedBy, remark, now)
}

// Cancel closes a pending report as withdrawn.
func (r Report) Cancel(changedBy, remark string, now time.Time) (Report, error) {
	return r.transition(StatusCancelled, changedBy, remark, now)
}

// DetailsUpdate carries the mutable non-status fields. Nil pointers
// leave the field unchanged.
type DetailsUpdate struct {
	NumberOfCats *int        `json:"number_of_cats,omitempty"`
	Type         *ReportType `json:"type,omitempty"`
	ContactPhone *string     `json:"contact_phone,omitempty"`
	Description  *string     `json:"description,omitempty"`
	Images       []string    `json:"images,omitempty"`
	Location     *Location   `json:"location,omitempty"`
}

// UpdateDetails applies a partial update to the non-status fields and
// bumps updatedAt. It never touches status or history, and terminal
// reports are frozen entirely.
func (r Report) UpdateDetails(update DetailsUpdate, now time.Time) (Report, error) {
	if r.Status.Terminal() {
		return Report{}, &InvalidTransitionError{From: r.Status, To: r.Status}
	}
	next := r.clone()
	if update.NumberOfCats != nil {
		if *update.NumberOfCats < 0 {
			return Report{}, &ValidationError{Field: "number_of_cats", Reason: "must not be negative"}
		}
		next.NumberOfCats = *update.NumberOfCats
	}
	if update.Type != nil {
		if !update.Type.Valid() {
			return Report{}, &ValidationError{Field: "type", Reason: "unknown report type " + string(*update.Type)}
		}
		next.Type = *update.Type
	}
	if update.ContactPhone != nil {
		if *update.ContactPhone == "" {
			return Report{}, &ValidationError{Field: "contact_phone", Reason: "must not be empty"}
		}
		next.ContactPhone = *update.ContactPhone
	}
	if update.Description != nil {
		next.Description = *update.Description
	}
	if update.Images != nil {
		next.Images = append([]string(nil), update.Images...)
	}
	if update.Location != nil {
		next.Location = *update.Location
	}
	next.UpdatedAt = now
	return next, nil
}
