package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dutch3883/th-stray-sub000/internal/auth"
	"github.com/dutch3883/th-stray-sub000/internal/metrics"
	"github.com/dutch3883/th-stray-sub000/internal/model"
	"github.com/dutch3883/th-stray-sub000/internal/report"
	"github.com/dutch3883/th-stray-sub000/internal/repository"
	"github.com/google/uuid"
)

// ReportService owns the report lifecycle: creation, the four status
// transitions and detail updates. Every mutation goes through the pure
// state machine in the report package; this layer adds authorization
// scoping, persistence and audit.
type ReportService interface {
	Create(ctx context.Context, caller Caller, req *CreateReportRequest) (*report.Report, error)
	Get(ctx context.Context, caller Caller, id string) (*report.Report, error)
	PutOnHold(ctx context.Context, caller Caller, id string, remark string) error
	Resume(ctx context.Context, caller Caller, id string, remark string) error
	Complete(ctx context.Context, caller Caller, id string, remark string) error
	Cancel(ctx context.Context, caller Caller, id string, remark string) error
	UpdateDetails(ctx context.Context, caller Caller, id string, update report.DetailsUpdate) error
}

// CreateReportRequest carries the report fields a citizen submits.
// @Description Payload for submitting a new cat sighting report
type CreateReportRequest struct {
	NumberOfCats int               `json:"number_of_cats" example:"2"` // 0 means unknown
	Type         string            `json:"type" example:"stray" binding:"required"`
	ContactPhone string            `json:"contact_phone" example:"+66811234567" binding:"required"`
	Description  string            `json:"description" example:"Two cats near the market"`
	Images       []string          `json:"images"`
	Location     LocationPayload   `json:"location" binding:"required"`
}

// LocationPayload is the sighting location.
type LocationPayload struct {
	Lat         float64 `json:"lat" example:"13.7563"`
	Long        float64 `json:"long" example:"100.5018"`
	Description string  `json:"description" example:"Chatuchak market, gate 2"`
}

// reportService is the default implementation.
type reportService struct {
	reportRepo  repository.ReportRepository
	historyRepo repository.StatusHistoryRepository
	auditLogSvc AuditLogService
	now         func() time.Time
}

// NewReportService creates the report service. The clock is injectable
// for tests; pass nil for time.Now.
func NewReportService(reportRepo repository.ReportRepository, historyRepo repository.StatusHistoryRepository, auditLogSvc AuditLogService, now func() time.Time) ReportService {
	if now == nil {
		now = time.Now
	}
	return &reportService{
		reportRepo:  reportRepo,
		historyRepo: historyRepo,
		auditLogSvc: auditLogSvc,
		now:         now,
	}
}

// Create persists a new report in the pending state with empty history.
func (s *reportService) Create(ctx context.Context, caller Caller, req *CreateReportRequest) (*report.Report, error) {
	r, err := report.New(
		uuid.New().String(),
		caller.Subject,
		req.NumberOfCats,
		report.ReportType(req.Type),
		req.ContactPhone,
		req.Description,
		req.Images,
		report.Location{
			Lat:         req.Location.Lat,
			Long:        req.Location.Long,
			Description: req.Location.Description,
		},
		s.now(),
	)
	if err != nil {
		return nil, err
	}

	rm, err := model.FromReport(&r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	if err := s.reportRepo.Create(ctx, rm); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	metrics.RecordReportCreated(string(r.Type))

	if s.auditLogSvc != nil {
		details := map[string]string{"report_id": r.ID, "type": string(r.Type)}
		_ = s.auditLogSvc.RecordAction(ctx, caller.Subject, "create", "report", r.ID, details)
	}

	return &r, nil
}

// Get returns one report with its full status history. Reporters may
// only read their own reports.
func (s *reportService) Get(ctx context.Context, caller Caller, id string) (*report.Report, error) {
	r, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwnership(caller, r, auth.OpGetReport); err != nil {
		return nil, err
	}
	return r, nil
}

// PutOnHold moves a pending report to onHold.
func (s *reportService) PutOnHold(ctx context.Context, caller Caller, id string, remark string) error {
	return s.applyTransition(ctx, caller, id, remark, "hold", auth.OpPutOnHold, report.Report.PutOnHold)
}

// Resume moves an onHold report back to pending.
func (s *reportService) Resume(ctx context.Context, caller Caller, id string, remark string) error {
	return s.applyTransition(ctx, caller, id, remark, "resume", auth.OpResume, report.Report.Resume)
}

// Complete closes a pending report as resolved.
func (s *reportService) Complete(ctx context.Context, caller Caller, id string, remark string) error {
	return s.applyTransition(ctx, caller, id, remark, "complete", auth.OpComplete, report.Report.Complete)
}

// Cancel closes a pending report as withdrawn. Reporters may only
// cancel their own reports.
func (s *reportService) Cancel(ctx context.Context, caller Caller, id string, remark string) error {
	return s.applyTransition(ctx, caller, id, remark, "cancel", auth.OpCancelReport, report.Report.Cancel)
}

// transitionFunc is one of the pure state machine operations.
type transitionFunc func(r report.Report, changedBy, remark string, now time.Time) (report.Report, error)

// applyTransition reads a snapshot, applies the pure transition and
// persists it with the optimistic status guard. A concurrent writer
// surfaces as report.ErrConflict; the caller re-reads and retries.
func (s *reportService) applyTransition(ctx context.Context, caller Caller, id, remark, action string, op auth.Operation, fn transitionFunc) error {
	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if op == auth.OpCancelReport {
		if err := checkOwnership(caller, current, op); err != nil {
			return err
		}
	}

	next, err := fn(*current, caller.Subject, remark, s.now())
	if err != nil {
		return err
	}

	rm, err := model.FromReport(&next)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	change := next.StatusHistory[len(next.StatusHistory)-1]
	changeRow := &model.StatusChangeModel{
		ID:         uuid.New().String(),
		ReportID:   next.ID,
		FromStatus: string(change.From),
		ToStatus:   string(change.To),
		ChangedBy:  change.ChangedBy,
		Remark:     change.Remark,
		ChangedAt:  change.ChangedAt,
	}
	if err := s.reportRepo.TransitionStatus(ctx, rm, string(current.Status), changeRow); err != nil {
		return err
	}

	metrics.RecordStatusTransition(action)

	if s.auditLogSvc != nil {
		details := map[string]string{
			"report_id": id,
			"from":      string(change.From),
			"to":        string(change.To),
			"remark":    remark,
		}
		_ = s.auditLogSvc.RecordAction(ctx, caller.Subject, action, "report", id, details)
	}

	return nil
}

// UpdateDetails applies a partial non-status update. Reporters may
// only update their own reports; terminal reports are frozen.
func (s *reportService) UpdateDetails(ctx context.Context, caller Caller, id string, update report.DetailsUpdate) error {
	current, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := checkOwnership(caller, current, auth.OpUpdateReport); err != nil {
		return err
	}

	next, err := current.UpdateDetails(update, s.now())
	if err != nil {
		return err
	}

	rm, err := model.FromReport(&next)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := s.reportRepo.UpdateDetails(ctx, rm); err != nil {
		return err
	}

	if s.auditLogSvc != nil {
		details := map[string]string{"report_id": id}
		_ = s.auditLogSvc.RecordAction(ctx, caller.Subject, "update", "report", id, details)
	}

	return nil
}

// load assembles the domain report from its row and history.
func (s *reportService) load(ctx context.Context, id string) (*report.Report, error) {
	rm, err := s.reportRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r, err := rm.ToReport()
	if err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", id, err)
	}
	rows, err := s.historyRepo.FindByReportID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", id, err)
	}
	r.StatusHistory = make([]report.StatusChange, 0, len(rows))
	for _, row := range rows {
		r.StatusHistory = append(r.StatusHistory, row.ToStatusChange())
	}
	return r, nil
}

// checkOwnership restricts reporters to their own reports. Rescuers
// and admins pass unconditionally.
func checkOwnership(caller Caller, r *report.Report, op auth.Operation) error {
	if caller.Role.Operator() {
		return nil
	}
	if r.OwnerID != caller.Subject {
		return &auth.PermissionDeniedError{
			Operation: op,
			Role:      caller.Role,
			Required:  []auth.Role{auth.RoleRescuer, auth.RoleAdmin},
		}
	}
	return nil
}
