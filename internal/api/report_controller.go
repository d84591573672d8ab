package api

import (
	"net/http"

	"github.com/dutch3883/th-stray-sub000/internal/auth"
	"github.com/dutch3883/th-stray-sub000/internal/report"
	"github.com/dutch3883/th-stray-sub000/internal/service"
	"github.com/dutch3883/th-stray-sub000/internal/utils"
	"github.com/gin-gonic/gin"
)

// ReportController handles the report lifecycle endpoints.
type ReportController struct {
	reportService service.ReportService
}

// NewReportController creates the report controller.
func NewReportController(reportService service.ReportService) *ReportController {
	return &ReportController{
		reportService: reportService,
	}
}

// callerFromContext builds the service caller from the identity and
// role the middleware chain resolved.
func callerFromContext(c *gin.Context) service.Caller {
	return service.Caller{
		Subject: c.GetString(auth.ContextKeyUserID),
		Role:    auth.Role(c.GetString(auth.ContextKeyRole)),
	}
}

// validateReportID rejects malformed path ids before they reach the
// query layer.
func validateReportID(ctx *gin.Context, id string) bool {
	if err := utils.ValidateReportID(id); err != nil {
		Error(ctx, http.StatusBadRequest, ReasonValidation, "invalid report ID", err.Error())
		return false
	}
	return true
}

// RemarkRequest carries the operator remark for a status transition.
type RemarkRequest struct {
	Remark string `json:"remark" example:"picked up by volunteer"`
}

// CreateReportResult is the creation response payload.
type CreateReportResult struct {
	ID string `json:"id"`
}

// Create submits a new report.
// @Summary      Submit a cat sighting report
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        request body service.CreateReportRequest true "report fields"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /reports [post]
// @Security     BearerAuth
func (ct *ReportController) Create(ctx *gin.Context) {
	var req service.CreateReportRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, ReasonValidation, "invalid request", err.Error())
		return
	}

	r, err := ct.reportService.Create(ctx.Request.Context(), callerFromContext(ctx), &req)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, CreateReportResult{ID: r.ID})
}

// Get returns one report with history.
// @Summary      Get report detail
// @Tags         reports
// @Produce      json
// @Param        id path string true "report ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /reports/{id} [get]
// @Security     BearerAuth
func (ct *ReportController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if !validateReportID(ctx, id) {
		return
	}

	r, err := ct.reportService.Get(ctx.Request.Context(), callerFromContext(ctx), id)
	if err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, r)
}

// Update applies a partial update to the non-status fields.
// @Summary      Update report details
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        id path string true "report ID"
// @Param        request body report.DetailsUpdate true "fields to update"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse
// @Router       /reports/{id} [put]
// @Security     BearerAuth
func (ct *ReportController) Update(ctx *gin.Context) {
	id := ctx.Param("id")
	if !validateReportID(ctx, id) {
		return
	}

	var update report.DetailsUpdate
	if err := ctx.ShouldBindJSON(&update); err != nil {
		Error(ctx, http.StatusBadRequest, ReasonValidation, "invalid request", err.Error())
		return
	}

	if err := ct.reportService.UpdateDetails(ctx.Request.Context(), callerFromContext(ctx), id, update); err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, nil)
}

// transition runs one lifecycle operation with the posted remark.
func (ct *ReportController) transition(ctx *gin.Context, fn func(caller service.Caller, id, remark string) error) {
	id := ctx.Param("id")
	if !validateReportID(ctx, id) {
		return
	}

	var req RemarkRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			Error(ctx, http.StatusBadRequest, ReasonValidation, "invalid request", err.Error())
			return
		}
	}

	if err := fn(callerFromContext(ctx), id, req.Remark); err != nil {
		RespondError(ctx, err)
		return
	}

	Success(ctx, nil)
}

// PutOnHold pauses triage of a pending report.
// @Summary      Put a report on hold
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        id path string true "report ID"
// @Param        request body RemarkRequest false "remark"
// @Success      200  {object}  Response
// @Failure      422  {object}  ErrorResponse
// @Router       /reports/{id}/hold [post]
// @Security     BearerAuth
func (ct *ReportController) PutOnHold(ctx *gin.Context) {
	ct.transition(ctx, func(caller service.Caller, id, remark string) error {
		return ct.reportService.PutOnHold(ctx.Request.Context(), caller, id, remark)
	})
}

// Resume moves an on-hold report back to pending.
// @Summary      Resume a report
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        id path string true "report ID"
// @Param        request body RemarkRequest false "remark"
// @Success      200  {object}  Response
// @Failure      422  {object}  ErrorResponse
// @Router       /reports/{id}/resume [post]
// @Security     BearerAuth
func (ct *ReportController) Resume(ctx *gin.Context) {
	ct.transition(ctx, func(caller service.Caller, id, remark string) error {
		return ct.reportService.Resume(ctx.Request.Context(), caller, id, remark)
	})
}

// Complete closes a report as resolved.
// @Summary      Complete a report
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        id path string true "report ID"
// @Param        request body RemarkRequest false "remark"
// @Success      200  {object}  Response
// @Failure      422  {object}  ErrorResponse
// @Router       /reports/{id}/complete [post]
// @Security     BearerAuth
func (ct *ReportController) Complete(ctx *gin.Context) {
	ct.transition(ctx, func(caller service.Caller, id, remark string) error {
		return ct.reportService.Complete(ctx.Request.Context(), caller, id, remark)
	})
}

// Cancel withdraws a report.
// @Summary      Cancel a report
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        id path string true "report ID"
// @Param        request body RemarkRequest false "remark"
// @Success      200  {object}  Response
// @Failure      403  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse
// @Router       /reports/{id}/cancel [post]
// @Security     BearerAuth
func (ct *ReportController) Cancel(ctx *gin.Context) {
	ct.transition(ctx, func(caller service.Caller, id, remark string) error {
		return ct.reportService.Cancel(ctx.Request.Context(), caller, id, remark)
	})
}

// GetRole returns the caller's resolved role.
// @Summary      Get the caller's role
// @Tags         me
// @Produce      json
// @Success      200  {object}  Response
// @Router       /me/role [get]
// @Security     BearerAuth
func (ct *ReportController) GetRole(ctx *gin.Context) {
	Success(ctx, gin.H{"role": ctx.GetString(auth.ContextKeyRole)})
}
