package api

import (
	"github.com/dutch3883/th-stray-sub000/internal/report"
	"github.com/dutch3883/th-stray-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

// QueryController handles the read-side listing, counting and
// statistics endpoints.
type QueryController struct {
	queryService      service.QueryService
	statisticsService service.StatisticsService
}

// NewQueryController creates the query controller.
func NewQueryController(queryService service.QueryService, statisticsService service.StatisticsService) *QueryController {
	return &QueryController{
		queryService:      queryService,
		statisticsService: statisticsService,
	}
}

// listFilterFromQuery reads the optional status/type filters and the
// sort controls off the query string. Validation happens in the
// service layer so bad values map to the structured error shape.
func listFilterFromQuery(ctx *gin.Context) *service.ListReportsFilter {
	filter := &service.ListReportsFilter{
		SortBy:    ctx.Query("sortBy"),
		SortOrder: ctx.Query("sortOrder"),
	}
	if v := ctx.Query("status"); v != "" {
		s := report.Status(v)
		filter.Status = &s
	}
	if v := ctx.Query("type"); v != "" {
		t := report.ReportType(v)
		filter.Type = &t
	}
	return filter
}

// ListReports lists every report, filtered and sorted.
// @Summary      List all reports
// @Tags         reports
// @Produce      json
// @Param        status    query string false "filter by status"
// @Param        type      query string false "filter by report type"
// @Param        sortBy    query string false "createdAt, id, status or type"
// @Param        sortOrder query string false "asc or desc"
// @Success      200  {object}  Response
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /reports [get]
// @Security     BearerAuth
func (ct *QueryController) ListReports(ctx *gin.Context) {
	reports, err := ct.queryService.ListReports(ctx.Request.Context(), listFilterFromQuery(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, reports)
}

// ListMyReports lists the caller's own reports.
// @Summary      List my reports
// @Tags         reports
// @Produce      json
// @Success      200  {object}  Response
// @Router       /reports/mine [get]
// @Security     BearerAuth
func (ct *QueryController) ListMyReports(ctx *gin.Context) {
	reports, err := ct.queryService.ListMyReports(ctx.Request.Context(), callerFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, reports)
}

// CountAllReports counts reports matching the optional filters.
// @Summary      Count all reports
// @Tags         reports
// @Produce      json
// @Param        status query string false "filter by status"
// @Param        type   query string false "filter by report type"
// @Success      200  {object}  Response
// @Failure      403  {object}  ErrorResponse
// @Router       /reports/count [get]
// @Security     BearerAuth
func (ct *QueryController) CountAllReports(ctx *gin.Context) {
	filter := &service.CountReportsFilter{}
	if v := ctx.Query("status"); v != "" {
		s := report.Status(v)
		filter.Status = &s
	}
	if v := ctx.Query("type"); v != "" {
		t := report.ReportType(v)
		filter.Type = &t
	}

	count, err := ct.queryService.CountAllReports(ctx.Request.Context(), filter)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, gin.H{"count": count})
}

// CountMyReports counts the caller's own reports.
// @Summary      Count my reports
// @Tags         reports
// @Produce      json
// @Success      200  {object}  Response
// @Router       /reports/mine/count [get]
// @Security     BearerAuth
func (ct *QueryController) CountMyReports(ctx *gin.Context) {
	count, err := ct.queryService.CountMyReports(ctx.Request.Context(), callerFromContext(ctx))
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, gin.H{"count": count})
}

// GetHistory returns the status history of one report.
// @Summary      Get report status history
// @Tags         reports
// @Produce      json
// @Param        id path string true "report ID"
// @Success      200  {object}  Response
// @Failure      404  {object}  ErrorResponse
// @Router       /reports/{id}/history [get]
// @Security     BearerAuth
func (ct *QueryController) GetHistory(ctx *gin.Context) {
	id := ctx.Param("id")
	if !validateReportID(ctx, id) {
		return
	}

	history, err := ct.queryService.GetHistory(ctx.Request.Context(), callerFromContext(ctx), id)
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, history)
}

// GetStatistics aggregates report counts by status and by type.
// @Summary      Report statistics
// @Tags         statistics
// @Produce      json
// @Success      200  {object}  Response
// @Failure      403  {object}  ErrorResponse
// @Router       /statistics/reports [get]
// @Security     BearerAuth
func (ct *QueryController) GetStatistics(ctx *gin.Context) {
	byStatus, err := ct.statisticsService.GetReportStatisticsByStatus(ctx.Request.Context())
	if err != nil {
		RespondError(ctx, err)
		return
	}
	byType, err := ct.statisticsService.GetReportStatisticsByType(ctx.Request.Context())
	if err != nil {
		RespondError(ctx, err)
		return
	}
	Success(ctx, gin.H{
		"by_status": byStatus,
		"by_type":   byType,
	})
}
