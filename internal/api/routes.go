package api

import (
	"net/http"

	"github.com/dutch3883/th-stray-sub000/internal/auth"
	"github.com/dutch3883/th-stray-sub000/internal/config"
	"github.com/dutch3883/th-stray-sub000/internal/metrics"
	"github.com/dutch3883/th-stray-sub000/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RouterDeps bundles what the route table needs.
type RouterDeps struct {
	Config            *config.Config
	DB                *gorm.DB
	TokenValidator    *auth.TokenValidator
	RoleResolver      auth.RoleResolver
	ReportService     service.ReportService
	QueryService      service.QueryService
	StatisticsService service.StatisticsService
}

// SetupRouter builds the gin engine with the full middleware chain and
// route table.
func SetupRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	if config.IsProduction(cfg) {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(CORSMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(SecurityHeadersMiddleware())
	router.Use(RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	router.Use(ErrorHandlerMiddleware())
	if cfg.Tracing.Enabled {
		router.Use(TracingMiddleware())
	}

	healthController := NewHealthController(deps.DB)
	router.GET("/health", healthController.Check)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	reportController := NewReportController(deps.ReportService)
	queryController := NewQueryController(deps.QueryService, deps.StatisticsService)

	authed := router.Group("/api/v1")
	authed.Use(auth.AuthMiddleware(deps.TokenValidator))

	require := func(op auth.Operation) gin.HandlerFunc {
		return auth.RequireOperation(op, deps.RoleResolver)
	}

	reports := authed.Group("/reports")
	{
		reports.POST("", require(auth.OpCreateReport), reportController.Create)
		reports.GET("", require(auth.OpListReports), queryController.ListReports)
		reports.GET("/mine", require(auth.OpListMyReports), queryController.ListMyReports)
		reports.GET("/count", require(auth.OpCountAllReports), queryController.CountAllReports)
		reports.GET("/mine/count", require(auth.OpCountMyReports), queryController.CountMyReports)
		reports.GET("/:id", require(auth.OpGetReport), reportController.Get)
		reports.PUT("/:id", require(auth.OpUpdateReport), reportController.Update)
		reports.GET("/:id/history", require(auth.OpGetHistory), queryController.GetHistory)
		reports.POST("/:id/hold", require(auth.OpPutOnHold), reportController.PutOnHold)
		reports.POST("/:id/resume", require(auth.OpResume), reportController.Resume)
		reports.POST("/:id/complete", require(auth.OpComplete), reportController.Complete)
		reports.POST("/:id/cancel", require(auth.OpCancelReport), reportController.Cancel)
	}

	authed.GET("/me/role", require(auth.OpGetUserRole), reportController.GetRole)
	authed.GET("/statistics/reports", require(auth.OpGetStatistics), queryController.GetStatistics)

	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, ReasonNotFound, "route not found", c.Request.URL.Path)
	})

	return router
}
