package container

import (
	"fmt"
	"time"

	"github.com/dutch3883/th-stray-sub000/internal/auth"
	"github.com/dutch3883/th-stray-sub000/internal/config"
	"github.com/dutch3883/th-stray-sub000/internal/database"
	"github.com/dutch3883/th-stray-sub000/internal/metrics"
	"github.com/dutch3883/th-stray-sub000/internal/repository"
	"github.com/dutch3883/th-stray-sub000/internal/service"
	"gorm.io/gorm"
)

// Container wires the application dependencies together: database,
// repositories, services, token validation and role resolution.
type Container struct {
	db                *gorm.DB
	tokenValidator    *auth.TokenValidator
	roleResolver      auth.RoleResolver
	reportService     service.ReportService
	queryService      service.QueryService
	statisticsService service.StatisticsService
	auditLogService   service.AuditLogService
	metricsCollector  *metrics.Collector
}

// NewContainer initializes every dependency from the config.
func NewContainer(cfg *config.Config) (*Container, error) {
	// Three attempts, one second initial interval, exponential backoff.
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	reportRepo := repository.NewReportRepository(db)
	historyRepo := repository.NewStatusHistoryRepository(db)
	overrideRepo := repository.NewRoleOverrideRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	auditLogService := service.NewAuditLogService(auditRepo)
	reportService := service.NewReportService(reportRepo, historyRepo, auditLogService, time.Now)
	queryService := service.NewQueryService(reportRepo, historyRepo)
	statisticsService := service.NewStatisticsService(db)

	tokenValidator := auth.NewTokenValidator(cfg.Auth.Issuer, cfg.Auth.JWKSURL)
	roleResolver := auth.NewRoleResolver(overrideRepo)

	collector := metrics.NewCollector(db, 15*time.Second)
	collector.Start()

	return &Container{
		db:                db,
		tokenValidator:    tokenValidator,
		roleResolver:      roleResolver,
		reportService:     reportService,
		queryService:      queryService,
		statisticsService: statisticsService,
		auditLogService:   auditLogService,
		metricsCollector:  collector,
	}, nil
}

// DB returns the database handle.
func (c *Container) DB() *gorm.DB {
	return c.db
}

// TokenValidator returns the OIDC token validator.
func (c *Container) TokenValidator() *auth.TokenValidator {
	return c.tokenValidator
}

// RoleResolver returns the role resolver.
func (c *Container) RoleResolver() auth.RoleResolver {
	return c.roleResolver
}

// ReportService returns the report lifecycle service.
func (c *Container) ReportService() service.ReportService {
	return c.reportService
}

// QueryService returns the read-side query service.
func (c *Container) QueryService() service.QueryService {
	return c.queryService
}

// StatisticsService returns the statistics service.
func (c *Container) StatisticsService() service.StatisticsService {
	return c.statisticsService
}

// AuditLogService returns the audit log service.
func (c *Container) AuditLogService() service.AuditLogService {
	return c.auditLogService
}

// Close releases the container resources.
func (c *Container) Close() error {
	if c.metricsCollector != nil {
		c.metricsCollector.Stop()
	}

	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	return nil
}
