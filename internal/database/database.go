package database

import (
	"context"
	"fmt"
	"time"

	"github.com/dutch3883/th-stray-sub000/internal/config"
	"github.com/dutch3883/th-stray-sub000/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// BuildDSN builds the PostgreSQL DSN.
func BuildDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

// Connect opens the database and configures the connection pool from
// the config, falling back to defaults for unset values.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dsn := BuildDSN(cfg)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 10
	}
	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 100
	}
	maxLifetime := cfg.ConnMaxLifetime
	if maxLifetime == 0 {
		maxLifetime = 3600
	}
	maxIdleTime := cfg.ConnMaxIdleTime
	if maxIdleTime == 0 {
		maxIdleTime = 600
	}

	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(time.Duration(maxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(maxIdleTime) * time.Second)

	return db, nil
}

// ConnectWithRetry retries Connect with exponential backoff.
func ConnectWithRetry(cfg config.DatabaseConfig, maxRetries int, retryInterval time.Duration) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for i := 0; i < maxRetries; i++ {
		db, err = Connect(cfg)
		if err == nil {
			return db, nil
		}

		if i < maxRetries-1 {
			time.Sleep(retryInterval)
			retryInterval *= 2
		}
	}

	return nil, fmt.Errorf("failed to connect database after %d retries: %w", maxRetries, err)
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	dialector := db.Dialector.Name()

	// SQLite has no jsonb type, so the test schema is created by hand.
	if dialector == "sqlite" || dialector == "sqlite3" {
		if err := createSQLiteTables(db); err != nil {
			return fmt.Errorf("failed to create SQLite tables: %w", err)
		}
	} else {
		if err := db.AutoMigrate(
			&model.ReportModel{},
			&model.StatusChangeModel{},
			&model.RoleOverrideModel{},
			&model.AuditLogModel{},
		); err != nil {
			return fmt.Errorf("failed to auto migrate: %w", err)
		}
	}

	if err := CreateIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// createSQLiteTables creates the schema for SQLite, with TEXT standing
// in for jsonb columns.
func createSQLiteTables(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS reports (
			id VARCHAR(64) PRIMARY KEY,
			owner_id VARCHAR(64) NOT NULL,
			number_of_cats INTEGER NOT NULL DEFAULT 0,
			type VARCHAR(32) NOT NULL,
			contact_phone VARCHAR(32) NOT NULL,
			description TEXT,
			images TEXT,
			location_lat REAL NOT NULL,
			location_long REAL NOT NULL,
			location_description TEXT,
			status VARCHAR(32) NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create reports table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS status_history (
			id VARCHAR(64) PRIMARY KEY,
			report_id VARCHAR(64) NOT NULL,
			from_status VARCHAR(32) NOT NULL,
			to_status VARCHAR(32) NOT NULL,
			changed_by VARCHAR(64) NOT NULL,
			remark TEXT,
			changed_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create status_history table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS role_overrides (
			email VARCHAR(255) PRIMARY KEY,
			role VARCHAR(32) NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create role_overrides table: %w", err)
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_logs (
			id VARCHAR(64) PRIMARY KEY,
			user_id VARCHAR(64) NOT NULL,
			action VARCHAR(64) NOT NULL,
			resource_type VARCHAR(32) NOT NULL,
			resource_id VARCHAR(64) NOT NULL,
			request_id VARCHAR(64),
			ip VARCHAR(45),
			user_agent TEXT,
			details TEXT,
			created_at DATETIME NOT NULL
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create audit_logs table: %w", err)
	}

	return nil
}

// CreateIndexes creates the query-path indexes.
func CreateIndexes(db *gorm.DB) error {
	dialector := db.Dialector.Name()

	// reports: listing filters and sort keys
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status)").Error; err != nil {
		return fmt.Errorf("failed to create idx_reports_status: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_reports_type ON reports(type)").Error; err != nil {
		return fmt.Errorf("failed to create idx_reports_type: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_reports_owner_id ON reports(owner_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_reports_owner_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_reports_created_at: %w", err)
	}

	// status_history: per-report lookup in change order
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_history_report_id ON status_history(report_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_history_report_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_history_changed_at ON status_history(changed_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_history_changed_at: %w", err)
	}

	// audit_logs
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_logs(resource_type, resource_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_resource: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_user_id ON audit_logs(user_id)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_user_id: %w", err)
	}
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_logs(created_at)").Error; err != nil {
		return fmt.Errorf("failed to create idx_audit_created_at: %w", err)
	}

	if dialector == "postgres" {
		if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_reports_images_gin ON reports USING GIN (images)").Error; err != nil {
			return fmt.Errorf("failed to create idx_reports_images_gin: %w", err)
		}
	}

	return nil
}

// CheckHealth pings the database with a bounded timeout.
func CheckHealth(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not configured")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return sqlDB.PingContext(ctx)
}
