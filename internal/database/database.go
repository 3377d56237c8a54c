package database

import (
	"fmt"
	"os"
	"time"

	"github.com/sjperalta/ordino-api/internal/models"
	pkgLogger "github.com/sjperalta/ordino-api/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect establishes a connection to the PostgreSQL database
func Connect(databaseURL string) (*gorm.DB, error) {
	logLevel := logger.Warn
	if os.Getenv("ENVIRONMENT") != "production" {
		logLevel = logger.Info
	}

	gormLogger := pkgLogger.NewGormLogger(
		logLevel,
		200*time.Millisecond,
	)

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the tables of every persisted model
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Shipment{},
		&models.Customer{},
		&models.CheckInstrument{},
		&models.FinanceEntry{},
		&models.PaymentIntent{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// One income entry per intent and source keeps retried ledger writes from duplicating
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_finance_entries_intent_source
		ON finance_entries (intent_id, source) WHERE intent_id <> ''`).Error
}

// Close releases the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
