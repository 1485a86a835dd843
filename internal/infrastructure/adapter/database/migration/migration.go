package migration

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"github.com/amirhossein-jamali/client-portal/internal/infrastructure/adapter/model"
)

// schemaStep moves the schema from the previous version to version. Steps run in
// order inside their own transaction, and each one is recorded when it commits.
type schemaStep struct {
	version     string
	description string
	apply       func(ctx context.Context, tx *gorm.DB) error
}

// CurrentSchemaVersion is the version of the last step
var CurrentSchemaVersion = steps()[len(steps())-1].version

func steps() []schemaStep {
	return []schemaStep{
		{"1.0.0", "Payment ledger tables and one live payment per request", createActiveRequestIndex},
		{"1.1.0", "Backfill applied flag on confirmed transactions", backfillApplied},
	}
}

// MigrationManager manages database migrations
type MigrationManager struct {
	db           *gorm.DB
	logger       coreport.Logger
	timeProvider coreport.TimeProvider
	postgresDDL  *AdvancedIndexManager
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *gorm.DB, logger coreport.Logger, timeProvider coreport.TimeProvider) *MigrationManager {
	return &MigrationManager{
		db:           db,
		logger:       logger,
		timeProvider: timeProvider,
		postgresDDL:  NewAdvancedIndexManager(db, logger),
	}
}

// MigrateAll brings the schema to CurrentSchemaVersion. Running it on an
// up-to-date database is a no-op.
func (m *MigrationManager) MigrateAll(ctx context.Context) error {
	db := m.db.WithContext(ctx)
	if err := db.AutoMigrate(&model.MigrationVersion{}); err != nil {
		return fmt.Errorf("creating migration_versions: %w", err)
	}

	current, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	pending := pendingSteps(current)
	if len(pending) == 0 {
		m.logger.Debug("Schema is up to date", map[string]any{"version": current})
		return nil
	}

	m.logger.Info("Migrating database schema", map[string]any{
		"from":    current,
		"to":      CurrentSchemaVersion,
		"steps":   len(pending),
		"dialect": m.db.Dialector.Name(),
	})

	if err := db.AutoMigrate(
		&model.Service{},
		&model.RequestService{},
		&model.Payment{},
		&model.PaymentTransaction{},
		&model.Notification{},
		&model.ConnectedUser{},
	); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}

	for _, step := range pending {
		if err := m.applyStep(ctx, step); err != nil {
			m.logger.Error("Schema step failed", map[string]any{
				"version": step.version,
				"error":   err.Error(),
			})
			return fmt.Errorf("schema step %s: %w", step.version, err)
		}
	}

	if err := m.postgresDDL.CreateAdvancedIndexes(ctx); err != nil {
		return err
	}

	m.logger.Info("Database schema migrated", map[string]any{"version": CurrentSchemaVersion})
	return nil
}

func (m *MigrationManager) applyStep(ctx context.Context, step schemaStep) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := step.apply(ctx, tx); err != nil {
			return err
		}
		m.logger.Info("Applied schema step", map[string]any{
			"version":     step.version,
			"description": step.description,
		})
		return tx.Create(&model.MigrationVersion{
			Version:   step.version,
			AppliedAt: m.timeProvider.Now(),
			Details:   step.description,
		}).Error
	})
}

// GetCurrentVersion returns the last applied version, or "" on an empty database
func (m *MigrationManager) GetCurrentVersion(ctx context.Context) (string, error) {
	var version model.MigrationVersion
	err := m.db.WithContext(ctx).Order("id desc").First(&version).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return version.Version, nil
}

// pendingSteps returns the steps after current. An unknown version means the
// database was written by a newer build, so nothing runs.
func pendingSteps(current string) []schemaStep {
	all := steps()
	if current == "" {
		return all
	}
	for i, step := range all {
		if step.version == current {
			return all[i+1:]
		}
	}
	return nil
}

// createActiveRequestIndex adds the partial unique index that keeps one live
// payment per service request. Postgres and sqlite both support partial indexes.
func createActiveRequestIndex(ctx context.Context, tx *gorm.DB) error {
	return tx.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_active_request
		ON payments (request_service_id)
		WHERE payment_status <> 'FAILED'
	`).Error
}

// Rows written before 1.1.0 were only ever inserted on confirmation
func backfillApplied(ctx context.Context, tx *gorm.DB) error {
	return tx.Exec(
		"UPDATE payment_transactions SET applied = ? WHERE gateway_status = ?", true, "paid",
	).Error
}
