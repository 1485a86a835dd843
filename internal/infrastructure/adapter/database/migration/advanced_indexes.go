package migration

import (
	"context"

	coreport "github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
	"gorm.io/gorm"
)

// AdvancedIndexManager manages PostgreSQL-specific indexes and constraints
type AdvancedIndexManager struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewAdvancedIndexManager creates a new advanced index manager
func NewAdvancedIndexManager(db *gorm.DB, logger coreport.Logger) *AdvancedIndexManager {
	return &AdvancedIndexManager{
		db:     db,
		logger: logger,
	}
}

type ddlStatement struct {
	name     string
	sql      string
	required bool
}

var postgresStatements = []ddlStatement{
	{
		name: "chk_payments_amounts",
		sql: `DO $$ BEGIN
			ALTER TABLE payments ADD CONSTRAINT chk_payments_amounts
			CHECK (total_amount > 0 AND paid_amount >= 0);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
		required: true,
	},
	{
		name: "chk_payment_transactions_amount",
		sql: `DO $$ BEGIN
			ALTER TABLE payment_transactions ADD CONSTRAINT chk_payment_transactions_amount
			CHECK (transaction_amount > 0);
		EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
		required: true,
	},
	{
		name: "idx_payments_open_partial",
		sql: `CREATE INDEX IF NOT EXISTS idx_payments_open_partial
			ON payments (client_id, created_at DESC)
			WHERE payment_type = 'PARTIAL' AND payment_status = 'PENDING'`,
	},
	{
		name: "idx_notifications_unread",
		sql: `CREATE INDEX IF NOT EXISTS idx_notifications_unread
			ON notifications (target_user_id, created_at DESC)
			WHERE is_read = false`,
	},
	{
		name: "idx_payment_transactions_date_brin",
		sql: `CREATE INDEX IF NOT EXISTS idx_payment_transactions_date_brin
			ON payment_transactions USING BRIN (transaction_date)
			WITH (pages_per_range = 32)`,
	},
}

// CreateAdvancedIndexes applies the PostgreSQL-only DDL; other dialects are skipped
func (m *AdvancedIndexManager) CreateAdvancedIndexes(ctx context.Context) error {
	if m.db.Dialector.Name() != "postgres" {
		m.logger.Debug("Skipping PostgreSQL indexes", map[string]any{
			"dialect": m.db.Dialector.Name(),
		})
		return nil
	}

	m.logger.Info("Creating advanced PostgreSQL indexes", nil)

	for _, stmt := range postgresStatements {
		if err := m.db.WithContext(ctx).Exec(stmt.sql).Error; err != nil {
			if stmt.required {
				m.logger.Error("Failed to apply schema statement", map[string]any{
					"name":  stmt.name,
					"error": err.Error(),
				})
				return err
			}
			m.logger.Warn("Failed to apply optional schema statement", map[string]any{
				"name":  stmt.name,
				"error": err.Error(),
			})
		}
	}

	m.logger.Info("Advanced PostgreSQL indexes created successfully", nil)
	return nil
}
