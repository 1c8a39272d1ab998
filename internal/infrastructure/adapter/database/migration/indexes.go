package migration

import (
	"context"

	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
	"gorm.io/gorm"
)

// IndexManager manages PostgreSQL-specific indexes that gorm tags cannot express
type IndexManager struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewIndexManager creates a new index manager
func NewIndexManager(db *gorm.DB, logger coreport.Logger) *IndexManager {
	return &IndexManager{
		db:     db,
		logger: logger,
	}
}

var indexStatements = []struct {
	name string
	sql  string
}{
	{
		// verify-balance poll: user_id + tracking_id among successful rows
		name: "idx_transactions_user_tracking_successful",
		sql: `CREATE INDEX IF NOT EXISTS idx_transactions_user_tracking_successful
			ON transactions (user_id, tracking_id, created_at DESC)
			WHERE status = 'successful'`,
	},
	{
		name: "idx_transactions_awaiting_reconciliation",
		sql: `CREATE INDEX IF NOT EXISTS idx_transactions_awaiting_reconciliation
			ON transactions (created_at)
			WHERE status = 'successful' AND reason = 'user_missing'`,
	},
	{
		name: "idx_webhook_events_unprocessed",
		sql: `CREATE INDEX IF NOT EXISTS idx_webhook_events_unprocessed
			ON webhook_events (created_at)
			WHERE processed = false`,
	},
	{
		name: "idx_webhook_events_created_at_brin",
		sql: `CREATE INDEX IF NOT EXISTS idx_webhook_events_created_at_brin
			ON webhook_events USING BRIN (created_at)
			WITH (pages_per_range = 32)`,
	},
}

// CreateIndexes creates partial and BRIN indexes
func (m *IndexManager) CreateIndexes(ctx context.Context) error {
	m.logger.Info("Creating PostgreSQL indexes", nil)

	for _, stmt := range indexStatements {
		if err := m.db.WithContext(ctx).Exec(stmt.sql).Error; err != nil {
			m.logger.Error("Failed to create index", map[string]any{
				"index": stmt.name,
				"error": err.Error(),
			})
			return err
		}
	}

	m.logger.Info("PostgreSQL indexes created successfully", map[string]any{
		"count": len(indexStatements),
	})
	return nil
}

// ApplyPerformanceTweaks applies non-critical storage settings; failures are only logged
func (m *IndexManager) ApplyPerformanceTweaks(ctx context.Context) {
	// users and transactions rows are updated in place under row locks
	for _, table := range []string{"users", "transactions"} {
		if err := m.db.WithContext(ctx).Exec("ALTER TABLE " + table + " SET (fillfactor = 90)").Error; err != nil {
			m.logger.Warn("Failed to set fillfactor", map[string]any{
				"table": table,
				"error": err.Error(),
			})
		}
	}
}
