package jobs

import (
	"fmt"
	"log/slog"

	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// CleanupJob removes ledger rows that no longer carry information: edges
// pointing at deleted profiles and edges left with no priority and no
// not-interested flag.
type CleanupJob struct {
	dbManager cartridge.DBManager
	logger    *slog.Logger
}

func NewCleanupJob(dbManager cartridge.DBManager, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		dbManager: dbManager,
		logger:    logger,
	}
}

// Run performs a single cleanup pass.
func (j *CleanupJob) Run() error {
	db := j.dbManager.GetConnection()
	if db == nil {
		return fmt.Errorf("database connection unavailable")
	}

	var orphaned, inert int64

	err := sqlite.PerformWrite(j.logger, db, func(tx *gorm.DB) error {
		result := tx.Exec(`
            DELETE FROM edges
            WHERE party_a_id NOT IN (SELECT id FROM profiles)
               OR party_b_id NOT IN (SELECT id FROM profiles)
        `)
		if result.Error != nil {
			return fmt.Errorf("failed to delete orphaned edges: %w", result.Error)
		}
		orphaned = result.RowsAffected

		result = tx.Exec(`
            DELETE FROM edges
            WHERE priority = '' AND not_interested = 0
        `)
		if result.Error != nil {
			return fmt.Errorf("failed to delete inert edges: %w", result.Error)
		}
		inert = result.RowsAffected

		return nil
	})
	if err != nil {
		return err
	}

	if orphaned > 0 || inert > 0 {
		j.logger.Info("Edge ledger cleanup completed",
			slog.Int64("orphanedEdges", orphaned),
			slog.Int64("inertEdges", inert))
	}

	return nil
}
