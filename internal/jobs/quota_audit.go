package jobs

import (
	"fmt"
	"log/slog"

	"github.com/karloscodes/cartridge"

	"matchdesk/internal/matches"
)

// QuotaAuditJob scans the edge ledger for profiles holding more high priority
// picks than the limit allows. The quota is enforced transactionally at write
// time, so any row this job finds indicates a bug or manual data edit.
type QuotaAuditJob struct {
	dbManager cartridge.DBManager
	logger    *slog.Logger
}

func NewQuotaAuditJob(dbManager cartridge.DBManager, logger *slog.Logger) *QuotaAuditJob {
	return &QuotaAuditJob{
		dbManager: dbManager,
		logger:    logger,
	}
}

type quotaRow struct {
	SetByID uint
	Total   int64
}

// Run performs a single audit pass.
func (j *QuotaAuditJob) Run() error {
	db := j.dbManager.GetConnection()
	if db == nil {
		return fmt.Errorf("database connection unavailable")
	}

	var rows []quotaRow
	err := db.Model(&matches.Edge{}).
		Select("set_by_id, COUNT(*) as total").
		Where("priority = ? AND set_by_id > 0", matches.PriorityHigh).
		Group("set_by_id").
		Having("COUNT(*) > ?", matches.HighPriorityLimit).
		Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to audit high priority quotas: %w", err)
	}

	for _, row := range rows {
		j.logger.Warn("Profile exceeds high priority limit",
			slog.Uint64("profileID", uint64(row.SetByID)),
			slog.Int64("highPriorityCount", row.Total),
			slog.Int("limit", matches.HighPriorityLimit))
	}

	if len(rows) == 0 {
		j.logger.Debug("Quota audit completed, no violations found")
	}

	return nil
}
