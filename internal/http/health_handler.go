package http

import (
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge"

	"matchdesk/internal/matches"
	"matchdesk/internal/profiles"
)

// HealthStatus is the health check response. Profile and edge counts give
// operators a quick read on ledger size without querying the database.
type HealthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	DBStatus  string    `json:"db_status"`
	Profiles  int64     `json:"profiles"`
	Edges     int64     `json:"edges"`
}

// HealthIndexAction reports service health. The status degrades when the
// database is unreachable; the ledger counts are best-effort and stay zero
// on failure.
func HealthIndexAction(ctx *cartridge.Context) error {
	health := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		DBStatus:  "ok",
	}

	db := ctx.DBManager.GetConnection()
	if db == nil {
		health.DBStatus = "error"
		ctx.Logger.Error("Database connection unavailable")
	} else {
		sqlDB, err := db.DB()
		if err != nil {
			health.DBStatus = "error"
			ctx.Logger.Error("Database connection error", slog.Any("error", err))
		} else if err := sqlDB.Ping(); err != nil {
			health.DBStatus = "error"
			ctx.Logger.Error("Database ping failed", slog.Any("error", err))
		}
	}

	if health.DBStatus == "ok" {
		db.Model(&profiles.Profile{}).Count(&health.Profiles)
		db.Model(&matches.Edge{}).Count(&health.Edges)
	} else {
		health.Status = "degraded"
	}

	return ctx.JSON(health)
}
