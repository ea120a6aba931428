package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/inertia"
	"log/slog"

	"matchdesk/internal/matches"
	"matchdesk/internal/profiles"
	"matchdesk/internal/roster"
	"matchdesk/internal/settings"
)

// AppIndexAction renders the matchmaking board for the authenticated profile
func AppIndexAction(ctx *cartridge.Context) error {
	userID, authenticated := ctx.Session.GetUserID(ctx.Ctx)
	if !authenticated {
		return ctx.Redirect("/login", fiber.StatusFound)
	}

	db := ctx.DB()

	viewer, err := profiles.FindByID(db, userID)
	if err != nil {
		ctx.Logger.Error("Failed to load viewer profile", slog.Uint64("userID", uint64(userID)), slog.Any("error", err))
		ctx.Session.ClearSession(ctx.Ctx)
		return ctx.Redirect("/login", fiber.StatusFound)
	}

	board, err := roster.ForViewer(db, viewer)
	if err != nil {
		ctx.Logger.Error("Failed to build roster", slog.Uint64("viewerID", uint64(viewer.ID)), slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).SendString("Failed to load matchmaking board")
	}

	mutual, err := matches.MutualMatches(db, viewer)
	if err != nil {
		ctx.Logger.Error("Failed to load mutual matches", slog.Uint64("viewerID", uint64(viewer.ID)), slog.Any("error", err))
		mutual = nil
	}

	return inertia.RenderPage(ctx.Ctx, "Matchmaking", inertia.Props{
		"eventName":         settings.GetEventName(db),
		"viewer":            viewer,
		"roster":            board,
		"mutualMatches":     mutual,
		"highPriorityLimit": matches.HighPriorityLimit,
	})
}
