package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/flash"
	"github.com/karloscodes/cartridge/inertia"
	"log/slog"

	"matchdesk/internal/allowlist"
	"matchdesk/internal/matches"
	"matchdesk/internal/profiles"
	"matchdesk/internal/settings"
)

// AdministrationIndexAction renders the admin dashboard
func AdministrationIndexAction(ctx *cartridge.Context) error {
	db := ctx.DB()

	allProfiles, err := profiles.ListAll(db)
	if err != nil {
		ctx.Logger.Error("Failed to list profiles for administration", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).SendString("Failed to load administration page")
	}

	allowedEmails, err := allowlist.List(db)
	if err != nil {
		ctx.Logger.Error("Failed to list allowlist entries", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).SendString("Failed to load administration page")
	}

	return inertia.RenderPage(ctx.Ctx, "Administration", inertia.Props{
		"profiles":         allProfiles,
		"allowlist":        allowedEmails,
		"eventName":        settings.GetEventName(db),
		"allowlistEnabled": settings.IsAllowlistEnabled(db),
	})
}

// ProfileRoleFormAction updates a profile's participant role
func ProfileRoleFormAction(ctx *cartridge.Context) error {
	profileID, err := ctx.ParamsInt("id")
	if err != nil || profileID <= 0 {
		flash.SetFlash(ctx.Ctx, "error", "Invalid profile")
		return ctx.Redirect("/admin", fiber.StatusFound)
	}

	role := profiles.Role(ctx.FormValue("role"))
	db := ctx.DB()

	if err := profiles.SetRole(db, uint(profileID), role); err != nil {
		ctx.Logger.Error("Failed to update profile role",
			slog.Int("profileID", profileID),
			slog.String("role", string(role)),
			slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Failed to update role")
		return ctx.Redirect("/admin", fiber.StatusFound)
	}

	ctx.Logger.Info("Profile role updated", slog.Int("profileID", profileID), slog.String("role", string(role)))
	flash.SetFlash(ctx.Ctx, "success", "Role updated")
	return ctx.Redirect("/admin", fiber.StatusFound)
}

// ProfileAdminFormAction toggles a profile's admin flag
func ProfileAdminFormAction(ctx *cartridge.Context) error {
	profileID, err := ctx.ParamsInt("id")
	if err != nil || profileID <= 0 {
		flash.SetFlash(ctx.Ctx, "error", "Invalid profile")
		return ctx.Redirect("/admin", fiber.StatusFound)
	}

	admin := ctx.FormValue("admin") == "true"

	// An admin cannot strip their own flag, otherwise the last admin could
	// lock everyone out of administration.
	userID, _ := ctx.Session.GetUserID(ctx.Ctx)
	if uint(profileID) == userID && !admin {
		flash.SetFlash(ctx.Ctx, "error", "You cannot remove your own admin access")
		return ctx.Redirect("/admin", fiber.StatusFound)
	}

	if err := profiles.SetAdmin(ctx.DB(), uint(profileID), admin); err != nil {
		ctx.Logger.Error("Failed to update admin flag", slog.Int("profileID", profileID), slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Failed to update admin access")
		return ctx.Redirect("/admin", fiber.StatusFound)
	}

	flash.SetFlash(ctx.Ctx, "success", "Admin access updated")
	return ctx.Redirect("/admin", fiber.StatusFound)
}

// AllowlistAddFormAction adds an email to the signup allowlist
func AllowlistAddFormAction(ctx *cartridge.Context) error {
	email := ctx.FormValue("email")
	if email == "" {
		flash.SetFlash(ctx.Ctx, "error", "Email is required")
		return ctx.Redirect("/admin", fiber.StatusFound)
	}

	userID, _ := ctx.Session.GetUserID(ctx.Ctx)

	if err := allowlist.Add(ctx.DB(), email, userID); err != nil {
		ctx.Logger.Error("Failed to add allowlist entry", slog.String("email", email), slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Failed to add email to allowlist")
		return ctx.Redirect("/admin", fiber.StatusFound)
	}

	flash.SetFlash(ctx.Ctx, "success", "Email added to allowlist")
	return ctx.Redirect("/admin", fiber.StatusFound)
}

// AllowlistRemoveFormAction removes an email from the signup allowlist
func AllowlistRemoveFormAction(ctx *cartridge.Context) error {
	email := ctx.FormValue("email")
	if email == "" {
		flash.SetFlash(ctx.Ctx, "error", "Email is required")
		return ctx.Redirect("/admin", fiber.StatusFound)
	}

	if err := allowlist.Remove(ctx.DB(), email); err != nil {
		ctx.Logger.Error("Failed to remove allowlist entry", slog.String("email", email), slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Failed to remove email from allowlist")
		return ctx.Redirect("/admin", fiber.StatusFound)
	}

	flash.SetFlash(ctx.Ctx, "success", "Email removed from allowlist")
	return ctx.Redirect("/admin", fiber.StatusFound)
}

// EventSettingsFormAction handles POST form submission for event settings (Inertia)
func EventSettingsFormAction(ctx *cartridge.Context) error {
	eventName := ctx.FormValue("event_name")
	allowlistEnabled := ctx.FormValue("allowlist_enabled")

	db := ctx.DB()

	if eventName != "" {
		if err := settings.CreateOrUpdateSetting(db, settings.KeyEventName, eventName); err != nil {
			ctx.Logger.Error("Failed to update event name", slog.Any("error", err))
			flash.SetFlash(ctx.Ctx, "error", "Failed to save event settings")
			return ctx.Redirect("/admin", fiber.StatusFound)
		}
	}

	if allowlistEnabled == "true" || allowlistEnabled == "false" {
		if err := settings.CreateOrUpdateSetting(db, settings.KeyAllowlistEnabled, allowlistEnabled); err != nil {
			ctx.Logger.Error("Failed to update allowlist setting", slog.Any("error", err))
			flash.SetFlash(ctx.Ctx, "error", "Failed to save event settings")
			return ctx.Redirect("/admin", fiber.StatusFound)
		}
	}

	ctx.Logger.Info("Event settings updated via form")
	flash.SetFlash(ctx.Ctx, "success", "Event settings saved successfully!")
	return ctx.Redirect("/admin", fiber.StatusFound)
}

// EdgeExport is the payload produced by the admin edge export endpoint.
type EdgeExport struct {
	SnapshotID  string             `json:"snapshot_id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Profiles    []profiles.Profile `json:"profiles"`
	Edges       []matches.Edge     `json:"edges"`
}

// ExportEdgesAction returns a full snapshot of the match ledger as JSON
func ExportEdgesAction(ctx *cartridge.Context) error {
	db := ctx.DB()

	allProfiles, err := profiles.ListAll(db)
	if err != nil {
		ctx.Logger.Error("Failed to list profiles for export", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export edges",
		})
	}

	edges, err := matches.ListEdgesAll(db)
	if err != nil {
		ctx.Logger.Error("Failed to list edges for export", slog.Any("error", err))
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export edges",
		})
	}

	export := EdgeExport{
		SnapshotID:  uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Profiles:    allProfiles,
		Edges:       edges,
	}

	ctx.Logger.Info("Edge ledger exported",
		slog.String("snapshotID", export.SnapshotID),
		slog.Int("edges", len(edges)))

	ctx.Set("Content-Disposition", "attachment; filename=matchdesk-edges.json")
	return ctx.JSON(export)
}
