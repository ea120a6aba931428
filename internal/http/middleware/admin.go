package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"gorm.io/gorm"

	"matchdesk/internal/profiles"
)

// RequireAdmin restricts a route to profiles with the admin flag. Must run
// after the session middleware so an authenticated user id is available.
func RequireAdmin(session *cartridge.SessionManager, db *gorm.DB, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, authenticated := session.GetUserID(c)
		if !authenticated {
			return c.Redirect("/login", fiber.StatusFound)
		}

		profile, err := profiles.FindByID(db, userID)
		if err != nil {
			logger.Error("Failed to load profile for admin check",
				slog.Uint64("userID", uint64(userID)),
				slog.Any("error", err))
			return c.Status(fiber.StatusForbidden).SendString("Forbidden")
		}
		if !profile.Admin {
			logger.Warn("Non-admin attempted to access admin route",
				slog.Uint64("userID", uint64(userID)),
				slog.String("path", c.Path()))
			return c.Status(fiber.StatusForbidden).SendString("Forbidden")
		}

		c.Locals("profile", profile)
		return c.Next()
	}
}
