package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"log/slog"

	"matchdesk/internal/matches"
	"matchdesk/internal/profiles"
)

const (
	codeNotAuthenticated = "NOT_AUTHENTICATED"
	codeInvalidPair      = "INVALID_PAIR"
	codeQuotaExceeded    = "QUOTA_EXCEEDED"
	codeInvalidRequest   = "INVALID_REQUEST"
	codeConflict         = "CONFLICT"
	codeStoreUnavailable = "STORE_UNAVAILABLE"
)

// currentProfile resolves the authenticated profile for an API request.
// Returns nil when no valid session is present.
func currentProfile(ctx *cartridge.Context) *profiles.Profile {
	userID, authenticated := ctx.Session.GetUserID(ctx.Ctx)
	if !authenticated {
		return nil
	}

	profile, err := profiles.FindByID(ctx.DB(), userID)
	if err != nil {
		ctx.Logger.Warn("Session references missing profile",
			slog.Uint64("userID", uint64(userID)),
			slog.Any("error", err))
		return nil
	}
	return profile
}

func unauthenticated(ctx *cartridge.Context) error {
	return ctx.Status(http.StatusUnauthorized).JSON(fiber.Map{
		"error": "Authentication required",
		"code":  codeNotAuthenticated,
	})
}

// handleMatchError maps service errors onto API status codes.
func handleMatchError(ctx *cartridge.Context, err error) error {
	var pairErr *matches.InvalidPairError

	switch {
	case errors.Is(err, matches.ErrNotAuthenticated):
		return unauthenticated(ctx)

	case errors.As(err, &pairErr):
		return ctx.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": pairErr.Reason,
			"code":  codeInvalidPair,
		})

	case errors.Is(err, matches.ErrInvalidPriority):
		return ctx.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Priority must be high, medium, low or empty",
			"code":  codeInvalidRequest,
		})

	case errors.Is(err, matches.ErrQuotaExceeded):
		return ctx.Status(http.StatusConflict).JSON(fiber.Map{
			"error": "High priority limit reached",
			"code":  codeQuotaExceeded,
			"limit": matches.HighPriorityLimit,
		})

	case errors.Is(err, matches.ErrConflict):
		ctx.Logger.Error("Edge write conflict", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Conflicting edge write",
			"code":  codeConflict,
		})
	}

	if strings.Contains(err.Error(), "database is locked") || strings.Contains(err.Error(), "busy") {
		return ctx.Status(599).JSON(fiber.Map{}) // custom status code
	}

	ctx.Logger.Error("Match ledger store error", slog.Any("error", err))
	return ctx.Status(http.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "Match ledger temporarily unavailable",
		"code":  codeStoreUnavailable,
	})
}
