package v1

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"log/slog"

	"matchdesk/internal/matches"
	"matchdesk/internal/roster"
)

var requestValidator = validator.New()

// SetPriorityParams is the request body for priority changes.
type SetPriorityParams struct {
	CounterpartID uint   `json:"counterpartId" validate:"required"`
	Priority      string `json:"priority" validate:"omitempty,oneof=high medium low"`
}

// MatchMutationParams is the request body for mutations that only need a counterpart.
type MatchMutationParams struct {
	CounterpartID uint `json:"counterpartId" validate:"required"`
}

// MutationResponse is returned by every edge mutation. It carries the
// committed edge state and quota usage so clients can reconcile their local
// projection without refetching the roster.
type MutationResponse struct {
	Edge             *matches.Edge `json:"edge"`
	Removed          bool          `json:"removed"`
	HighPriorityUsed int           `json:"highPriorityUsed"`
}

// SetPriorityHandler sets or clears the viewer's priority on a counterpart.
// An empty priority removes the edge entirely.
func SetPriorityHandler(ctx *cartridge.Context) error {
	viewer := currentProfile(ctx)
	if viewer == nil {
		return unauthenticated(ctx)
	}

	var params SetPriorityParams
	if err := ctx.BodyParser(&params); err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  codeInvalidRequest,
		})
	}
	if err := requestValidator.Struct(params); err != nil {
		return ctx.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "counterpartId is required and priority must be high, medium or low",
			"code":  codeInvalidRequest,
		})
	}

	result, err := matches.SetPriority(ctx.DB(), viewer, params.CounterpartID, matches.Priority(params.Priority))
	if err != nil {
		return handleMatchError(ctx, err)
	}

	roster.Invalidate()
	ctx.Logger.Debug("Priority updated",
		slog.Uint64("viewerID", uint64(viewer.ID)),
		slog.Uint64("counterpartID", uint64(params.CounterpartID)),
		slog.String("priority", params.Priority))

	return ctx.JSON(MutationResponse{
		Edge:             result.Edge,
		Removed:          result.Removed,
		HighPriorityUsed: result.HighPriorityUsed,
	})
}

// SetNotInterestedHandler marks a counterpart as not interested, clearing any
// priority the viewer had on the pair.
func SetNotInterestedHandler(ctx *cartridge.Context) error {
	viewer := currentProfile(ctx)
	if viewer == nil {
		return unauthenticated(ctx)
	}

	var params MatchMutationParams
	if err := ctx.BodyParser(&params); err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  codeInvalidRequest,
		})
	}
	if err := requestValidator.Struct(params); err != nil {
		return ctx.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "counterpartId is required",
			"code":  codeInvalidRequest,
		})
	}

	result, err := matches.SetNotInterested(ctx.DB(), viewer, params.CounterpartID)
	if err != nil {
		return handleMatchError(ctx, err)
	}

	roster.Invalidate()
	return ctx.JSON(MutationResponse{
		Edge:             result.Edge,
		Removed:          result.Removed,
		HighPriorityUsed: result.HighPriorityUsed,
	})
}

// RemoveMatchHandler deletes the edge between the viewer and a counterpart.
// Removing an absent edge is a no-op, not an error.
func RemoveMatchHandler(ctx *cartridge.Context) error {
	viewer := currentProfile(ctx)
	if viewer == nil {
		return unauthenticated(ctx)
	}

	var params MatchMutationParams
	if err := ctx.BodyParser(&params); err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  codeInvalidRequest,
		})
	}
	if err := requestValidator.Struct(params); err != nil {
		return ctx.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "counterpartId is required",
			"code":  codeInvalidRequest,
		})
	}

	result, err := matches.RemoveMatch(ctx.DB(), viewer, params.CounterpartID)
	if err != nil {
		return handleMatchError(ctx, err)
	}

	roster.Invalidate()
	return ctx.JSON(MutationResponse{
		Edge:             result.Edge,
		Removed:          result.Removed,
		HighPriorityUsed: result.HighPriorityUsed,
	})
}

// GetRosterHandler returns the viewer's full roster projection
func GetRosterHandler(ctx *cartridge.Context) error {
	viewer := currentProfile(ctx)
	if viewer == nil {
		return unauthenticated(ctx)
	}

	board, err := roster.ForViewer(ctx.DB(), viewer)
	if err != nil {
		return handleMatchError(ctx, err)
	}

	return ctx.JSON(board)
}

// GetMutualMatchesHandler returns the viewer's active mutual matches
func GetMutualMatchesHandler(ctx *cartridge.Context) error {
	viewer := currentProfile(ctx)
	if viewer == nil {
		return unauthenticated(ctx)
	}

	mutual, err := matches.MutualMatches(ctx.DB(), viewer)
	if err != nil {
		return handleMatchError(ctx, err)
	}

	return ctx.JSON(fiber.Map{
		"matches": mutual,
	})
}
