package v1

import (
	"net/http"

	"github.com/karloscodes/cartridge"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"matchdesk/internal/profiles"
	"matchdesk/internal/roster"
)

// UpdateProfileParams is the request body for profile updates.
type UpdateProfileParams struct {
	DisplayName string `json:"displayName" validate:"required,min=2,max=120"`
	Company     string `json:"company" validate:"max=160"`
	Headline    string `json:"headline" validate:"max=240"`
	LinkedInURL string `json:"linkedinUrl" validate:"omitempty,url"`
}

// GetProfileHandler returns the authenticated profile
func GetProfileHandler(ctx *cartridge.Context) error {
	viewer := currentProfile(ctx)
	if viewer == nil {
		return unauthenticated(ctx)
	}
	return ctx.JSON(viewer)
}

// UpdateProfileHandler updates the authenticated profile's public fields
func UpdateProfileHandler(ctx *cartridge.Context) error {
	viewer := currentProfile(ctx)
	if viewer == nil {
		return unauthenticated(ctx)
	}

	var params UpdateProfileParams
	if err := ctx.BodyParser(&params); err != nil {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
			"code":  codeInvalidRequest,
		})
	}
	if err := requestValidator.Struct(params); err != nil {
		return ctx.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Invalid profile data",
			"code":  codeInvalidRequest,
		})
	}

	updated, err := profiles.Update(ctx.DB(), viewer.ID, profiles.UpdateParams{
		DisplayName: params.DisplayName,
		Company:     params.Company,
		Headline:    params.Headline,
		LinkedInURL: params.LinkedInURL,
	})
	if err != nil {
		ctx.Logger.Error("Failed to update profile",
			slog.Uint64("profileID", uint64(viewer.ID)),
			slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update profile",
		})
	}

	// Profile fields appear on other viewers' roster cards.
	roster.Invalidate()

	return ctx.JSON(updated)
}
