package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/flash"
	"github.com/karloscodes/cartridge/inertia"
	"log/slog"

	"matchdesk/internal/allowlist"
	"matchdesk/internal/profiles"
	"matchdesk/internal/settings"
)

var signupValidator = validator.New()

type signupForm struct {
	Email       string `form:"email" json:"email" validate:"required,email"`
	Password    string `form:"password" json:"password" validate:"required,min=8"`
	Role        string `form:"role" json:"role" validate:"required,oneof=founder investor"`
	DisplayName string `form:"display_name" json:"display_name" validate:"required,min=2,max=120"`
	Company     string `form:"company" json:"company" validate:"max=160"`
	Headline    string `form:"headline" json:"headline" validate:"max=240"`
	LinkedInURL string `form:"linkedin_url" json:"linkedin_url" validate:"omitempty,url"`
}

// RenderSignupAction renders the signup page
func RenderSignupAction(ctx *cartridge.Context) error {
	if ctx.Session.IsAuthenticated(ctx.Ctx) {
		return redirectHome(ctx)
	}

	db := ctx.DB()
	return inertia.RenderPage(ctx.Ctx, "Signup", inertia.Props{
		"eventName": settings.GetEventName(db),
	})
}

// ProcessSignupAction handles the signup form submission
func ProcessSignupAction(ctx *cartridge.Context) error {
	var form signupForm
	if err := ctx.BodyParser(&form); err != nil {
		flash.SetFlash(ctx.Ctx, "error", "Invalid signup data")
		return ctx.Redirect("/signup", fiber.StatusFound)
	}

	if err := signupValidator.Struct(form); err != nil {
		flash.SetFlash(ctx.Ctx, "error", signupValidationMessage(err))
		return ctx.Redirect("/signup", fiber.StatusFound)
	}

	db := ctx.DB()

	if settings.IsAllowlistEnabled(db) {
		allowed, err := allowlist.IsAllowed(db, form.Email)
		if err != nil {
			ctx.Logger.Error("Failed to check signup allowlist", slog.Any("error", err))
			flash.SetFlash(ctx.Ctx, "error", "Signup is temporarily unavailable")
			return ctx.Redirect("/signup", fiber.StatusFound)
		}
		if !allowed {
			ctx.Logger.Info("Signup rejected, email not on allowlist", slog.String("email", form.Email))
			flash.SetFlash(ctx.Ctx, "error", "This email is not registered for the event")
			return ctx.Redirect("/signup", fiber.StatusFound)
		}
	}

	profile, err := profiles.Create(db, profiles.CreateParams{
		Email:       form.Email,
		Password:    form.Password,
		Role:        profiles.Role(form.Role),
		DisplayName: form.DisplayName,
		Company:     form.Company,
		Headline:    form.Headline,
		LinkedInURL: form.LinkedInURL,
	})
	if err != nil {
		if errors.Is(err, profiles.ErrProfileExists) {
			flash.SetFlash(ctx.Ctx, "error", "An account with this email already exists")
			return ctx.Redirect("/signup", fiber.StatusFound)
		}
		ctx.Logger.Error("Failed to create profile", slog.String("email", form.Email), slog.Any("error", err))
		flash.SetFlash(ctx.Ctx, "error", "Failed to create account")
		return ctx.Redirect("/signup", fiber.StatusFound)
	}

	if err := ctx.Session.SetSession(ctx.Ctx, profile.ID); err != nil {
		ctx.Logger.Error("Failed to set session after signup", slog.Any("error", err))
		return ctx.Redirect("/login", fiber.StatusFound)
	}

	ctx.Logger.Info("Profile signed up",
		slog.String("email", profile.Email),
		slog.String("role", string(profile.Role)))
	return ctx.Redirect("/app", fiber.StatusFound)
}

func signupValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid signup data"
	}

	switch verrs[0].Field() {
	case "Email":
		return "A valid email address is required"
	case "Password":
		return "Password must be at least 8 characters long"
	case "Role":
		return "Role must be either founder or investor"
	case "DisplayName":
		return "Display name is required"
	case "LinkedInURL":
		return "LinkedIn URL must be a valid URL"
	default:
		return "Invalid signup data"
	}
}
