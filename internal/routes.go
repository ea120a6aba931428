package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	v1 "matchdesk/api/v1"
	"matchdesk/internal/config"
	"matchdesk/internal/http"
	"matchdesk/internal/http/middleware"
	"matchdesk/internal/roster"
)

// SetupSession configures session management on the server.
func SetupSession(srv *cartridge.Server) {
	cfg := config.GetConfig()
	sessionMgr := cartridge.NewSessionManager(cartridge.SessionConfig{
		CookieName: cfg.AppName + "_session",
		Secret:     cfg.GetSessionSecret(),
		TTL:        time.Duration(cfg.GetLoginSessionTimeout()) * time.Second,
		Secure:     cfg.IsProduction(),
		LoginPath:  "/login",
	})
	srv.SetSession(sessionMgr)
}

// MountAppRoutes mounts all application routes using cartridge's route API
func MountAppRoutes(srv *cartridge.Server) {
	SetupSession(srv)
	MountAppRoutesWithoutSession(srv)
}

// MountAppRoutesWithoutSession mounts routes without setting up session.
// Used by tests that install their own session manager.
func MountAppRoutesWithoutSession(srv *cartridge.Server) {
	cfg := config.GetConfig()
	sessionMgr := srv.Session()

	db := srv.GetDBManager().GetConnection()
	logger := srv.GetLogger()

	roster.SetupCache(db, logger)

	// Helper to conditionally apply rate limiting (only in production)
	// In development/test, rate limiting would interfere with testing
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// Stricter rate limiter for auth endpoints (10 requests per minute)
	// Prevents brute force login and allowlist probing via signup
	authRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(10),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Rate limiter for edge mutations (60 requests per minute per IP).
	// A participant clicking through a roster stays well under this.
	mutationRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(60),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// ============================================
	// ROUTE CONFIGURATIONS
	// ============================================

	authedConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{
			sessionMgr.Middleware(),
		},
	}

	mutationConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{
			sessionMgr.Middleware(),
			mutationRateLimiter,
		},
	}

	adminConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{
			sessionMgr.Middleware(),
			middleware.RequireAdmin(sessionMgr, db, logger),
		},
	}

	loginConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{authRateLimiter},
	}

	// === ROOT ROUTES ===
	srv.Get("/", http.HomeIndexAction)

	// Health check endpoint
	srv.Get("/_health", http.HealthIndexAction)
	srv.Head("/_health", http.HealthIndexAction)

	// === AUTHENTICATION ROUTES ===
	srv.Get("/login", http.RenderLoginAction)
	srv.Post("/login", http.ProcessLoginAction, loginConfig)
	srv.Post("/logout", http.LogoutAction)

	srv.Get("/signup", http.RenderSignupAction)
	srv.Post("/signup", http.ProcessSignupAction, loginConfig)

	// === PARTICIPANT ROUTES ===
	srv.Get("/app", http.AppIndexAction, authedConfig)
	srv.Get("/account", http.AccountIndexAction, authedConfig)
	srv.Post("/account/change-password", http.AccountChangePasswordFormAction, authedConfig)

	// === MATCH LEDGER API ===
	srv.Get("/api/v1/roster", v1.GetRosterHandler, authedConfig)
	srv.Get("/api/v1/matches/mutual", v1.GetMutualMatchesHandler, authedConfig)
	srv.Post("/api/v1/matches/priority", v1.SetPriorityHandler, mutationConfig)
	srv.Post("/api/v1/matches/not-interested", v1.SetNotInterestedHandler, mutationConfig)
	srv.Post("/api/v1/matches/remove", v1.RemoveMatchHandler, mutationConfig)

	srv.Get("/api/v1/profile", v1.GetProfileHandler, authedConfig)
	srv.Post("/api/v1/profile", v1.UpdateProfileHandler, mutationConfig)

	// === ADMINISTRATION ROUTES ===
	srv.Get("/admin", http.AdministrationIndexAction, adminConfig)
	srv.Post("/admin/profiles/:id/role", http.ProfileRoleFormAction, adminConfig)
	srv.Post("/admin/profiles/:id/admin", http.ProfileAdminFormAction, adminConfig)
	srv.Post("/admin/allowlist", http.AllowlistAddFormAction, adminConfig)
	srv.Post("/admin/allowlist/remove", http.AllowlistRemoveFormAction, adminConfig)
	srv.Post("/admin/settings", http.EventSettingsFormAction, adminConfig)
	srv.Get("/admin/api/export-edges", http.ExportEdgesAction, adminConfig)
}
