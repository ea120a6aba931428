package internal

import (
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge/testsupport"
	"github.com/stretchr/testify/require"
)

func TestMatchMutationRoutesRegistered(t *testing.T) {
	srv := testsupport.NewTestServer(t, testsupport.TestServerOptions{
		RouteMountFunc: MountAppRoutes,
	})
	routes := srv.App.GetRoutes(true)

	expected := map[string]bool{
		"/api/v1/matches/priority":       false,
		"/api/v1/matches/not-interested": false,
		"/api/v1/matches/remove":         false,
	}

	for _, route := range routes {
		if route.Method == fiber.MethodPost {
			if _, ok := expected[route.Path]; ok {
				expected[route.Path] = true
			}
		}
	}

	for path, registered := range expected {
		require.Truef(t, registered, "expected POST %s to be registered", path)
	}
}

func TestLoginRouteRateLimited(t *testing.T) {
	srv := testsupport.NewTestServer(t, testsupport.TestServerOptions{
		RouteMountFunc: MountAppRoutes,
	})
	routes := srv.App.GetRoutes(true)

	var loginRoute *fiber.Route
	for idx := range routes {
		route := routes[idx]
		if route.Method == fiber.MethodPost && route.Path == "/login" {
			loginRoute = &routes[idx]
			break
		}
	}

	require.NotNil(t, loginRoute, "expected login route to be registered")

	// The rate limiter is wrapped in a conditional function that only applies
	// in production. In test environment, it passes through but the wrapper
	// still exists.
	hasRateLimiter := false
	var handlerNames []string
	for _, handler := range loginRoute.Handlers {
		name := runtime.FuncForPC(reflect.ValueOf(handler).Pointer()).Name()
		handlerNames = append(handlerNames, name)
		if strings.Contains(name, "middleware/limiter") || strings.Contains(name, "MountAppRoutesWithoutSession.func") {
			hasRateLimiter = true
			break
		}
	}

	require.Truef(t, hasRateLimiter, "expected rate limiter middleware for login route, handlers: %v", handlerNames)
}

func TestAdminRoutesRequireAdminMiddleware(t *testing.T) {
	srv := testsupport.NewTestServer(t, testsupport.TestServerOptions{
		RouteMountFunc: MountAppRoutes,
	})
	routes := srv.App.GetRoutes(true)

	var adminRoute *fiber.Route
	for idx := range routes {
		route := routes[idx]
		if route.Method == fiber.MethodGet && route.Path == "/admin" {
			adminRoute = &routes[idx]
			break
		}
	}

	require.NotNil(t, adminRoute, "expected admin route to be registered")

	hasAdminCheck := false
	for _, handler := range adminRoute.Handlers {
		name := runtime.FuncForPC(reflect.ValueOf(handler).Pointer()).Name()
		if strings.Contains(name, "RequireAdmin") {
			hasAdminCheck = true
			break
		}
	}

	require.True(t, hasAdminCheck, "expected RequireAdmin middleware on the admin route")
}
