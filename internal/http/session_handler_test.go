package http_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchdesk/internal/profiles"
	"matchdesk/internal/testsupport"
)

func postLoginForm(t *testing.T, app *fiber.App, email, password string) *http.Response {
	t.Helper()

	form := url.Values{}
	form.Add("email", email)
	form.Add("password", password)

	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Sec-Fetch-Site", "same-origin")

	resp, err := app.Test(req, 30000)
	require.NoError(t, err)
	return resp
}

func sessionCookieValue(resp *http.Response) string {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == testsupport.SessionCookieName {
			return cookie.Value
		}
	}
	return ""
}

func TestProcessLoginAction(t *testing.T) {
	t.Run("valid credentials set a session and land on the app", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)

		testsupport.CreateTestProfile(t, db, "founder@example.com", profiles.RoleFounder)
		app := testsupport.CreateTestApp(t, db)

		resp := postLoginForm(t, app, "founder@example.com", "password-123")

		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/app", resp.Header.Get("Location"))
		assert.NotEmpty(t, sessionCookieValue(resp))
	})

	t.Run("admins land on the admin dashboard", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)

		testsupport.CreateTestAdmin(t, db, "admin@example.com")
		app := testsupport.CreateTestApp(t, db)

		resp := postLoginForm(t, app, "admin@example.com", "password-123")

		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/admin", resp.Header.Get("Location"))
		assert.NotEmpty(t, sessionCookieValue(resp))
	})

	t.Run("wrong password redirects back without a session", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)

		testsupport.CreateTestProfile(t, db, "founder@example.com", profiles.RoleFounder)
		app := testsupport.CreateTestApp(t, db)

		resp := postLoginForm(t, app, "founder@example.com", "wrong-password")

		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))
		assert.Empty(t, sessionCookieValue(resp))
	})

	t.Run("unknown email gets the same redirect as a bad password", func(t *testing.T) {
		dbManager, _ := testsupport.SetupTestDBManager(t)
		db := dbManager.GetConnection()
		testsupport.CleanAllTables(db)

		app := testsupport.CreateTestApp(t, db)

		resp := postLoginForm(t, app, "nobody@example.com", "password-123")

		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))
		assert.Empty(t, sessionCookieValue(resp))
	})
}
