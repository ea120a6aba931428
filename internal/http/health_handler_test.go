package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchdesk/internal/matches"
	"matchdesk/internal/profiles"
	"matchdesk/internal/testsupport"
)

func TestHealthIndexAction(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	testsupport.CleanAllTables(db)

	founder := testsupport.CreateTestProfile(t, db, "founder@example.com", profiles.RoleFounder)
	investor := testsupport.CreateTestProfile(t, db, "investor@example.com", profiles.RoleInvestor)
	testsupport.CreateTestEdge(t, db, founder, investor, matches.PriorityHigh)

	app := testsupport.CreateTestApp(t, db)

	req := httptest.NewRequest("GET", "/_health", nil)
	resp, err := app.Test(req, 30000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &payload))

	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, "ok", payload["db_status"])
	assert.Equal(t, float64(2), payload["profiles"])
	assert.Equal(t, float64(1), payload["edges"])
	assert.NotEmpty(t, payload["timestamp"])
}
