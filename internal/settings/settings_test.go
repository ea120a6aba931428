package settings_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchdesk/internal/settings"
	"matchdesk/internal/testsupport"
)

func TestSettings(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("defaults apply when nothing is stored", func(t *testing.T) {
		assert.Equal(t, "Matchdesk", settings.GetEventName(db))
		assert.True(t, settings.IsAllowlistEnabled(db))
	})

	t.Run("setup does not overwrite existing values", func(t *testing.T) {
		require.NoError(t, settings.CreateOrUpdateSetting(db, settings.KeyEventName, "Demo Day 2026"))
		require.NoError(t, settings.SetupDefaultSettings(db))

		assert.Equal(t, "Demo Day 2026", settings.GetEventName(db))
	})

	t.Run("allowlist can be disabled", func(t *testing.T) {
		require.NoError(t, settings.CreateOrUpdateSetting(db, settings.KeyAllowlistEnabled, "false"))
		assert.False(t, settings.IsAllowlistEnabled(db))

		require.NoError(t, settings.CreateOrUpdateSetting(db, settings.KeyAllowlistEnabled, "true"))
		assert.True(t, settings.IsAllowlistEnabled(db))
	})
}
