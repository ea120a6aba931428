package allowlist_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchdesk/internal/allowlist"
	"matchdesk/internal/testsupport"
)

func TestAllowlist(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("unlisted email is not allowed", func(t *testing.T) {
		allowed, err := allowlist.IsAllowed(db, "stranger@example.com")
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("add and check is case-insensitive", func(t *testing.T) {
		require.NoError(t, allowlist.Add(db, "Guest@Example.com", 1))

		allowed, err := allowlist.IsAllowed(db, "guest@EXAMPLE.com")
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("adding twice is a no-op", func(t *testing.T) {
		require.NoError(t, allowlist.Add(db, "guest@example.com", 1))

		entries, err := allowlist.List(db)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("remove revokes access", func(t *testing.T) {
		require.NoError(t, allowlist.Remove(db, "guest@example.com"))

		allowed, err := allowlist.IsAllowed(db, "guest@example.com")
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("removing an absent email is a no-op", func(t *testing.T) {
		require.NoError(t, allowlist.Remove(db, "nobody@example.com"))
	})
}
