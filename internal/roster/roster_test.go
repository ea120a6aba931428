package roster_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchdesk/internal/matches"
	"matchdesk/internal/profiles"
	"matchdesk/internal/roster"
	"matchdesk/internal/testsupport"
)

func TestBuild(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	founder := testsupport.CreateTestProfile(t, db, "founder@example.com", profiles.RoleFounder)
	otherFounder := testsupport.CreateTestProfile(t, db, "founder2@example.com", profiles.RoleFounder)
	inv1 := testsupport.CreateTestProfile(t, db, "inv1@example.com", profiles.RoleInvestor)
	inv2 := testsupport.CreateTestProfile(t, db, "inv2@example.com", profiles.RoleInvestor)

	testsupport.CreateTestEdge(t, db, founder, inv1, matches.PriorityHigh)

	t.Run("requires a viewer", func(t *testing.T) {
		_, err := roster.Build(db, nil)
		assert.ErrorIs(t, err, matches.ErrNotAuthenticated)
	})

	t.Run("founders see only investors", func(t *testing.T) {
		board, err := roster.Build(db, founder)
		require.NoError(t, err)

		assert.Equal(t, founder.ID, board.ViewerID)
		assert.Len(t, board.Cards, 2)
		for _, card := range board.Cards {
			assert.Equal(t, profiles.RoleInvestor, card.Profile.Role)
		}

		_, onRoster := board.Card(otherFounder.ID)
		assert.False(t, onRoster)
	})

	t.Run("annotates cards with the viewer's edges", func(t *testing.T) {
		board, err := roster.Build(db, founder)
		require.NoError(t, err)

		assert.Equal(t, 1, board.HighPriorityUsed)

		picked, ok := board.Card(inv1.ID)
		require.True(t, ok)
		assert.Equal(t, matches.PriorityHigh, picked.Priority)
		assert.True(t, picked.PickedByMe)

		unpicked, ok := board.Card(inv2.ID)
		require.True(t, ok)
		assert.Equal(t, matches.PriorityNone, unpicked.Priority)
		assert.False(t, unpicked.PickedByMe)
	})

	t.Run("investors see everyone but themselves", func(t *testing.T) {
		board, err := roster.Build(db, inv1)
		require.NoError(t, err)

		assert.Len(t, board.Cards, 3)
		_, seesSelf := board.Card(inv1.ID)
		assert.False(t, seesSelf)
	})
}

func TestApply(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	founder := testsupport.CreateTestProfile(t, db, "founder@example.com", profiles.RoleFounder)
	inv1 := testsupport.CreateTestProfile(t, db, "inv1@example.com", profiles.RoleInvestor)
	inv2 := testsupport.CreateTestProfile(t, db, "inv2@example.com", profiles.RoleInvestor)

	t.Run("applies a new high pick once", func(t *testing.T) {
		board, err := roster.Build(db, founder)
		require.NoError(t, err)
		require.Equal(t, 0, board.HighPriorityUsed)

		result, err := matches.SetPriority(db, founder, inv1.ID, matches.PriorityHigh)
		require.NoError(t, err)

		board.Apply(inv1.ID, result)
		assert.Equal(t, 1, board.HighPriorityUsed)

		card, ok := board.Card(inv1.ID)
		require.True(t, ok)
		assert.Equal(t, matches.PriorityHigh, card.Priority)
		assert.True(t, card.PickedByMe)

		// Re-applying the same committed result must not double count:
		// the delta comes from the pre-mutation snapshot, and the committed
		// counter snaps it back into place.
		board.Apply(inv1.ID, result)
		assert.Equal(t, 1, board.HighPriorityUsed)
	})

	t.Run("demotion decrements the counter", func(t *testing.T) {
		board, err := roster.Build(db, founder)
		require.NoError(t, err)
		require.Equal(t, 1, board.HighPriorityUsed)

		result, err := matches.SetPriority(db, founder, inv1.ID, matches.PriorityLow)
		require.NoError(t, err)

		board.Apply(inv1.ID, result)
		assert.Equal(t, 0, board.HighPriorityUsed)

		card, _ := board.Card(inv1.ID)
		assert.Equal(t, matches.PriorityLow, card.Priority)
	})

	t.Run("not interested clears the card annotation", func(t *testing.T) {
		board, err := roster.Build(db, founder)
		require.NoError(t, err)

		result, err := matches.SetNotInterested(db, founder, inv1.ID)
		require.NoError(t, err)

		board.Apply(inv1.ID, result)
		card, _ := board.Card(inv1.ID)
		assert.Equal(t, matches.PriorityNone, card.Priority)
		assert.True(t, card.NotInterested)
	})

	t.Run("removal resets the card", func(t *testing.T) {
		result, err := matches.SetPriority(db, founder, inv2.ID, matches.PriorityHigh)
		require.NoError(t, err)

		board, err := roster.Build(db, founder)
		require.NoError(t, err)
		require.Equal(t, 1, board.HighPriorityUsed)

		removal, err := matches.RemoveMatch(db, founder, inv2.ID)
		require.NoError(t, err)
		_ = result

		board.Apply(inv2.ID, removal)
		assert.Equal(t, 0, board.HighPriorityUsed)

		card, _ := board.Card(inv2.ID)
		assert.Equal(t, matches.PriorityNone, card.Priority)
		assert.False(t, card.NotInterested)
		assert.False(t, card.PickedByMe)
	})

	t.Run("stale roster snaps to the committed counter", func(t *testing.T) {
		board, err := roster.Build(db, founder)
		require.NoError(t, err)

		// Simulate a projection that missed earlier mutations
		board.HighPriorityUsed = 3

		result, err := matches.SetPriority(db, founder, inv2.ID, matches.PriorityHigh)
		require.NoError(t, err)

		board.Apply(inv2.ID, result)
		assert.Equal(t, result.HighPriorityUsed, board.HighPriorityUsed)
	})
}
