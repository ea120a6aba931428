package matches_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchdesk/internal/matches"
	"matchdesk/internal/profiles"
	"matchdesk/internal/testsupport"
)

func TestPairKey(t *testing.T) {
	t.Run("orders ids canonically", func(t *testing.T) {
		a, b := matches.PairKey(9, 3)
		assert.Equal(t, uint(3), a)
		assert.Equal(t, uint(9), b)

		a, b = matches.PairKey(3, 9)
		assert.Equal(t, uint(3), a)
		assert.Equal(t, uint(9), b)
	})
}

func TestUpsertEdge(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	founder := testsupport.CreateTestProfile(t, db, "founder@example.com", profiles.RoleFounder)
	investor := testsupport.CreateTestProfile(t, db, "investor@example.com", profiles.RoleInvestor)

	t.Run("rejects non-canonical party order", func(t *testing.T) {
		aID, bID := matches.PairKey(founder.ID, investor.ID)
		_, err := matches.UpsertEdge(db, matches.Edge{
			PartyAID: bID,
			PartyBID: aID,
			SetByID:  founder.ID,
		})
		assert.Error(t, err)
	})

	t.Run("overwrites rather than duplicates", func(t *testing.T) {
		aID, bID := matches.PairKey(founder.ID, investor.ID)

		first, err := matches.UpsertEdge(db, matches.Edge{
			PartyAID: aID, PartyBID: bID,
			PartyARole: profiles.RoleFounder, PartyBRole: profiles.RoleInvestor,
			Priority: matches.PriorityLow, SetByID: founder.ID,
		})
		require.NoError(t, err)

		second, err := matches.UpsertEdge(db, matches.Edge{
			PartyAID: aID, PartyBID: bID,
			PartyARole: profiles.RoleFounder, PartyBRole: profiles.RoleInvestor,
			Priority: matches.PriorityMedium, SetByID: investor.ID,
		})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Equal(t, matches.PriorityMedium, second.Priority)
		assert.Equal(t, investor.ID, second.SetByID)
		assert.Equal(t, first.CreatedAt.Unix(), second.CreatedAt.Unix())

		var count int64
		require.NoError(t, db.Model(&matches.Edge{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestGetEdge(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	founder := testsupport.CreateTestProfile(t, db, "founder@example.com", profiles.RoleFounder)
	investor := testsupport.CreateTestProfile(t, db, "investor@example.com", profiles.RoleInvestor)

	t.Run("returns nil without error for absent edge", func(t *testing.T) {
		edge, err := matches.GetEdge(db, founder.ID, investor.ID)
		require.NoError(t, err)
		assert.Nil(t, edge)
	})

	t.Run("finds edge regardless of argument order", func(t *testing.T) {
		testsupport.CreateTestEdge(t, db, founder, investor, matches.PriorityHigh)

		forward, err := matches.GetEdge(db, founder.ID, investor.ID)
		require.NoError(t, err)
		require.NotNil(t, forward)

		reversed, err := matches.GetEdge(db, investor.ID, founder.ID)
		require.NoError(t, err)
		require.NotNil(t, reversed)

		assert.Equal(t, forward.ID, reversed.ID)
	})
}

func TestDeleteEdge(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	founder := testsupport.CreateTestProfile(t, db, "founder@example.com", profiles.RoleFounder)
	investor := testsupport.CreateTestProfile(t, db, "investor@example.com", profiles.RoleInvestor)

	t.Run("deleting an absent edge is a no-op", func(t *testing.T) {
		require.NoError(t, matches.DeleteEdge(db, founder.ID, investor.ID))
	})

	t.Run("deletes an existing edge", func(t *testing.T) {
		testsupport.CreateTestEdge(t, db, founder, investor, matches.PriorityMedium)
		require.NoError(t, matches.DeleteEdge(db, investor.ID, founder.ID))

		edge, err := matches.GetEdge(db, founder.ID, investor.ID)
		require.NoError(t, err)
		assert.Nil(t, edge)
	})
}

func TestListEdgesForProfile(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	founder := testsupport.CreateTestProfile(t, db, "founder@example.com", profiles.RoleFounder)
	invX := testsupport.CreateTestProfile(t, db, "invx@example.com", profiles.RoleInvestor)
	invY := testsupport.CreateTestProfile(t, db, "invy@example.com", profiles.RoleInvestor)

	pairEdge := testsupport.CreateTestEdge(t, db, invX, invY, matches.PriorityHigh)
	testsupport.CreateTestEdge(t, db, founder, invX, matches.PriorityLow)

	t.Run("an investor-investor edge is visible from both sides", func(t *testing.T) {
		fromX, err := matches.ListEdgesForProfile(db, invX.ID)
		require.NoError(t, err)

		fromY, err := matches.ListEdgesForProfile(db, invY.ID)
		require.NoError(t, err)

		require.Len(t, fromY, 1)
		assert.Equal(t, pairEdge.ID, fromY[0].ID)

		var foundOnX bool
		for _, edge := range fromX {
			if edge.ID == pairEdge.ID {
				foundOnX = true
			}
		}
		assert.True(t, foundOnX, "edge must appear in both parties' listings")
	})

	t.Run("only edges touching the profile are returned", func(t *testing.T) {
		edges, err := matches.ListEdgesForProfile(db, invX.ID)
		require.NoError(t, err)
		assert.Len(t, edges, 2)

		edges, err = matches.ListEdgesForProfile(db, founder.ID)
		require.NoError(t, err)
		assert.Len(t, edges, 1)
	})
}

func TestCountHighPrioritySetBy(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	founder := testsupport.CreateTestProfile(t, db, "founder@example.com", profiles.RoleFounder)
	inv1 := testsupport.CreateTestProfile(t, db, "inv1@example.com", profiles.RoleInvestor)
	inv2 := testsupport.CreateTestProfile(t, db, "inv2@example.com", profiles.RoleInvestor)
	inv3 := testsupport.CreateTestProfile(t, db, "inv3@example.com", profiles.RoleInvestor)

	testsupport.CreateTestEdge(t, db, founder, inv1, matches.PriorityHigh)
	testsupport.CreateTestEdge(t, db, founder, inv2, matches.PriorityHigh)
	testsupport.CreateTestEdge(t, db, founder, inv3, matches.PriorityLow)

	// An investor's high pick of the founder does not count toward the founder.
	testsupport.CreateTestEdge(t, db, inv3, founder, matches.PriorityHigh)

	count, err := matches.CountHighPrioritySetBy(db, founder.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
