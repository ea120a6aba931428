package profiles_test

import (
	"testing"

	"github.com/karloscodes/cartridge/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"matchdesk/internal/profiles"
	"matchdesk/internal/testsupport"
)

func TestCreate(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("creates a profile with a hashed password", func(t *testing.T) {
		profile, err := profiles.Create(db, profiles.CreateParams{
			Email:       "Founder@Example.com",
			Password:    "secret-password",
			Role:        profiles.RoleFounder,
			DisplayName: "Jordan Founder",
			Company:     "Acme Robotics",
		})
		require.NoError(t, err)

		assert.Equal(t, "founder@example.com", profile.Email)
		assert.Equal(t, profiles.RoleFounder, profile.Role)
		assert.False(t, profile.Admin)
		assert.NotEqual(t, "secret-password", profile.EncryptedPassword)
		assert.True(t, crypto.VerifyPassword(profile.EncryptedPassword, "secret-password"))
	})

	t.Run("rejects duplicate emails", func(t *testing.T) {
		_, err := profiles.Create(db, profiles.CreateParams{
			Email:       "founder@example.com",
			Password:    "another-password",
			Role:        profiles.RoleInvestor,
			DisplayName: "Duplicate",
		})
		assert.ErrorIs(t, err, profiles.ErrProfileExists)
	})

	t.Run("rejects unknown roles", func(t *testing.T) {
		_, err := profiles.Create(db, profiles.CreateParams{
			Email:       "other@example.com",
			Password:    "secret-password",
			Role:        profiles.Role("advisor"),
			DisplayName: "Advisor",
		})
		assert.ErrorIs(t, err, profiles.ErrInvalidRole)
	})
}

func TestFindByEmail(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	created := testsupport.CreateTestProfile(t, db, "investor@example.com", profiles.RoleInvestor)

	t.Run("finds regardless of case", func(t *testing.T) {
		found, err := profiles.FindByEmail(db, "INVESTOR@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, found.ID)
	})

	t.Run("returns error for non-existent profile", func(t *testing.T) {
		found, err := profiles.FindByEmail(db, "nobody@example.com")
		assert.Nil(t, found)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})
}

func TestListCounterparts(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	founder := testsupport.CreateTestProfile(t, db, "founder@example.com", profiles.RoleFounder)
	founder2 := testsupport.CreateTestProfile(t, db, "founder2@example.com", profiles.RoleFounder)
	investor := testsupport.CreateTestProfile(t, db, "investor@example.com", profiles.RoleInvestor)
	investor2 := testsupport.CreateTestProfile(t, db, "investor2@example.com", profiles.RoleInvestor)

	t.Run("founders get investors only", func(t *testing.T) {
		counterparts, err := profiles.ListCounterparts(db, founder)
		require.NoError(t, err)

		require.Len(t, counterparts, 2)
		for _, counterpart := range counterparts {
			assert.Equal(t, profiles.RoleInvestor, counterpart.Role)
		}
	})

	t.Run("investors get founders and other investors", func(t *testing.T) {
		counterparts, err := profiles.ListCounterparts(db, investor)
		require.NoError(t, err)

		ids := make(map[uint]bool, len(counterparts))
		for _, counterpart := range counterparts {
			ids[counterpart.ID] = true
		}
		assert.True(t, ids[founder.ID])
		assert.True(t, ids[founder2.ID])
		assert.True(t, ids[investor2.ID])
		assert.False(t, ids[investor.ID], "viewer must not appear on their own roster")
	})
}

func TestSetRoleAndAdmin(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	profile := testsupport.CreateTestProfile(t, db, "person@example.com", profiles.RoleFounder)

	t.Run("updates role", func(t *testing.T) {
		require.NoError(t, profiles.SetRole(db, profile.ID, profiles.RoleInvestor))

		updated, err := profiles.FindByID(db, profile.ID)
		require.NoError(t, err)
		assert.Equal(t, profiles.RoleInvestor, updated.Role)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		assert.ErrorIs(t, profiles.SetRole(db, profile.ID, profiles.Role("vc")), profiles.ErrInvalidRole)
	})

	t.Run("toggles admin flag", func(t *testing.T) {
		require.NoError(t, profiles.SetAdmin(db, profile.ID, true))

		updated, err := profiles.FindByID(db, profile.ID)
		require.NoError(t, err)
		assert.True(t, updated.Admin)
	})
}

func TestChangePassword(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	testsupport.CreateTestProfile(t, db, "person@example.com", profiles.RoleInvestor)

	t.Run("updates the stored hash", func(t *testing.T) {
		require.NoError(t, profiles.ChangePassword(db, "person@example.com", "new-password-123"))

		updated, err := profiles.FindByEmail(db, "person@example.com")
		require.NoError(t, err)
		assert.True(t, crypto.VerifyPassword(updated.EncryptedPassword, "new-password-123"))
	})

	t.Run("rejects empty password", func(t *testing.T) {
		assert.Error(t, profiles.ChangePassword(db, "person@example.com", ""))
	})
}

func TestSetupAdminProfileIfNotExists(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	t.Run("creates the admin profile if missing", func(t *testing.T) {
		email := "Admin@Example.com"

		profiles.SetupAdminProfileIfNotExists(db, email)

		found, err := profiles.FindByEmail(db, email)
		require.NoError(t, err)
		assert.Equal(t, "admin@example.com", found.Email)
		assert.True(t, found.Admin)
		assert.Equal(t, profiles.RoleInvestor, found.Role)
	})

	t.Run("leaves an existing profile untouched", func(t *testing.T) {
		existing := testsupport.CreateTestProfile(t, db, "existing@example.com", profiles.RoleFounder)

		profiles.SetupAdminProfileIfNotExists(db, existing.Email)

		found, err := profiles.FindByEmail(db, existing.Email)
		require.NoError(t, err)
		assert.Equal(t, existing.ID, found.ID)
		assert.Equal(t, profiles.RoleFounder, found.Role)
		assert.False(t, found.Admin)
	})
}
