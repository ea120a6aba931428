// Package profiles holds event participants: founders, investors, and admins.
package profiles

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge/crypto"
	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// Role identifies which side of the event a participant is on.
type Role string

const (
	RoleFounder  Role = "founder"
	RoleInvestor Role = "investor"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleFounder || r == RoleInvestor
}

// Profile represents an event participant.
// Profiles are created at signup and never deleted in normal operation.
type Profile struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Email             string    `gorm:"uniqueIndex;not null" json:"email"`
	EncryptedPassword string    `json:"-"`
	Role              Role      `gorm:"not null" json:"role"`
	Admin             bool      `gorm:"not null;default:false" json:"admin"`
	DisplayName       string    `json:"display_name"`
	Company           string    `json:"company"`
	Headline          string    `json:"headline"`
	LinkedInURL       string    `json:"linkedin_url"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ErrProfileExists is returned when attempting to create a profile that already exists.
var ErrProfileExists = errors.New("profile already exists")

// ErrProfileNotFound is returned when a profile lookup fails.
var ErrProfileNotFound = gorm.ErrRecordNotFound

// ErrInvalidRole is returned when an unknown role is supplied.
var ErrInvalidRole = errors.New("invalid role")

// NormalizeEmail lowercases and trims an email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindByEmail retrieves a profile by email.
func FindByEmail(db *gorm.DB, email string) (*Profile, error) {
	var profile Profile
	if err := db.Where("email = ?", NormalizeEmail(email)).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindByID retrieves a profile by ID.
func FindByID(db *gorm.DB, id uint) (*Profile, error) {
	var profile Profile
	if err := db.Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateParams carries the fields collected at signup.
type CreateParams struct {
	Email       string
	Password    string
	Role        Role
	DisplayName string
	Company     string
	Headline    string
	LinkedInURL string
}

// Create registers a new participant profile. It returns ErrProfileExists if the
// email is already taken and ErrInvalidRole for unknown roles.
func Create(db *gorm.DB, params CreateParams) (*Profile, error) {
	email := NormalizeEmail(params.Email)
	if email == "" {
		return nil, errors.New("email cannot be empty")
	}
	if params.Password == "" {
		return nil, errors.New("password cannot be empty")
	}
	if !params.Role.Valid() {
		return nil, ErrInvalidRole
	}

	if _, err := FindByEmail(db, email); err == nil {
		return nil, ErrProfileExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashedPassword, err := crypto.GeneratePasswordHash(params.Password)
	if err != nil {
		return nil, err
	}

	profile := Profile{
		Email:             email,
		EncryptedPassword: string(hashedPassword),
		Role:              params.Role,
		DisplayName:       strings.TrimSpace(params.DisplayName),
		Company:           strings.TrimSpace(params.Company),
		Headline:          strings.TrimSpace(params.Headline),
		LinkedInURL:       strings.TrimSpace(params.LinkedInURL),
	}

	logger := slog.Default()
	err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Create(&profile).Error
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateParams carries the profile fields a participant may edit themselves.
type UpdateParams struct {
	DisplayName string
	Company     string
	Headline    string
	LinkedInURL string
}

// Update edits the owning user's display fields.
func Update(db *gorm.DB, id uint, params UpdateParams) (*Profile, error) {
	profile, err := FindByID(db, id)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(profile).Updates(map[string]interface{}{
			"display_name":  strings.TrimSpace(params.DisplayName),
			"company":       strings.TrimSpace(params.Company),
			"headline":      strings.TrimSpace(params.Headline),
			"linked_in_url": strings.TrimSpace(params.LinkedInURL),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return FindByID(db, id)
}

// SetRole changes a profile's role. Admin surface only.
func SetRole(db *gorm.DB, id uint, role Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	profile, err := FindByID(db, id)
	if err != nil {
		return err
	}
	logger := slog.Default()
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(profile).Update("role", role).Error
	})
}

// SetAdmin grants or revokes the admin flag. Admin surface only.
func SetAdmin(db *gorm.DB, id uint, admin bool) error {
	profile, err := FindByID(db, id)
	if err != nil {
		return err
	}
	logger := slog.Default()
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(profile).Update("admin", admin).Error
	})
}

// ListCounterparts returns the browsable profiles for a viewer. Founders see
// investors only; investors see founders and other investors ("investors can
// match other investors"). The viewer is always excluded.
func ListCounterparts(db *gorm.DB, viewer *Profile) ([]Profile, error) {
	if viewer == nil {
		return nil, errors.New("viewer is required")
	}

	query := db.Where("id != ?", viewer.ID)
	if viewer.Role == RoleFounder {
		query = query.Where("role = ?", RoleInvestor)
	}

	var counterparts []Profile
	if err := query.Order("display_name ASC").Find(&counterparts).Error; err != nil {
		return nil, fmt.Errorf("failed to list counterparts: %w", err)
	}
	return counterparts, nil
}

// ListAll retrieves every profile. Admin surface only.
func ListAll(db *gorm.DB) ([]Profile, error) {
	var all []Profile
	if err := db.Order("id ASC").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return all, nil
}

// ChangePassword updates a profile's password given their email.
func ChangePassword(db *gorm.DB, email, password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}

	profile, err := FindByEmail(db, email)
	if err != nil {
		return err
	}

	hashedPassword, err := crypto.GeneratePasswordHash(password)
	if err != nil {
		return err
	}

	logger := slog.Default()
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Model(profile).Update("encrypted_password", string(hashedPassword)).Error
	})
}

// SetupAdminProfileIfNotExists creates a default admin profile in the database
// if it doesn't already exist.
func SetupAdminProfileIfNotExists(db *gorm.DB, email string) {
	logger := slog.Default()
	hashedPassword, err := crypto.GeneratePasswordHash("password")
	if err != nil {
		logger.Error("Failed to generate password hash", slog.Any("error", err))
		return
	}
	err = sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Exec(`
            INSERT INTO profiles (email, encrypted_password, role, admin, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?, ?)
            ON CONFLICT(email) DO NOTHING
        `, NormalizeEmail(email), hashedPassword, RoleInvestor, true, time.Now().UTC(), time.Now().UTC()).Error
	})
	if err != nil {
		logger.Error("Failed to upsert admin profile", slog.String("email", email), slog.Any("error", err))
		return
	}
	logger.Info("Ensured admin profile exists", slog.String("email", email))
}
