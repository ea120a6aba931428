// Package allowlist gates signup behind an admin-managed list of email addresses.
package allowlist

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// AllowedEmail is a single allowlist entry.
type AllowedEmail struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	AddedByID uint      `gorm:"not null" json:"added_by_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Add inserts an email into the allowlist. Adding an email that is already
// listed is a no-op, not an error.
func Add(db *gorm.DB, email string, addedByID uint) error {
	normalized := normalize(email)
	if normalized == "" {
		return errors.New("email cannot be empty")
	}

	logger := slog.Default()
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Exec(`
            INSERT INTO allowed_emails (email, added_by_id, created_at)
            VALUES (?, ?, ?)
            ON CONFLICT(email) DO NOTHING
        `, normalized, addedByID, time.Now().UTC()).Error
	})
}

// Remove deletes an email from the allowlist. Removing an absent email is a no-op.
func Remove(db *gorm.DB, email string) error {
	logger := slog.Default()
	return sqlite.PerformWrite(logger, db, func(tx *gorm.DB) error {
		return tx.Where("email = ?", normalize(email)).Delete(&AllowedEmail{}).Error
	})
}

// IsAllowed reports whether an email may sign up. Comparison is case-insensitive.
func IsAllowed(db *gorm.DB, email string) (bool, error) {
	var count int64
	err := db.Model(&AllowedEmail{}).Where("email = ?", normalize(email)).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check allowlist: %w", err)
	}
	return count > 0, nil
}

// List returns every allowlist entry, newest first.
func List(db *gorm.DB) ([]AllowedEmail, error) {
	var entries []AllowedEmail
	if err := db.Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list allowed emails: %w", err)
	}
	return entries, nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
