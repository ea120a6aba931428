// Package matches implements the priority match ledger: the canonical
// relationship rows between event participants and the business rules that
// mutate them.
package matches

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"matchdesk/internal/profiles"
)

// Priority is the interest level one party places on a counterpart.
// The empty string means no active priority.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityNone   Priority = ""
)

// Valid reports whether p is a known priority level, including none.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow, PriorityNone:
		return true
	}
	return false
}

// Active reports whether p expresses interest.
func (p Priority) Active() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Edge is the single canonical relationship row between two participants.
// The pair is stored unordered: PartyAID is always the smaller profile id, and
// the unique index on (party_a_id, party_b_id) guarantees at most one row per
// pair. Roles are stored per party, so investor-investor edges need no special
// column overloading.
type Edge struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	PartyAID      uint          `gorm:"not null;uniqueIndex:idx_edges_pair,priority:1" json:"party_a_id"`
	PartyBID      uint          `gorm:"not null;uniqueIndex:idx_edges_pair,priority:2;index" json:"party_b_id"`
	PartyARole    profiles.Role `gorm:"not null" json:"party_a_role"`
	PartyBRole    profiles.Role `gorm:"not null" json:"party_b_role"`
	Priority      Priority      `gorm:"not null;default:''" json:"priority"`
	NotInterested bool          `gorm:"not null;default:false" json:"not_interested"`
	SetByID       uint          `gorm:"not null;index" json:"set_by_id"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// OtherPartyID returns the id of the party that is not profileID. Returns 0 if
// profileID is not on this edge.
func (e *Edge) OtherPartyID(profileID uint) uint {
	switch profileID {
	case e.PartyAID:
		return e.PartyBID
	case e.PartyBID:
		return e.PartyAID
	}
	return 0
}

// SetBy reports whether profileID wrote the current state of this edge.
func (e *Edge) SetBy(profileID uint) bool {
	return e.SetByID == profileID
}

// ErrConflict signals a uniqueness violation outside the upsert path. This is
// an integration bug, not a retryable condition.
var ErrConflict = errors.New("conflicting edge write")

// PairKey returns the two profile ids in canonical storage order.
func PairKey(x, y uint) (uint, uint) {
	if x > y {
		return y, x
	}
	return x, y
}

// GetEdge retrieves the edge for a pair, in either id order.
// Returns (nil, nil) when no edge exists.
func GetEdge(db *gorm.DB, xID, yID uint) (*Edge, error) {
	aID, bID := PairKey(xID, yID)
	var edge Edge
	err := db.Where("party_a_id = ? AND party_b_id = ?", aID, bID).First(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get edge: %w", err)
	}
	return &edge, nil
}

// UpsertEdge inserts or overwrites the single row for the edge's pair.
// CreatedAt is preserved across overwrites. The caller is responsible for
// canonical party ordering and for running inside a write transaction.
func UpsertEdge(db *gorm.DB, edge Edge) (*Edge, error) {
	if edge.PartyAID >= edge.PartyBID {
		return nil, fmt.Errorf("edge parties not in canonical order: %d >= %d", edge.PartyAID, edge.PartyBID)
	}

	now := time.Now().UTC()
	err := db.Exec(`
        INSERT INTO edges (party_a_id, party_b_id, party_a_role, party_b_role, priority, not_interested, set_by_id, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(party_a_id, party_b_id) DO UPDATE SET
            priority = excluded.priority,
            not_interested = excluded.not_interested,
            set_by_id = excluded.set_by_id,
            updated_at = excluded.updated_at
    `, edge.PartyAID, edge.PartyBID, edge.PartyARole, edge.PartyBRole,
		edge.Priority, edge.NotInterested, edge.SetByID, now, now).Error
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return nil, fmt.Errorf("failed to upsert edge: %w", err)
	}

	saved, err := GetEdge(db, edge.PartyAID, edge.PartyBID)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, fmt.Errorf("%w: upserted edge not found", ErrConflict)
	}
	return saved, nil
}

// DeleteEdge removes the row for a pair. Deleting an absent edge is a no-op.
func DeleteEdge(db *gorm.DB, xID, yID uint) error {
	aID, bID := PairKey(xID, yID)
	err := db.Where("party_a_id = ? AND party_b_id = ?", aID, bID).Delete(&Edge{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete edge: %w", err)
	}
	return nil
}

// ListEdgesForProfile returns every edge the profile appears on, either side.
func ListEdgesForProfile(db *gorm.DB, profileID uint) ([]Edge, error) {
	var edges []Edge
	err := db.Where("party_a_id = ? OR party_b_id = ?", profileID, profileID).
		Order("updated_at DESC").Find(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list edges for profile: %w", err)
	}
	return edges, nil
}

// ListEdgesAll returns a complete snapshot of the ledger, in stable id order.
// Used by the admin export.
func ListEdgesAll(db *gorm.DB) ([]Edge, error) {
	var edges []Edge
	if err := db.Order("id ASC").Find(&edges).Error; err != nil {
		return nil, fmt.Errorf("failed to list edges: %w", err)
	}
	return edges, nil
}

// CountHighPrioritySetBy counts the edges a profile has actively marked high
// priority. Only edges the profile itself wrote count toward its quota.
func CountHighPrioritySetBy(db *gorm.DB, profileID uint) (int64, error) {
	var count int64
	err := db.Model(&Edge{}).
		Where("set_by_id = ? AND priority = ?", profileID, PriorityHigh).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count high priority edges: %w", err)
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
