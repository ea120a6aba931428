package matches

import (
	"errors"
	"fmt"

	"log/slog"

	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"

	"matchdesk/internal/profiles"
)

// HighPriorityLimit is the maximum number of counterparts a participant may
// hold at high priority simultaneously.
const HighPriorityLimit = 5

// ErrNotAuthenticated is returned when no caller identity is available.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrQuotaExceeded is returned when a participant tries to mark a sixth
// counterpart as high priority. Reported to the caller as a user-facing
// rejection, never retried.
var ErrQuotaExceeded = fmt.Errorf("high priority limit of %d reached", HighPriorityLimit)

// ErrInvalidPriority is returned for priority values outside the known set.
var ErrInvalidPriority = errors.New("invalid priority")

// InvalidPairError is returned when a viewer/counterpart pair cannot be
// resolved: unknown ids, self-matching, or a role combination the event does
// not allow.
type InvalidPairError struct {
	ViewerID      uint
	CounterpartID uint
	Reason        string
}

func (e *InvalidPairError) Error() string {
	return fmt.Sprintf("invalid pair (%d, %d): %s", e.ViewerID, e.CounterpartID, e.Reason)
}

// Result is the outcome of a ledger mutation. It carries the pre-mutation
// snapshot so projections can apply a delta without re-reading post-mutation
// state.
type Result struct {
	// Edge is the committed row; nil when the mutation removed the row.
	Edge *Edge `json:"edge"`
	// Removed indicates the pair returned to the no-relationship state.
	Removed bool `json:"removed"`
	// PreviousPriority and PreviousSetByID snapshot the edge before the
	// mutation (none/0 when no edge existed).
	PreviousPriority Priority `json:"previous_priority"`
	PreviousSetByID  uint     `json:"previous_set_by_id"`
	// HighPriorityUsed is the viewer's high priority count after the mutation,
	// recomputed inside the same transaction.
	HighPriorityUsed int `json:"high_priority_used"`
}

// SetPriority records the viewer's interest level on a counterpart. Setting
// PriorityNone removes the edge entirely. The high priority quota is enforced
// inside the same immediate write transaction as the upsert, so two racing
// submissions cannot both slip past the cap.
func SetPriority(db *gorm.DB, viewer *profiles.Profile, counterpartID uint, priority Priority) (*Result, error) {
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, priority)
	}
	counterpart, err := resolvePair(db, viewer, counterpartID)
	if err != nil {
		return nil, err
	}

	// Clearing priority without a not-interested flag means the row is removed,
	// not retained empty.
	if priority == PriorityNone {
		return removeEdge(db, viewer, counterpart)
	}

	var result *Result
	err = sqlite.PerformWrite(slog.Default(), db, func(tx *gorm.DB) error {
		existing, err := GetEdge(tx, viewer.ID, counterpart.ID)
		if err != nil {
			return err
		}

		if priority == PriorityHigh {
			// Re-affirming an edge the viewer already holds at high priority is
			// idempotent and never counts as an extra pick.
			alreadyHigh := existing != nil && existing.Priority == PriorityHigh && existing.SetByID == viewer.ID
			if !alreadyHigh {
				used, err := CountHighPrioritySetBy(tx, viewer.ID)
				if err != nil {
					return err
				}
				if used >= HighPriorityLimit {
					return ErrQuotaExceeded
				}
			}
		}

		edge := buildEdge(viewer, counterpart, priority, false)
		saved, err := UpsertEdge(tx, edge)
		if err != nil {
			return err
		}

		used, err := CountHighPrioritySetBy(tx, viewer.ID)
		if err != nil {
			return err
		}

		result = &Result{
			Edge:             saved,
			HighPriorityUsed: int(used),
		}
		snapshotPrevious(result, existing)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Default().Debug("Priority set",
		slog.Uint64("viewerID", uint64(viewer.ID)),
		slog.Uint64("counterpartID", uint64(counterpart.ID)),
		slog.String("priority", string(priority)),
		slog.Int("highPriorityUsed", result.HighPriorityUsed))
	return result, nil
}

// SetNotInterested flags a counterpart as not interested. Any active priority
// on the edge is cleared; the viewer's quota is freed accordingly. No quota
// check applies because negating interest never consumes quota.
func SetNotInterested(db *gorm.DB, viewer *profiles.Profile, counterpartID uint) (*Result, error) {
	counterpart, err := resolvePair(db, viewer, counterpartID)
	if err != nil {
		return nil, err
	}

	var result *Result
	err = sqlite.PerformWrite(slog.Default(), db, func(tx *gorm.DB) error {
		existing, err := GetEdge(tx, viewer.ID, counterpart.ID)
		if err != nil {
			return err
		}

		edge := buildEdge(viewer, counterpart, PriorityNone, true)
		saved, err := UpsertEdge(tx, edge)
		if err != nil {
			return err
		}

		used, err := CountHighPrioritySetBy(tx, viewer.ID)
		if err != nil {
			return err
		}

		result = &Result{
			Edge:             saved,
			HighPriorityUsed: int(used),
		}
		snapshotPrevious(result, existing)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RemoveMatch deletes the edge between the viewer and a counterpart, returning
// the pair to the no-relationship state. Removing an absent edge succeeds
// silently.
func RemoveMatch(db *gorm.DB, viewer *profiles.Profile, counterpartID uint) (*Result, error) {
	counterpart, err := resolvePair(db, viewer, counterpartID)
	if err != nil {
		return nil, err
	}
	return removeEdge(db, viewer, counterpart)
}

func removeEdge(db *gorm.DB, viewer, counterpart *profiles.Profile) (*Result, error) {
	var result *Result
	err := sqlite.PerformWrite(slog.Default(), db, func(tx *gorm.DB) error {
		existing, err := GetEdge(tx, viewer.ID, counterpart.ID)
		if err != nil {
			return err
		}

		if err := DeleteEdge(tx, viewer.ID, counterpart.ID); err != nil {
			return err
		}

		used, err := CountHighPrioritySetBy(tx, viewer.ID)
		if err != nil {
			return err
		}

		result = &Result{
			Removed:          true,
			HighPriorityUsed: int(used),
		}
		snapshotPrevious(result, existing)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// resolvePair validates the viewer identity, the counterpart's existence, and
// the role combination. Founders may only match investors; investors may match
// founders or other investors.
func resolvePair(db *gorm.DB, viewer *profiles.Profile, counterpartID uint) (*profiles.Profile, error) {
	if viewer == nil || viewer.ID == 0 {
		return nil, ErrNotAuthenticated
	}
	if counterpartID == viewer.ID {
		return nil, &InvalidPairError{ViewerID: viewer.ID, CounterpartID: counterpartID, Reason: "cannot match yourself"}
	}

	counterpart, err := profiles.FindByID(db, counterpartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &InvalidPairError{ViewerID: viewer.ID, CounterpartID: counterpartID, Reason: "counterpart does not exist"}
		}
		return nil, fmt.Errorf("failed to resolve counterpart: %w", err)
	}

	if !viewer.Role.Valid() || !counterpart.Role.Valid() {
		return nil, &InvalidPairError{ViewerID: viewer.ID, CounterpartID: counterpartID, Reason: "unknown role"}
	}
	if viewer.Role == profiles.RoleFounder && counterpart.Role == profiles.RoleFounder {
		return nil, &InvalidPairError{ViewerID: viewer.ID, CounterpartID: counterpartID, Reason: "founders can only match investors"}
	}

	return counterpart, nil
}

func buildEdge(viewer, counterpart *profiles.Profile, priority Priority, notInterested bool) Edge {
	aID, bID := PairKey(viewer.ID, counterpart.ID)
	edge := Edge{
		PartyAID:      aID,
		PartyBID:      bID,
		PartyARole:    viewer.Role,
		PartyBRole:    counterpart.Role,
		Priority:      priority,
		NotInterested: notInterested,
		SetByID:       viewer.ID,
	}
	if aID != viewer.ID {
		edge.PartyARole = counterpart.Role
		edge.PartyBRole = viewer.Role
	}
	return edge
}

func snapshotPrevious(result *Result, existing *Edge) {
	if existing == nil {
		result.PreviousPriority = PriorityNone
		result.PreviousSetByID = 0
		return
	}
	result.PreviousPriority = existing.Priority
	result.PreviousSetByID = existing.SetByID
}
