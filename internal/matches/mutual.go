package matches

import (
	"gorm.io/gorm"

	"matchdesk/internal/profiles"
)

// MutualMatch is a derived view of an edge with an active priority, seen from
// one participant's perspective. It is never stored.
//
// Only one row exists per pair, so the model cannot represent both sides
// independently expressing interest; SetByID only records who most recently
// wrote the row. PickedByMe distinguishes "I picked them" from "they picked
// me" on that basis.
type MutualMatch struct {
	CounterpartID uint     `json:"counterpart_id"`
	Priority      Priority `json:"priority"`
	PickedByMe    bool     `json:"picked_by_me"`
	Edge          Edge     `json:"edge"`
}

// MutualMatches returns the viewer's edges that carry an active priority and
// are not flagged not-interested, bucketed by who wrote them.
func MutualMatches(db *gorm.DB, viewer *profiles.Profile) ([]MutualMatch, error) {
	if viewer == nil || viewer.ID == 0 {
		return nil, ErrNotAuthenticated
	}

	edges, err := ListEdgesForProfile(db, viewer.ID)
	if err != nil {
		return nil, err
	}

	mutual := make([]MutualMatch, 0, len(edges))
	for _, edge := range edges {
		if !edge.Priority.Active() || edge.NotInterested {
			continue
		}
		mutual = append(mutual, MutualMatch{
			CounterpartID: edge.OtherPartyID(viewer.ID),
			Priority:      edge.Priority,
			PickedByMe:    edge.SetBy(viewer.ID),
			Edge:          edge,
		})
	}
	return mutual, nil
}
