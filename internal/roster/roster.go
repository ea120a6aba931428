// Package roster maintains the per-viewer projection of the match ledger: the
// list of counterpart profiles annotated with the viewer's current edge, plus
// a cached high priority counter.
package roster

import (
	"context"
	"errors"
	"fmt"

	"log/slog"

	"gorm.io/gorm"

	"matchdesk/internal/matches"
	"matchdesk/internal/pkg/async"
	"matchdesk/internal/profiles"
)

// Card is one counterpart with the viewer's annotation on it.
type Card struct {
	Profile       profiles.Profile `json:"profile"`
	Priority      matches.Priority `json:"priority"`
	NotInterested bool             `json:"not_interested"`
	PickedByMe    bool             `json:"picked_by_me"`
}

// Roster is the materialized view one viewer reads. It is kept consistent
// with the ledger after every mutation through Apply, without a full re-fetch.
type Roster struct {
	ViewerID         uint          `json:"viewer_id"`
	ViewerRole       profiles.Role `json:"viewer_role"`
	HighPriorityUsed int           `json:"high_priority_used"`
	Cards            []Card        `json:"cards"`

	index map[uint]int
}

// Build assembles a fresh roster from the ledger. Counterparts, edges, and the
// quota count are fetched concurrently.
func Build(db *gorm.DB, viewer *profiles.Profile) (*Roster, error) {
	if viewer == nil || viewer.ID == 0 {
		return nil, matches.ErrNotAuthenticated
	}

	pool := async.NewPool(3)
	results := pool.Execute(context.Background(), []async.Task{
		{
			Name: "counterparts",
			Execute: func() (interface{}, error) {
				return profiles.ListCounterparts(db, viewer)
			},
		},
		{
			Name: "edges",
			Execute: func() (interface{}, error) {
				return matches.ListEdgesForProfile(db, viewer.ID)
			},
		},
		{
			Name: "quota",
			Execute: func() (interface{}, error) {
				return matches.CountHighPrioritySetBy(db, viewer.ID)
			},
		},
	})

	for _, result := range results {
		if result.Err != nil {
			return nil, fmt.Errorf("failed to build roster: %w", result.Err)
		}
	}
	if len(results) != 3 {
		return nil, errors.New("failed to build roster: incomplete results")
	}

	counterparts := results["counterparts"].Data.([]profiles.Profile)
	edges := results["edges"].Data.([]matches.Edge)
	used := results["quota"].Data.(int64)

	edgeByCounterpart := make(map[uint]*matches.Edge, len(edges))
	for i := range edges {
		edgeByCounterpart[edges[i].OtherPartyID(viewer.ID)] = &edges[i]
	}

	roster := &Roster{
		ViewerID:         viewer.ID,
		ViewerRole:       viewer.Role,
		HighPriorityUsed: int(used),
		Cards:            make([]Card, 0, len(counterparts)),
		index:            make(map[uint]int, len(counterparts)),
	}
	for _, counterpart := range counterparts {
		card := Card{Profile: counterpart}
		if edge, ok := edgeByCounterpart[counterpart.ID]; ok {
			card.Priority = edge.Priority
			card.NotInterested = edge.NotInterested
			card.PickedByMe = edge.SetBy(viewer.ID)
		}
		roster.index[counterpart.ID] = len(roster.Cards)
		roster.Cards = append(roster.Cards, card)
	}
	return roster, nil
}

// Card returns the card for a counterpart, if it is on the roster.
func (r *Roster) Card(counterpartID uint) (*Card, bool) {
	idx, ok := r.index[counterpartID]
	if !ok {
		return nil, false
	}
	return &r.Cards[idx], true
}

// Apply folds a committed mutation into the roster. This is the one reducer
// every call site shares: it updates the single affected card and adjusts the
// quota counter from the result's pre-mutation snapshot, never from
// post-mutation reads. Call it only after the service confirms success;
// failed mutations must leave the roster untouched.
func (r *Roster) Apply(counterpartID uint, result *matches.Result) {
	if result == nil {
		return
	}

	previousCounted := result.PreviousPriority == matches.PriorityHigh &&
		result.PreviousSetByID == r.ViewerID
	nowCounted := !result.Removed && result.Edge != nil &&
		result.Edge.Priority == matches.PriorityHigh &&
		result.Edge.SetByID == r.ViewerID

	delta := 0
	if nowCounted && !previousCounted {
		delta = 1
	} else if previousCounted && !nowCounted {
		delta = -1
	}
	r.HighPriorityUsed += delta

	// The service recomputes the count inside the write transaction; if the
	// delta disagrees the roster was stale, so snap to the committed value.
	if result.HighPriorityUsed != r.HighPriorityUsed {
		slog.Default().Debug("Roster quota counter out of sync, reconciling",
			slog.Uint64("viewerID", uint64(r.ViewerID)),
			slog.Int("local", r.HighPriorityUsed),
			slog.Int("committed", result.HighPriorityUsed))
		r.HighPriorityUsed = result.HighPriorityUsed
	}

	card, ok := r.Card(counterpartID)
	if !ok {
		return
	}
	if result.Removed || result.Edge == nil {
		card.Priority = matches.PriorityNone
		card.NotInterested = false
		card.PickedByMe = false
		return
	}
	card.Priority = result.Edge.Priority
	card.NotInterested = result.Edge.NotInterested
	card.PickedByMe = result.Edge.SetByID == r.ViewerID
}
