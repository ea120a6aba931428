package roster

import (
	"errors"
	"time"

	"log/slog"

	"github.com/karloscodes/cartridge/cache"
	"gorm.io/gorm"

	"matchdesk/internal/profiles"
)

var viewerCache *cache.Cache[uint, *Roster]

// SetupCache initializes the per-viewer roster cache. Entries expire after a
// minute; mutations invalidate eagerly via Invalidate.
func SetupCache(db *gorm.DB, logger *slog.Logger) {
	fetchFunc := func(viewerID uint) (*Roster, error) {
		viewer, err := profiles.FindByID(db, viewerID)
		if err != nil {
			return nil, err
		}
		return Build(db, viewer)
	}
	viewerCache = cache.NewCache[uint, *Roster](logger, time.Minute, fetchFunc)
}

// ForViewer returns the cached roster for a viewer, building one on miss.
// Falls back to a direct build when the cache is not set up (tests, CLI).
func ForViewer(db *gorm.DB, viewer *profiles.Profile) (*Roster, error) {
	if viewer == nil || viewer.ID == 0 {
		return nil, errors.New("viewer is required")
	}
	if viewerCache == nil {
		return Build(db, viewer)
	}
	return viewerCache.Get(viewer.ID)
}

// Invalidate drops all cached rosters. Every edge mutation touches two
// viewers' rosters, so the whole cache is cleared rather than tracking both
// sides individually.
func Invalidate() {
	if viewerCache != nil {
		viewerCache.Clear()
	}
}
