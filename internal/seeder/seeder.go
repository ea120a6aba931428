// Package seeder populates a development database with realistic event data:
// participant profiles, allowlist entries and a partially filled match ledger.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"log/slog"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/karloscodes/cartridge"

	"matchdesk/internal/allowlist"
	"matchdesk/internal/matches"
	"matchdesk/internal/profiles"
	"matchdesk/internal/settings"
)

// Seeder handles the data seeding process.
type Seeder struct {
	DBManager     cartridge.DBManager
	Logger        *slog.Logger
	FounderCount  int
	InvestorCount int
}

// NewSeeder creates a new seeder instance
func NewSeeder(dbManager cartridge.DBManager, logger *slog.Logger, founders, investors int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		DBManager:     dbManager,
		Logger:        logger,
		FounderCount:  founders,
		InvestorCount: investors,
	}
}

// Run seeds profiles, allowlist entries and match edges.
func (s *Seeder) Run(ctx context.Context) error {
	start := time.Now()
	s.Logger.Info("Seeding database...",
		slog.Int("founders", s.FounderCount),
		slog.Int("investors", s.InvestorCount))

	db := s.DBManager.GetConnection()

	if err := settings.SetupDefaultSettings(db); err != nil {
		return fmt.Errorf("failed to set up default settings: %w", err)
	}

	founders, err := s.seedProfiles(ctx, profiles.RoleFounder, s.FounderCount)
	if err != nil {
		return err
	}
	investors, err := s.seedProfiles(ctx, profiles.RoleInvestor, s.InvestorCount)
	if err != nil {
		return err
	}

	edges, err := s.seedEdges(ctx, founders, investors)
	if err != nil {
		return err
	}

	s.Logger.Info("Seeding completed",
		slog.Int("profiles", len(founders)+len(investors)),
		slog.Int("edges", edges),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (s *Seeder) seedProfiles(ctx context.Context, role profiles.Role, count int) ([]*profiles.Profile, error) {
	db := s.DBManager.GetConnection()
	created := make([]*profiles.Profile, 0, count)

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		firstName := gofakeit.FirstName()
		lastName := gofakeit.LastName()
		email := strings.ToLower(fmt.Sprintf("%s.%s.%d@%s", firstName, lastName, i, gofakeit.DomainName()))

		headline := gofakeit.JobTitle()
		if role == profiles.RoleInvestor {
			headline = fmt.Sprintf("Partner at %s", gofakeit.Company())
		}

		if err := allowlist.Add(db, email, 0); err != nil {
			return nil, fmt.Errorf("failed to allowlist %s: %w", email, err)
		}

		profile, err := profiles.Create(db, profiles.CreateParams{
			Email:       email,
			Password:    "password-123",
			Role:        role,
			DisplayName: firstName + " " + lastName,
			Company:     gofakeit.Company(),
			Headline:    headline,
		})
		if err != nil {
			if errors.Is(err, profiles.ErrProfileExists) {
				continue
			}
			return nil, fmt.Errorf("failed to create %s profile: %w", role, err)
		}
		created = append(created, profile)
	}

	s.Logger.Info("Seeded profiles", slog.String("role", string(role)), slog.Int("count", len(created)))
	return created, nil
}

// seedEdges has each founder pick a handful of investors and some investors
// pick back, going through the service so the high priority quota holds.
func (s *Seeder) seedEdges(ctx context.Context, founders, investors []*profiles.Profile) (int, error) {
	if len(investors) == 0 {
		return 0, nil
	}

	db := s.DBManager.GetConnection()
	priorities := []matches.Priority{
		matches.PriorityHigh,
		matches.PriorityMedium,
		matches.PriorityMedium,
		matches.PriorityLow,
	}
	created := 0

	pick := func(viewer *profiles.Profile, pool []*profiles.Profile, picks int) error {
		for _, idx := range rand.Perm(len(pool))[:min(picks, len(pool))] {
			if err := ctx.Err(); err != nil {
				return err
			}
			counterpart := pool[idx]
			if counterpart.ID == viewer.ID {
				continue
			}

			priority := priorities[rand.IntN(len(priorities))]
			_, err := matches.SetPriority(db, viewer, counterpart.ID, priority)
			if err != nil {
				if errors.Is(err, matches.ErrQuotaExceeded) {
					continue
				}
				return fmt.Errorf("failed to seed edge: %w", err)
			}
			created++
		}
		return nil
	}

	for _, founder := range founders {
		if err := pick(founder, investors, 3+rand.IntN(5)); err != nil {
			return created, err
		}
	}
	for _, investor := range investors {
		if rand.IntN(2) == 0 {
			continue
		}
		if err := pick(investor, founders, 1+rand.IntN(4)); err != nil {
			return created, err
		}
	}

	return created, nil
}
