package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"pickmarket/events"
	"pickmarket/models"
)

type syncService struct {
	uowFactory UnitOfWorkFactory
	feed       OddsFeed
	bus        *events.Bus
}

// NewSyncService creates a new odds sync service
func NewSyncService(uowFactory UnitOfWorkFactory, feed OddsFeed, bus *events.Bus) SyncService {
	return &syncService{
		uowFactory: uowFactory,
		feed:       feed,
		bus:        bus,
	}
}

// SyncSportsData refreshes the league catalog and ingests match snapshots
// for every active league. Each league syncs in its own transaction so a
// failing league never loses the others' data; failures are counted and the
// league is retried on the next run.
func (s *syncService) SyncSportsData(ctx context.Context) (*SyncResult, error) {
	leagues, err := s.feed.FetchLeagues(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leagues: %w", err)
	}

	result := &SyncResult{}
	if err := s.upsertLeagues(ctx, leagues); err != nil {
		return nil, err
	}
	result.Leagues = len(leagues)

	for _, league := range leagues {
		if !league.Active || league.HasOutrights {
			continue
		}
		created, err := s.syncLeagueMatches(ctx, league.Key)
		if err != nil {
			log.WithFields(log.Fields{
				"leagueKey": league.Key,
				"error":     err,
			}).Error("Failed to sync league matches")
			result.LeagueErrors++
			continue
		}
		result.MatchesCreated += created
	}

	log.WithFields(log.Fields{
		"leagues":        result.Leagues,
		"matchesCreated": result.MatchesCreated,
		"leagueErrors":   result.LeagueErrors,
	}).Info("Sports data sync complete")

	// Sync is not settlement-critical, so the event goes straight to the
	// bus rather than through a transactional publish
	s.bus.Emit(ctx, events.OddsSyncedEvent{
		Leagues:        result.Leagues,
		MatchesCreated: result.MatchesCreated,
	})
	return result, nil
}

func (s *syncService) upsertLeagues(ctx context.Context, leagues []models.League) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	for i := range leagues {
		if err := uow.LeagueRepository().Upsert(ctx, &leagues[i]); err != nil {
			return fmt.Errorf("failed to upsert league %s: %w", leagues[i].Key, err)
		}
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// syncLeagueMatches ingests unseen matches for one league. Stored snapshots
// are immutable, so an already known event is left untouched.
func (s *syncService) syncLeagueMatches(ctx context.Context, leagueKey string) (int, error) {
	odds, err := s.feed.FetchOdds(ctx, leagueKey)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch odds: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	created := 0
	for i := range odds {
		existing, err := uow.MatchRepository().GetByExternalID(ctx, odds[i].ExternalID)
		if err != nil {
			return 0, fmt.Errorf("failed to check match %s: %w", odds[i].ExternalID, err)
		}
		if existing != nil {
			continue
		}

		match := &models.Match{
			ExternalID:   odds[i].ExternalID,
			SportKey:     odds[i].SportKey,
			SportTitle:   odds[i].SportTitle,
			CommenceTime: odds[i].CommenceTime,
			HomeTeam:     odds[i].HomeTeam,
			AwayTeam:     odds[i].AwayTeam,
			Bookmakers:   odds[i].Bookmakers,
		}
		if err := uow.MatchRepository().Create(ctx, match); err != nil {
			return 0, fmt.Errorf("failed to create match %s: %w", odds[i].ExternalID, err)
		}
		created++
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}
