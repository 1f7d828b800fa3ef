package service

import (
	"context"
	"fmt"

	"pickmarket/models"
)

type pickService struct {
	uowFactory UnitOfWorkFactory
}

// NewPickService creates a new pick service
func NewPickService(uowFactory UnitOfWorkFactory) PickService {
	return &pickService{
		uowFactory: uowFactory,
	}
}

// CreatePick publishes a new pick. The selected outcome is validated against
// the stored match snapshot and its name and point are captured on the pick,
// so later evaluation never depends on outcome ordering in a fresh snapshot.
func (s *pickService) CreatePick(ctx context.Context, input PickInput) (*models.Pick, error) {
	if input.OutcomeName == "" {
		return nil, fmt.Errorf("outcome name is required")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	handicapper, err := uow.UserRepository().GetByID(ctx, input.HandicapperID)
	if err != nil {
		return nil, fmt.Errorf("failed to get handicapper: %w", err)
	}
	if handicapper == nil {
		return nil, fmt.Errorf("handicapper %d not found", input.HandicapperID)
	}
	if handicapper.Role != models.UserRoleHandicapper {
		return nil, fmt.Errorf("user %d is not a handicapper", input.HandicapperID)
	}

	match, err := uow.MatchRepository().GetByID(ctx, input.MatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match == nil {
		return nil, fmt.Errorf("match %d not found", input.MatchID)
	}

	bookmaker := match.FindBookmaker(input.BookmakerKey)
	if bookmaker == nil {
		return nil, fmt.Errorf("bookmaker %q not found on match %d", input.BookmakerKey, input.MatchID)
	}
	market := bookmaker.FindMarket(input.MarketKey)
	if market == nil {
		return nil, fmt.Errorf("market %q not offered by bookmaker %q", input.MarketKey, input.BookmakerKey)
	}
	outcome := market.FindOutcome(input.OutcomeName)
	if outcome == nil {
		return nil, fmt.Errorf("outcome %q not found in market %q", input.OutcomeName, input.MarketKey)
	}

	pick := &models.Pick{
		HandicapperID: input.HandicapperID,
		Title:         input.Title,
		League:        input.League,
		MatchID:       input.MatchID,
		BookmakerKey:  input.BookmakerKey,
		MarketKey:     input.MarketKey,
		OutcomeName:   outcome.Name,
		OutcomePoint:  outcome.Point,
		PlayType:      input.PlayType,
		Analysis:      input.Analysis,
		Status:        models.PickStatusLive,
	}
	if err := uow.PickRepository().Create(ctx, pick); err != nil {
		return nil, fmt.Errorf("failed to create pick: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return pick, nil
}
