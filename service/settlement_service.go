package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"pickmarket/events"
	"pickmarket/models"
)

// maxConcurrentSportFetches bounds the snapshot prefetch fan-out so a pass
// with many distinct sports does not burst the feed's rate limit.
const maxConcurrentSportFetches = 4

type settlementService struct {
	uowFactory     UnitOfWorkFactory
	feed           OddsFeed
	evaluator      OutcomeEvaluator
	packageService PackageService
	payout         PayoutPolicy
}

// NewSettlementService creates a new settlement service
func NewSettlementService(uowFactory UnitOfWorkFactory, feed OddsFeed, evaluator OutcomeEvaluator, packageService PackageService, payout PayoutPolicy) SettlementService {
	return &settlementService{
		uowFactory:     uowFactory,
		feed:           feed,
		evaluator:      evaluator,
		packageService: packageService,
		payout:         payout,
	}
}

// RunSettlementPass evaluates every live pick against a fresh odds snapshot.
// Each sport's snapshot is fetched once per pass regardless of how many picks
// reference it, and each pick resolves in its own transaction so one failure
// never blocks the rest of the batch.
func (s *settlementService) RunSettlementPass(ctx context.Context) (*models.SettlementSummary, error) {
	summary := &models.SettlementSummary{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}

	logger := log.WithField("runID", summary.RunID)

	picks, matches, err := s.loadLivePicks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load live picks: %w", err)
	}
	summary.Live = len(picks)

	if len(picks) == 0 {
		summary.Duration = time.Since(summary.StartedAt)
		logger.Info("Settlement pass found no live picks")
		return summary, nil
	}

	snapshots := s.fetchSnapshots(ctx, matches, summary)
	logger.WithFields(log.Fields{
		"livePicks":     summary.Live,
		"sportsFetched": summary.SportsFetched,
		"fetchErrors":   summary.SportFetchErrors,
	}).Info("Starting settlement pass")

	for _, pick := range picks {
		match := matches[pick.MatchID]
		if match == nil {
			logger.WithField("pickID", pick.ID).Warn("Pick references missing match, skipping")
			summary.Skipped++
			continue
		}

		fresh, ok := snapshots[match.SportKey]
		if !ok {
			// Sport fetch failed this pass; the pick stays live and is
			// retried next time
			summary.Skipped++
			continue
		}

		evaluation := s.evaluator.Evaluate(pick, match, fresh[match.ExternalID])
		if evaluation.Err != nil {
			logger.WithFields(log.Fields{
				"pickID": pick.ID,
				"error":  evaluation.Err,
			}).Warn("Market type has no win rule, treating pick as lost")
		}
		if evaluation.Outcome == models.PickOutcomePending {
			summary.Pending++
			continue
		}

		resolution, err := s.resolvePick(ctx, pick, evaluation)
		if err != nil {
			if errors.Is(err, ErrAlreadyResolved) {
				summary.Skipped++
				continue
			}
			logger.WithFields(log.Fields{
				"pickID": pick.ID,
				"error":  err,
			}).Error("Failed to resolve pick")
			summary.Errored++
			continue
		}

		switch resolution.Outcome {
		case models.PickOutcomeWon:
			summary.Won++
		case models.PickOutcomeLost:
			summary.Lost++
		}

		// The pick itself resolved; a package notification failure is
		// tracked in its own bucket so the pick's count stays accurate
		settled, err := s.reevaluatePackagesFor(ctx, pick.ID)
		if err != nil {
			logger.WithFields(log.Fields{
				"pickID": pick.ID,
				"error":  err,
			}).Error("Failed to reevaluate packages for resolved pick")
			summary.PackageErrors++
			continue
		}
		summary.PackagesSettled += settled
	}

	summary.Duration = time.Since(summary.StartedAt)
	logger.WithFields(log.Fields{
		"won":             summary.Won,
		"lost":            summary.Lost,
		"pending":         summary.Pending,
		"skipped":         summary.Skipped,
		"errored":         summary.Errored,
		"packagesSettled": summary.PackagesSettled,
		"packageErrors":   summary.PackageErrors,
		"duration":        summary.Duration,
	}).Info("Settlement pass complete")

	return summary, nil
}

// loadLivePicks reads the live picks and their stored match snapshots in one
// read transaction. The map is keyed by match id; a pick whose match row is
// gone maps to nil.
func (s *settlementService) loadLivePicks(ctx context.Context) ([]*models.Pick, map[int64]*models.Match, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	picks, err := uow.PickRepository().GetLive(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get live picks: %w", err)
	}

	matches := make(map[int64]*models.Match)
	for _, pick := range picks {
		if _, seen := matches[pick.MatchID]; seen {
			continue
		}
		match, err := uow.MatchRepository().GetByID(ctx, pick.MatchID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get match %d: %w", pick.MatchID, err)
		}
		matches[pick.MatchID] = match
	}

	if err := uow.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return picks, matches, nil
}

// fetchSnapshots fetches one fresh odds snapshot per distinct sport, with
// bounded concurrency. Failed sports are recorded on the summary and omitted
// from the result so their picks are skipped rather than mis-settled.
func (s *settlementService) fetchSnapshots(ctx context.Context, matches map[int64]*models.Match, summary *models.SettlementSummary) map[string]map[string]*models.MatchOdds {
	sports := make(map[string]struct{})
	for _, match := range matches {
		if match != nil {
			sports[match.SportKey] = struct{}{}
		}
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		snapshots = make(map[string]map[string]*models.MatchOdds)
		sem       = make(chan struct{}, maxConcurrentSportFetches)
	)

	for sportKey := range sports {
		wg.Add(1)
		go func(sportKey string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			odds, err := s.feed.FetchOdds(ctx, sportKey)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.WithFields(log.Fields{
					"sportKey": sportKey,
					"error":    err,
				}).Warn("Failed to fetch odds snapshot, skipping sport for this pass")
				summary.SportFetchErrors++
				return
			}

			byEvent := make(map[string]*models.MatchOdds, len(odds))
			for i := range odds {
				byEvent[odds[i].ExternalID] = &odds[i]
			}
			snapshots[sportKey] = byEvent
			summary.SportsFetched++
		}(sportKey)
	}

	wg.Wait()
	return snapshots
}

// resolvePick transitions the pick to its terminal status and applies the
// resulting ledger credits, all in one transaction. The guarded status
// transition makes the whole operation safe against a concurrent pass: the
// loser of the race gets ErrAlreadyResolved and rolls back before touching
// any balance.
func (s *settlementService) resolvePick(ctx context.Context, pick *models.Pick, evaluation Evaluation) (*models.PickResolution, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	var status models.PickStatus
	switch evaluation.Outcome {
	case models.PickOutcomeWon:
		status = models.PickStatusWon
	case models.PickOutcomeLost:
		status = models.PickStatusLost
	default:
		return nil, fmt.Errorf("cannot resolve pick %d to %s", pick.ID, evaluation.Outcome)
	}

	if err := uow.PickRepository().TransitionStatus(ctx, pick.ID, models.PickStatusLive, status); err != nil {
		return nil, err
	}

	purchase, err := uow.PurchaseRepository().GetByPickID(ctx, pick.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}

	resolution := &models.PickResolution{
		Pick:      pick,
		Outcome:   evaluation.Outcome,
		Purchased: purchase != nil,
	}

	// Unsold picks settle with no balance movement
	if purchase != nil {
		if err := s.creditResolution(ctx, uow, pick, purchase, evaluation, resolution); err != nil {
			return nil, err
		}
	}

	uow.EventBus().Publish(events.PickResolvedEvent{
		PickID:           pick.ID,
		HandicapperID:    pick.HandicapperID,
		Status:           status,
		Outcome:          evaluation.Outcome,
		UserCredit:       resolution.UserCredit,
		HandicapperShare: resolution.HandicapperShare,
		Purchased:        resolution.Purchased,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return resolution, nil
}

// creditResolution applies the payout policy for a purchased pick. Each
// credit carries an idempotency key derived from the pick and resolution
// type, so a retried resolution can never double-pay.
func (s *settlementService) creditResolution(ctx context.Context, uow UnitOfWork, pick *models.Pick, purchase *models.Purchase, evaluation Evaluation, resolution *models.PickResolution) error {
	pickID := pick.ID
	relatedType := models.RelatedTypePick

	switch evaluation.Outcome {
	case models.PickOutcomeWon:
		resolution.UserCredit = s.payout.UserBonus(evaluation.Price)
		resolution.HandicapperShare = s.payout.HandicapperShare(purchase.Amount, evaluation.Price)

		if err := ApplyLedgerCredit(ctx, uow, &models.LedgerEntry{
			UserID:         purchase.UserID,
			Delta:          resolution.UserCredit,
			Reason:         models.LedgerReasonPickWonUser,
			IdempotencyKey: fmt.Sprintf("pick:%d:won:user", pickID),
			RelatedID:      &pickID,
			RelatedType:    &relatedType,
			Metadata: map[string]any{
				"price": evaluation.Price,
			},
		}); err != nil {
			return fmt.Errorf("failed to credit buyer: %w", err)
		}

		if err := ApplyLedgerCredit(ctx, uow, &models.LedgerEntry{
			UserID:         pick.HandicapperID,
			Delta:          resolution.HandicapperShare,
			Reason:         models.LedgerReasonPickWonHandicapper,
			IdempotencyKey: fmt.Sprintf("pick:%d:won:handicapper", pickID),
			RelatedID:      &pickID,
			RelatedType:    &relatedType,
			Metadata: map[string]any{
				"price": evaluation.Price,
				"stake": purchase.Amount,
			},
		}); err != nil {
			return fmt.Errorf("failed to credit handicapper: %w", err)
		}

	case models.PickOutcomeLost:
		resolution.UserCredit = s.payout.ConsolationCredit

		if err := ApplyLedgerCredit(ctx, uow, &models.LedgerEntry{
			UserID:         purchase.UserID,
			Delta:          resolution.UserCredit,
			Reason:         models.LedgerReasonPickLostConsolation,
			IdempotencyKey: fmt.Sprintf("pick:%d:lost:consolation", pickID),
			RelatedID:      &pickID,
			RelatedType:    &relatedType,
		}); err != nil {
			return fmt.Errorf("failed to credit consolation: %w", err)
		}
	}

	return nil
}

// reevaluatePackagesFor notifies the package aggregator about a resolved
// pick. The lookup runs in its own short read transaction; each package then
// settles independently.
func (s *settlementService) reevaluatePackagesFor(ctx context.Context, pickID int64) (int, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	packages, err := uow.PackageRepository().GetGuaranteedByPick(ctx, pickID)
	if err != nil {
		uow.Rollback()
		return 0, fmt.Errorf("failed to get guaranteed packages: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	settled := 0
	for _, pkg := range packages {
		settlement, err := s.packageService.ReevaluatePackage(ctx, pkg.ID)
		if err != nil {
			return settled, fmt.Errorf("failed to reevaluate package %d: %w", pkg.ID, err)
		}
		if settlement != nil {
			settled++
		}
	}
	return settled, nil
}
