package service

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"pickmarket/events"
	"pickmarket/models"
)

type packageService struct {
	uowFactory UnitOfWorkFactory
}

// NewPackageService creates a new package service
func NewPackageService(uowFactory UnitOfWorkFactory) PackageService {
	return &packageService{
		uowFactory: uowFactory,
	}
}

// CreatePackage creates a package bundling the given picks
func (s *packageService) CreatePackage(ctx context.Context, pkg *models.Package, pickIDs []int64) (*models.Package, error) {
	if len(pickIDs) == 0 {
		return nil, fmt.Errorf("package must contain at least one pick")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	for _, pickID := range pickIDs {
		pick, err := uow.PickRepository().GetByID(ctx, pickID)
		if err != nil {
			return nil, fmt.Errorf("failed to get pick %d: %w", pickID, err)
		}
		if pick == nil {
			return nil, fmt.Errorf("pick %d not found", pickID)
		}
		if pick.HandicapperID != pkg.HandicapperID {
			return nil, fmt.Errorf("pick %d belongs to another handicapper", pickID)
		}
	}

	pkg.Status = models.PackageStatusLive
	if err := uow.PackageRepository().CreateWithPicks(ctx, pkg, pickIDs); err != nil {
		return nil, fmt.Errorf("failed to create package: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return pkg, nil
}

// ReevaluatePackage settles a guaranteed package once every member pick has
// reached a terminal status. Losses outnumbering wins refunds the buyer;
// otherwise the price pays out to the handicapper. The guarded completion
// makes concurrent reevaluations of the same package settle at most once.
func (s *packageService) ReevaluatePackage(ctx context.Context, packageID int64) (*models.PackageSettlement, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	pkg, err := uow.PackageRepository().GetByID(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	if pkg == nil {
		return nil, fmt.Errorf("package %d not found", packageID)
	}
	if pkg.IsCompleted() || !pkg.Guaranteed {
		return nil, nil
	}

	picks, err := uow.PickRepository().GetByPackage(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get package picks: %w", err)
	}

	won, lost := 0, 0
	for _, pick := range picks {
		switch pick.Status {
		case models.PickStatusLive:
			// Still waiting on at least one pick
			return nil, nil
		case models.PickStatusWon:
			won++
		case models.PickStatusLost:
			lost++
		}
	}

	if err := uow.PackageRepository().Complete(ctx, packageID); err != nil {
		if errors.Is(err, ErrAlreadyResolved) {
			// Lost the race to a concurrent reevaluation
			return nil, nil
		}
		return nil, fmt.Errorf("failed to complete package: %w", err)
	}

	purchase, err := uow.PurchaseRepository().GetByPackageID(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}

	settlement := &models.PackageSettlement{
		Package:  pkg,
		Won:      won,
		Lost:     lost,
		Refunded: lost > won,
	}

	relatedType := models.RelatedTypePackage
	if purchase != nil {
		settlement.Amount = pkg.Price
		entry := &models.LedgerEntry{
			Delta:       pkg.Price,
			RelatedID:   &pkg.ID,
			RelatedType: &relatedType,
			Metadata: map[string]any{
				"won":  won,
				"lost": lost,
			},
		}
		if settlement.Refunded {
			entry.UserID = purchase.UserID
			entry.Reason = models.LedgerReasonPackageRefund
			entry.IdempotencyKey = fmt.Sprintf("package:%d:refund", packageID)
		} else {
			entry.UserID = pkg.HandicapperID
			entry.Reason = models.LedgerReasonPackagePayout
			entry.IdempotencyKey = fmt.Sprintf("package:%d:payout", packageID)
		}
		if err := ApplyLedgerCredit(ctx, uow, entry); err != nil {
			return nil, err
		}
	}

	uow.EventBus().Publish(events.PackageSettledEvent{
		PackageID: packageID,
		Won:       won,
		Lost:      lost,
		Refunded:  settlement.Refunded,
		Amount:    settlement.Amount,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"packageID": packageID,
		"won":       won,
		"lost":      lost,
		"refunded":  settlement.Refunded,
		"amount":    settlement.Amount,
	}).Info("Guaranteed package settled")

	return settlement, nil
}
