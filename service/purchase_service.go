package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"pickmarket/models"
)

type purchaseService struct {
	uowFactory UnitOfWorkFactory
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(uowFactory UnitOfWorkFactory) PurchaseService {
	return &purchaseService{
		uowFactory: uowFactory,
	}
}

// RecordPurchase records a completed purchase. Credit purchases additionally
// debit the buyer's balance; gateway purchases (PayPal, Stripe) were paid
// externally and only need the record for later settlement lookup. The
// external transaction id deduplicates gateway retries.
func (s *purchaseService) RecordPurchase(ctx context.Context, input PurchaseInput) (*models.Purchase, error) {
	if input.ExternalTxnID == "" {
		return nil, fmt.Errorf("external transaction id is required")
	}
	if input.Amount <= 0 {
		return nil, fmt.Errorf("purchase amount must be positive")
	}
	if (input.PickID == nil) == (input.PackageID == nil) {
		return nil, fmt.Errorf("purchase must reference exactly one of pick or package")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	existing, err := uow.PurchaseRepository().GetByExternalTxnID(ctx, input.ExternalTxnID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing purchase: %w", err)
	}
	if existing != nil {
		log.WithFields(log.Fields{
			"externalTxnID": input.ExternalTxnID,
			"purchaseID":    existing.ID,
		}).Info("Purchase already recorded for transaction, returning existing")
		return existing, nil
	}

	purchase := &models.Purchase{
		PickID:        input.PickID,
		PackageID:     input.PackageID,
		UserID:        input.UserID,
		ExternalTxnID: input.ExternalTxnID,
		Amount:        input.Amount,
		Method:        input.Method,
		Status:        models.PurchaseStatusCompleted,
	}
	if err := uow.PurchaseRepository().Create(ctx, purchase); err != nil {
		return nil, fmt.Errorf("failed to create purchase: %w", err)
	}

	if input.Method == "credits" {
		relatedType := models.RelatedTypePurchase
		if err := ApplyLedgerCredit(ctx, uow, &models.LedgerEntry{
			UserID:         input.UserID,
			Delta:          -input.Amount,
			Reason:         models.LedgerReasonPurchase,
			IdempotencyKey: fmt.Sprintf("purchase:%s", input.ExternalTxnID),
			RelatedID:      &purchase.ID,
			RelatedType:    &relatedType,
		}); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return purchase, nil
}
