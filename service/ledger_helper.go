package service

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"pickmarket/events"
	"pickmarket/models"
)

// ApplyLedgerCredit applies a ledger entry inside the current unit of work and
// emits the balance change event. This is the single entry point for all
// settlement balance mutations.
//
// A duplicate idempotency key is not a failure: the credit was already paid by
// an earlier pass, so the call logs and returns nil without emitting.
func ApplyLedgerCredit(ctx context.Context, uow UnitOfWork, entry *models.LedgerEntry) error {
	if err := uow.LedgerRepository().Apply(ctx, entry); err != nil {
		if errors.Is(err, ErrAlreadyApplied) {
			log.WithFields(log.Fields{
				"idempotencyKey": entry.IdempotencyKey,
				"userID":         entry.UserID,
			}).Warn("Ledger entry already applied, skipping credit")
			return nil
		}
		return fmt.Errorf("failed to apply ledger entry: %w", err)
	}

	// Emit balance change event (will be flushed after transaction commits)
	event := events.BalanceChangeEvent{
		UserID:     entry.UserID,
		OldBalance: entry.BalanceBefore,
		NewBalance: entry.BalanceAfter,
		Delta:      entry.Delta,
		Reason:     entry.Reason,
	}
	uow.EventBus().Publish(event)

	return nil
}
