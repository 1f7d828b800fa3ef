package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pickmarket/events"
	"pickmarket/models"
)

func TestApplyLedgerCredit_PublishesBalanceChange(t *testing.T) {
	ctx := context.Background()
	uow := new(MockUnitOfWork)
	ledgerRepo := new(MockLedgerRepository)
	publisher := new(MockEventPublisher)
	uow.SetRepositories(nil, nil, ledgerRepo, nil, nil, nil, nil, publisher)

	ledgerRepo.On("Apply", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		entry := args.Get(1).(*models.LedgerEntry)
		entry.BalanceBefore = 1000
		entry.BalanceAfter = 1100
	}).Return(nil)

	publisher.On("Publish", mock.MatchedBy(func(e events.BalanceChangeEvent) bool {
		return e.UserID == 42 && e.OldBalance == 1000 && e.NewBalance == 1100 && e.Delta == 100
	})).Return()

	err := ApplyLedgerCredit(ctx, uow, &models.LedgerEntry{
		UserID:         42,
		Delta:          100,
		Reason:         models.LedgerReasonPickWonUser,
		IdempotencyKey: "pick:1:won:user",
	})
	require.NoError(t, err)

	publisher.AssertExpectations(t)
}

func TestApplyLedgerCredit_DuplicateIsNoOp(t *testing.T) {
	ctx := context.Background()
	uow := new(MockUnitOfWork)
	ledgerRepo := new(MockLedgerRepository)
	publisher := new(MockEventPublisher)
	uow.SetRepositories(nil, nil, ledgerRepo, nil, nil, nil, nil, publisher)

	ledgerRepo.On("Apply", mock.Anything, mock.Anything).Return(ErrAlreadyApplied)

	err := ApplyLedgerCredit(ctx, uow, &models.LedgerEntry{
		UserID:         42,
		Delta:          100,
		IdempotencyKey: "pick:1:won:user",
	})
	require.NoError(t, err)

	publisher.AssertNotCalled(t, "Publish", mock.Anything)
}

func TestApplyLedgerCredit_MissingAccountFails(t *testing.T) {
	ctx := context.Background()
	uow := new(MockUnitOfWork)
	ledgerRepo := new(MockLedgerRepository)
	publisher := new(MockEventPublisher)
	uow.SetRepositories(nil, nil, ledgerRepo, nil, nil, nil, nil, publisher)

	ledgerRepo.On("Apply", mock.Anything, mock.Anything).Return(ErrAccountNotFound)

	err := ApplyLedgerCredit(ctx, uow, &models.LedgerEntry{
		UserID:         99,
		Delta:          100,
		IdempotencyKey: "pick:2:won:user",
	})
	assert.ErrorIs(t, err, ErrAccountNotFound)
	publisher.AssertNotCalled(t, "Publish", mock.Anything)
}
