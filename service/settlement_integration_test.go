package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pickmarket/events"
	"pickmarket/models"
	"pickmarket/repository"
	"pickmarket/repository/testutil"
	"pickmarket/service"
)

func TestSettlementPass_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	userRepo := repository.NewUserRepository(testDB.DB)
	matchRepo := repository.NewMatchRepository(testDB.DB)
	pickRepo := repository.NewPickRepository(testDB.DB)
	purchaseRepo := repository.NewPurchaseRepository(testDB.DB)
	ledgerRepo := repository.NewLedgerRepository(testDB.DB)

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(testDB.DB, eventBus)

	payout := service.PayoutPolicy{
		UserBonusPerPoint: decimal.NewFromFloat(0.5),
		ConsolationCredit: 10,
	}
	packageService := service.NewPackageService(uowFactory)

	// Seed accounts, a match snapshot, a sold pick
	handicapper := testutil.CreateTestHandicapper("capper")
	require.NoError(t, userRepo.Create(ctx, handicapper))
	buyer := testutil.CreateTestUser("buyer")
	require.NoError(t, userRepo.Create(ctx, buyer))

	match := testutil.CreateTestMatch("evt-1")
	require.NoError(t, matchRepo.Create(ctx, match))

	pick := testutil.CreateTestPick(handicapper.ID, match.ID)
	require.NoError(t, pickRepo.Create(ctx, pick))

	require.NoError(t, purchaseRepo.Create(ctx, &models.Purchase{
		PickID:        &pick.ID,
		UserID:        buyer.ID,
		ExternalTxnID: "txn-1",
		Amount:        100,
		Method:        "paypal",
		Status:        models.PurchaseStatusCompleted,
	}))

	// Fresh snapshot where the picked side (Away Team) moved to +200
	feed := new(service.MockOddsFeed)
	feed.On("FetchOdds", mock.Anything, "americanfootball_nfl").Return([]models.MatchOdds{
		{
			ExternalID: "evt-1",
			SportKey:   "americanfootball_nfl",
			Bookmakers: []models.BookmakerOdds{
				{
					Key: "draftkings",
					Markets: []models.Market{
						{Key: "h2h", Outcomes: []models.Outcome{
							{Name: "Home Team", Price: -240},
							{Name: "Away Team", Price: 200},
						}},
					},
				},
			},
		},
	}, nil)

	settlement := service.NewSettlementService(uowFactory, feed, service.NewOutcomeEvaluator(), packageService, payout)

	summary, err := settlement.RunSettlementPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Won)

	// Buyer got the bonus, handicapper got stake plus bonus
	updatedBuyer, err := userRepo.GetByID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1100), updatedBuyer.Balance)

	updatedCapper, err := userRepo.GetByID(ctx, handicapper.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), updatedCapper.Balance)

	resolved, err := pickRepo.GetByID(ctx, pick.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PickStatusWon, resolved.Status)

	// A second pass finds nothing live and credits nothing
	summary, err = settlement.RunSettlementPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Live)

	entries, err := ledgerRepo.GetByUser(ctx, buyer.ID, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	finalBuyer, err := userRepo.GetByID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1100), finalBuyer.Balance)
}

func TestGuaranteedPackageSettlement_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	userRepo := repository.NewUserRepository(testDB.DB)
	matchRepo := repository.NewMatchRepository(testDB.DB)
	pickRepo := repository.NewPickRepository(testDB.DB)
	packageRepo := repository.NewPackageRepository(testDB.DB)
	purchaseRepo := repository.NewPurchaseRepository(testDB.DB)

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(testDB.DB, eventBus)
	packageService := service.NewPackageService(uowFactory)

	handicapper := testutil.CreateTestHandicapper("capper")
	require.NoError(t, userRepo.Create(ctx, handicapper))
	buyer := testutil.CreateTestUser("buyer")
	require.NoError(t, userRepo.Create(ctx, buyer))

	match := testutil.CreateTestMatch("evt-1")
	require.NoError(t, matchRepo.Create(ctx, match))

	var pickIDs []int64
	for i := 0; i < 3; i++ {
		pick := testutil.CreateTestPick(handicapper.ID, match.ID)
		require.NoError(t, pickRepo.Create(ctx, pick))
		pickIDs = append(pickIDs, pick.ID)
	}

	pkg := &models.Package{
		HandicapperID: handicapper.ID,
		Name:          "Weekend special",
		Price:         500,
		Guaranteed:    true,
		Status:        models.PackageStatusLive,
	}
	require.NoError(t, packageRepo.CreateWithPicks(ctx, pkg, pickIDs))

	require.NoError(t, purchaseRepo.Create(ctx, &models.Purchase{
		PackageID:     &pkg.ID,
		UserID:        buyer.ID,
		ExternalTxnID: "txn-pkg",
		Amount:        500,
		Method:        "stripe",
		Status:        models.PurchaseStatusCompleted,
	}))

	// Waiting while any member pick is live
	settlementResult, err := packageService.ReevaluatePackage(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Nil(t, settlementResult)

	// Resolve: two losses, one win
	require.NoError(t, pickRepo.TransitionStatus(ctx, pickIDs[0], models.PickStatusLive, models.PickStatusLost))
	require.NoError(t, pickRepo.TransitionStatus(ctx, pickIDs[1], models.PickStatusLive, models.PickStatusLost))
	require.NoError(t, pickRepo.TransitionStatus(ctx, pickIDs[2], models.PickStatusLive, models.PickStatusWon))

	settlementResult, err = packageService.ReevaluatePackage(ctx, pkg.ID)
	require.NoError(t, err)
	require.NotNil(t, settlementResult)
	assert.True(t, settlementResult.Refunded)
	assert.Equal(t, int64(500), settlementResult.Amount)

	refunded, err := userRepo.GetByID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), refunded.Balance)

	// Reevaluating a completed package is a no-op
	settlementResult, err = packageService.ReevaluatePackage(ctx, pkg.ID)
	require.NoError(t, err)
	assert.Nil(t, settlementResult)

	unchanged, err := userRepo.GetByID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), unchanged.Balance)
}
