package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pickmarket/events"
	"pickmarket/models"
)

// MockPackageService is a mock implementation of PackageService
type MockPackageService struct {
	mock.Mock
}

func (m *MockPackageService) CreatePackage(ctx context.Context, pkg *models.Package, pickIDs []int64) (*models.Package, error) {
	args := m.Called(ctx, pkg, pickIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Package), args.Error(1)
}

func (m *MockPackageService) ReevaluatePackage(ctx context.Context, packageID int64) (*models.PackageSettlement, error) {
	args := m.Called(ctx, packageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PackageSettlement), args.Error(1)
}

type settlementTestEnv struct {
	service        SettlementService
	factory        *MockUnitOfWorkFactory
	uow            *MockUnitOfWork
	pickRepo       *MockPickRepository
	ledgerRepo     *MockLedgerRepository
	purchaseRepo   *MockPurchaseRepository
	packageRepo    *MockPackageRepository
	matchRepo      *MockMatchRepository
	feed           *MockOddsFeed
	packageService *MockPackageService
	publisher      *MockEventPublisher
}

func newSettlementTestEnv() *settlementTestEnv {
	env := &settlementTestEnv{
		factory:        new(MockUnitOfWorkFactory),
		uow:            new(MockUnitOfWork),
		pickRepo:       new(MockPickRepository),
		ledgerRepo:     new(MockLedgerRepository),
		purchaseRepo:   new(MockPurchaseRepository),
		packageRepo:    new(MockPackageRepository),
		matchRepo:      new(MockMatchRepository),
		feed:           new(MockOddsFeed),
		packageService: new(MockPackageService),
		publisher:      new(MockEventPublisher),
	}

	env.uow.SetRepositories(nil, env.pickRepo, env.ledgerRepo, env.purchaseRepo, env.packageRepo, env.matchRepo, nil, env.publisher)
	env.factory.On("Create").Return(env.uow)
	env.uow.On("Begin", mock.Anything).Return(nil)
	env.uow.On("Commit").Return(nil)
	env.uow.On("Rollback").Return(nil)

	payout := PayoutPolicy{
		UserBonusPerPoint: decimal.NewFromFloat(0.5),
		ConsolationCredit: 10,
	}
	env.service = NewSettlementService(env.factory, env.feed, NewOutcomeEvaluator(), env.packageService, payout)
	return env
}

func settlementMatch() *models.Match {
	return &models.Match{
		ID:         1,
		ExternalID: "evt-1",
		SportKey:   "americanfootball_nfl",
		Bookmakers: []models.BookmakerOdds{
			{
				Key: "draftkings",
				Markets: []models.Market{
					{Key: "h2h", Outcomes: []models.Outcome{
						{Name: "Home Team", Price: -150},
						{Name: "Away Team", Price: 130},
					}},
				},
			},
		},
	}
}

func settlementOdds(awayPrice int64) []models.MatchOdds {
	return []models.MatchOdds{
		{
			ExternalID: "evt-1",
			SportKey:   "americanfootball_nfl",
			Bookmakers: []models.BookmakerOdds{
				{
					Key: "draftkings",
					Markets: []models.Market{
						{Key: "h2h", Outcomes: []models.Outcome{
							{Name: "Home Team", Price: -awayPrice},
							{Name: "Away Team", Price: awayPrice},
						}},
					},
				},
			},
		},
	}
}

func livePick(id int64) *models.Pick {
	return &models.Pick{
		ID:            id,
		HandicapperID: 7,
		MatchID:       1,
		BookmakerKey:  "draftkings",
		MarketKey:     "h2h",
		OutcomeName:   "Away Team",
		Status:        models.PickStatusLive,
	}
}

func TestRunSettlementPass_WonPick(t *testing.T) {
	ctx := context.Background()
	env := newSettlementTestEnv()

	pick := livePick(10)
	purchase := &models.Purchase{ID: 5, UserID: 42, Amount: 100}
	pickID := int64(10)

	env.pickRepo.On("GetLive", mock.Anything).Return([]*models.Pick{pick}, nil)
	env.matchRepo.On("GetByID", mock.Anything, int64(1)).Return(settlementMatch(), nil)
	env.feed.On("FetchOdds", mock.Anything, "americanfootball_nfl").Return(settlementOdds(200), nil)

	env.pickRepo.On("TransitionStatus", mock.Anything, pickID, models.PickStatusLive, models.PickStatusWon).Return(nil)
	env.purchaseRepo.On("GetByPickID", mock.Anything, pickID).Return(purchase, nil)

	// Buyer bonus: 0.5 * 200 = 100, keyed to the pick's win
	env.ledgerRepo.On("Apply", mock.Anything, mock.MatchedBy(func(e *models.LedgerEntry) bool {
		return e.UserID == 42 &&
			e.Delta == 100 &&
			e.Reason == models.LedgerReasonPickWonUser &&
			e.IdempotencyKey == "pick:10:won:user"
	})).Return(nil)

	// Handicapper share: stake 100 + bonus 100
	env.ledgerRepo.On("Apply", mock.Anything, mock.MatchedBy(func(e *models.LedgerEntry) bool {
		return e.UserID == 7 &&
			e.Delta == 200 &&
			e.Reason == models.LedgerReasonPickWonHandicapper &&
			e.IdempotencyKey == "pick:10:won:handicapper"
	})).Return(nil)

	env.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return()
	env.publisher.On("Publish", mock.MatchedBy(func(e events.PickResolvedEvent) bool {
		return e.PickID == 10 && e.Outcome == models.PickOutcomeWon && e.Purchased
	})).Return()

	env.packageRepo.On("GetGuaranteedByPick", mock.Anything, pickID).Return([]*models.Package{}, nil)

	summary, err := env.service.RunSettlementPass(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Live)
	assert.Equal(t, 1, summary.Won)
	assert.Equal(t, 0, summary.Lost)
	assert.Equal(t, 0, summary.Errored)

	env.pickRepo.AssertExpectations(t)
	env.ledgerRepo.AssertExpectations(t)
	env.publisher.AssertExpectations(t)
}

func TestRunSettlementPass_LostPickConsolation(t *testing.T) {
	ctx := context.Background()
	env := newSettlementTestEnv()

	pick := livePick(11)
	purchase := &models.Purchase{ID: 6, UserID: 42, Amount: 100}

	env.pickRepo.On("GetLive", mock.Anything).Return([]*models.Pick{pick}, nil)
	env.matchRepo.On("GetByID", mock.Anything, int64(1)).Return(settlementMatch(), nil)
	env.feed.On("FetchOdds", mock.Anything, "americanfootball_nfl").Return(settlementOdds(-180), nil)

	env.pickRepo.On("TransitionStatus", mock.Anything, int64(11), models.PickStatusLive, models.PickStatusLost).Return(nil)
	env.purchaseRepo.On("GetByPickID", mock.Anything, int64(11)).Return(purchase, nil)

	env.ledgerRepo.On("Apply", mock.Anything, mock.MatchedBy(func(e *models.LedgerEntry) bool {
		return e.UserID == 42 &&
			e.Delta == 10 &&
			e.Reason == models.LedgerReasonPickLostConsolation &&
			e.IdempotencyKey == "pick:11:lost:consolation"
	})).Return(nil)

	env.publisher.On("Publish", mock.Anything).Return()
	env.packageRepo.On("GetGuaranteedByPick", mock.Anything, int64(11)).Return([]*models.Package{}, nil)

	summary, err := env.service.RunSettlementPass(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Lost)
	env.ledgerRepo.AssertExpectations(t)
	// No win credits for a lost pick
	env.ledgerRepo.AssertNumberOfCalls(t, "Apply", 1)
}

func TestRunSettlementPass_UnsoldPickNoCredits(t *testing.T) {
	ctx := context.Background()
	env := newSettlementTestEnv()

	pick := livePick(12)

	env.pickRepo.On("GetLive", mock.Anything).Return([]*models.Pick{pick}, nil)
	env.matchRepo.On("GetByID", mock.Anything, int64(1)).Return(settlementMatch(), nil)
	env.feed.On("FetchOdds", mock.Anything, "americanfootball_nfl").Return(settlementOdds(200), nil)

	env.pickRepo.On("TransitionStatus", mock.Anything, int64(12), models.PickStatusLive, models.PickStatusWon).Return(nil)
	env.purchaseRepo.On("GetByPickID", mock.Anything, int64(12)).Return(nil, nil)

	env.publisher.On("Publish", mock.MatchedBy(func(e events.PickResolvedEvent) bool {
		return e.PickID == 12 && !e.Purchased && e.UserCredit == 0
	})).Return()
	env.packageRepo.On("GetGuaranteedByPick", mock.Anything, int64(12)).Return([]*models.Package{}, nil)

	summary, err := env.service.RunSettlementPass(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Won)
	env.ledgerRepo.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
}

func TestRunSettlementPass_PendingWhenMarketMissing(t *testing.T) {
	ctx := context.Background()
	env := newSettlementTestEnv()

	pick := livePick(13)

	// Fresh snapshot no longer carries the event
	env.pickRepo.On("GetLive", mock.Anything).Return([]*models.Pick{pick}, nil)
	env.matchRepo.On("GetByID", mock.Anything, int64(1)).Return(settlementMatch(), nil)
	env.feed.On("FetchOdds", mock.Anything, "americanfootball_nfl").Return([]models.MatchOdds{}, nil)

	summary, err := env.service.RunSettlementPass(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Pending)
	assert.Equal(t, 0, summary.Won+summary.Lost)
	env.pickRepo.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunSettlementPass_FeedErrorSkipsSport(t *testing.T) {
	ctx := context.Background()
	env := newSettlementTestEnv()

	pick := livePick(14)

	env.pickRepo.On("GetLive", mock.Anything).Return([]*models.Pick{pick}, nil)
	env.matchRepo.On("GetByID", mock.Anything, int64(1)).Return(settlementMatch(), nil)
	env.feed.On("FetchOdds", mock.Anything, "americanfootball_nfl").Return(nil, ErrFeedUnavailable)

	summary, err := env.service.RunSettlementPass(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.SportFetchErrors)
	env.pickRepo.AssertNotCalled(t, "TransitionStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	env.ledgerRepo.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
}

func TestRunSettlementPass_ConcurrentResolutionSkipped(t *testing.T) {
	ctx := context.Background()
	env := newSettlementTestEnv()

	pick := livePick(15)

	env.pickRepo.On("GetLive", mock.Anything).Return([]*models.Pick{pick}, nil)
	env.matchRepo.On("GetByID", mock.Anything, int64(1)).Return(settlementMatch(), nil)
	env.feed.On("FetchOdds", mock.Anything, "americanfootball_nfl").Return(settlementOdds(200), nil)

	// Another pass already resolved this pick
	env.pickRepo.On("TransitionStatus", mock.Anything, int64(15), models.PickStatusLive, models.PickStatusWon).Return(ErrAlreadyResolved)

	summary, err := env.service.RunSettlementPass(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Won)
	env.ledgerRepo.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything)
}

func TestRunSettlementPass_NotifiesGuaranteedPackages(t *testing.T) {
	ctx := context.Background()
	env := newSettlementTestEnv()

	pick := livePick(16)
	pkg := &models.Package{ID: 3, Guaranteed: true, Status: models.PackageStatusLive}

	env.pickRepo.On("GetLive", mock.Anything).Return([]*models.Pick{pick}, nil)
	env.matchRepo.On("GetByID", mock.Anything, int64(1)).Return(settlementMatch(), nil)
	env.feed.On("FetchOdds", mock.Anything, "americanfootball_nfl").Return(settlementOdds(200), nil)

	env.pickRepo.On("TransitionStatus", mock.Anything, int64(16), models.PickStatusLive, models.PickStatusWon).Return(nil)
	env.purchaseRepo.On("GetByPickID", mock.Anything, int64(16)).Return(nil, nil)
	env.publisher.On("Publish", mock.Anything).Return()

	env.packageRepo.On("GetGuaranteedByPick", mock.Anything, int64(16)).Return([]*models.Package{pkg}, nil)
	env.packageService.On("ReevaluatePackage", mock.Anything, int64(3)).Return(&models.PackageSettlement{Package: pkg}, nil)

	summary, err := env.service.RunSettlementPass(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.PackagesSettled)
	env.packageService.AssertExpectations(t)
}

func TestRunSettlementPass_PerPickErrorIsolation(t *testing.T) {
	ctx := context.Background()
	env := newSettlementTestEnv()

	bad := livePick(20)
	good := livePick(21)

	env.pickRepo.On("GetLive", mock.Anything).Return([]*models.Pick{bad, good}, nil)
	env.matchRepo.On("GetByID", mock.Anything, int64(1)).Return(settlementMatch(), nil)
	env.feed.On("FetchOdds", mock.Anything, "americanfootball_nfl").Return(settlementOdds(200), nil)

	env.pickRepo.On("TransitionStatus", mock.Anything, int64(20), models.PickStatusLive, models.PickStatusWon).Return(assert.AnError)
	env.pickRepo.On("TransitionStatus", mock.Anything, int64(21), models.PickStatusLive, models.PickStatusWon).Return(nil)
	env.purchaseRepo.On("GetByPickID", mock.Anything, int64(21)).Return(nil, nil)
	env.publisher.On("Publish", mock.Anything).Return()
	env.packageRepo.On("GetGuaranteedByPick", mock.Anything, int64(21)).Return([]*models.Package{}, nil)

	summary, err := env.service.RunSettlementPass(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Errored)
	assert.Equal(t, 1, summary.Won)
}

func TestRunSettlementPass_PackageFailureKeepsPickBucket(t *testing.T) {
	ctx := context.Background()
	env := newSettlementTestEnv()

	pick := livePick(22)

	env.pickRepo.On("GetLive", mock.Anything).Return([]*models.Pick{pick}, nil)
	env.matchRepo.On("GetByID", mock.Anything, int64(1)).Return(settlementMatch(), nil)
	env.feed.On("FetchOdds", mock.Anything, "americanfootball_nfl").Return(settlementOdds(200), nil)

	env.pickRepo.On("TransitionStatus", mock.Anything, int64(22), models.PickStatusLive, models.PickStatusWon).Return(nil)
	env.purchaseRepo.On("GetByPickID", mock.Anything, int64(22)).Return(nil, nil)
	env.publisher.On("Publish", mock.Anything).Return()
	env.packageRepo.On("GetGuaranteedByPick", mock.Anything, int64(22)).Return(nil, assert.AnError)

	summary, err := env.service.RunSettlementPass(ctx)
	require.NoError(t, err)

	// The pick resolved; the notification failure lands in its own bucket
	assert.Equal(t, 1, summary.Won)
	assert.Equal(t, 0, summary.Errored)
	assert.Equal(t, 1, summary.PackageErrors)
	assert.Equal(t, 0, summary.PackagesSettled)
}
