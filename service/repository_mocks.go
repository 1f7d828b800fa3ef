package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pickmarket/events"
	"pickmarket/models"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockPickRepository is a mock implementation of PickRepository
type MockPickRepository struct {
	mock.Mock
}

func (m *MockPickRepository) Create(ctx context.Context, pick *models.Pick) error {
	args := m.Called(ctx, pick)
	return args.Error(0)
}

func (m *MockPickRepository) GetByID(ctx context.Context, id int64) (*models.Pick, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pick), args.Error(1)
}

func (m *MockPickRepository) GetLive(ctx context.Context) ([]*models.Pick, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Pick), args.Error(1)
}

func (m *MockPickRepository) GetByPackage(ctx context.Context, packageID int64) ([]*models.Pick, error) {
	args := m.Called(ctx, packageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Pick), args.Error(1)
}

func (m *MockPickRepository) GetByHandicapper(ctx context.Context, handicapperID int64, limit int) ([]*models.Pick, error) {
	args := m.Called(ctx, handicapperID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Pick), args.Error(1)
}

func (m *MockPickRepository) TransitionStatus(ctx context.Context, pickID int64, from, to models.PickStatus) error {
	args := m.Called(ctx, pickID, from, to)
	return args.Error(0)
}

// MockLedgerRepository is a mock implementation of LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Apply(ctx context.Context, entry *models.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.LedgerEntry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LedgerEntry), args.Error(1)
}

func (m *MockLedgerRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.LedgerEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LedgerEntry), args.Error(1)
}

// MockPurchaseRepository is a mock implementation of PurchaseRepository
type MockPurchaseRepository struct {
	mock.Mock
}

func (m *MockPurchaseRepository) Create(ctx context.Context, purchase *models.Purchase) error {
	args := m.Called(ctx, purchase)
	return args.Error(0)
}

func (m *MockPurchaseRepository) GetByPickID(ctx context.Context, pickID int64) (*models.Purchase, error) {
	args := m.Called(ctx, pickID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Purchase), args.Error(1)
}

func (m *MockPurchaseRepository) GetByPackageID(ctx context.Context, packageID int64) (*models.Purchase, error) {
	args := m.Called(ctx, packageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Purchase), args.Error(1)
}

func (m *MockPurchaseRepository) GetByExternalTxnID(ctx context.Context, txnID string) (*models.Purchase, error) {
	args := m.Called(ctx, txnID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Purchase), args.Error(1)
}

// MockPackageRepository is a mock implementation of PackageRepository
type MockPackageRepository struct {
	mock.Mock
}

func (m *MockPackageRepository) CreateWithPicks(ctx context.Context, pkg *models.Package, pickIDs []int64) error {
	args := m.Called(ctx, pkg, pickIDs)
	return args.Error(0)
}

func (m *MockPackageRepository) GetByID(ctx context.Context, id int64) (*models.Package, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Package), args.Error(1)
}

func (m *MockPackageRepository) GetGuaranteedByPick(ctx context.Context, pickID int64) ([]*models.Package, error) {
	args := m.Called(ctx, pickID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Package), args.Error(1)
}

func (m *MockPackageRepository) Complete(ctx context.Context, packageID int64) error {
	args := m.Called(ctx, packageID)
	return args.Error(0)
}

// MockMatchRepository is a mock implementation of MatchRepository
type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) Create(ctx context.Context, match *models.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) GetByID(ctx context.Context, id int64) (*models.Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Match, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

// MockLeagueRepository is a mock implementation of LeagueRepository
type MockLeagueRepository struct {
	mock.Mock
}

func (m *MockLeagueRepository) Upsert(ctx context.Context, league *models.League) error {
	args := m.Called(ctx, league)
	return args.Error(0)
}

func (m *MockLeagueRepository) GetActive(ctx context.Context) ([]*models.League, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.League), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockOddsFeed is a mock implementation of OddsFeed
type MockOddsFeed struct {
	mock.Mock
}

func (m *MockOddsFeed) FetchLeagues(ctx context.Context) ([]models.League, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.League), args.Error(1)
}

func (m *MockOddsFeed) FetchOdds(ctx context.Context, sportKey string) ([]models.MatchOdds, error) {
	args := m.Called(ctx, sportKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MatchOdds), args.Error(1)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories are
// injected through setters and returned directly by the getters; only the
// transaction lifecycle goes through mock expectations.
type MockUnitOfWork struct {
	mock.Mock

	userRepo     UserRepository
	pickRepo     PickRepository
	ledgerRepo   LedgerRepository
	purchaseRepo PurchaseRepository
	packageRepo  PackageRepository
	matchRepo    MatchRepository
	leagueRepo   LeagueRepository
	eventBus     EventPublisher
}

// SetRepositories configures the repositories the getters return
func (m *MockUnitOfWork) SetRepositories(
	userRepo UserRepository,
	pickRepo PickRepository,
	ledgerRepo LedgerRepository,
	purchaseRepo PurchaseRepository,
	packageRepo PackageRepository,
	matchRepo MatchRepository,
	leagueRepo LeagueRepository,
	eventBus EventPublisher,
) {
	m.userRepo = userRepo
	m.pickRepo = pickRepo
	m.ledgerRepo = ledgerRepo
	m.purchaseRepo = purchaseRepo
	m.packageRepo = packageRepo
	m.matchRepo = matchRepo
	m.leagueRepo = leagueRepo
	m.eventBus = eventBus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository         { return m.userRepo }
func (m *MockUnitOfWork) PickRepository() PickRepository         { return m.pickRepo }
func (m *MockUnitOfWork) LedgerRepository() LedgerRepository     { return m.ledgerRepo }
func (m *MockUnitOfWork) PurchaseRepository() PurchaseRepository { return m.purchaseRepo }
func (m *MockUnitOfWork) PackageRepository() PackageRepository   { return m.packageRepo }
func (m *MockUnitOfWork) MatchRepository() MatchRepository       { return m.matchRepo }
func (m *MockUnitOfWork) LeagueRepository() LeagueRepository     { return m.leagueRepo }
func (m *MockUnitOfWork) EventBus() EventPublisher               { return m.eventBus }

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
