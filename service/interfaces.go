package service

import (
	"context"

	"pickmarket/events"
	"pickmarket/models"
)

// UserRepository defines the interface for account data access
type UserRepository interface {
	// GetByID retrieves a user by id
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// Create creates a new user account
	Create(ctx context.Context, user *models.User) error
}

// PickRepository defines the interface for pick data access
type PickRepository interface {
	// Create creates a new pick
	Create(ctx context.Context, pick *models.Pick) error

	// GetByID retrieves a pick by its ID
	GetByID(ctx context.Context, id int64) (*models.Pick, error)

	// GetLive returns all picks still open for settlement
	GetLive(ctx context.Context) ([]*models.Pick, error)

	// GetByPackage returns the member picks of a package
	GetByPackage(ctx context.Context, packageID int64) ([]*models.Pick, error)

	// GetByHandicapper returns picks published by a handicapper
	GetByHandicapper(ctx context.Context, handicapperID int64, limit int) ([]*models.Pick, error)

	// TransitionStatus moves a pick from one status to another. It fails
	// with ErrAlreadyResolved when the pick is no longer in the expected
	// status, which makes resolution safe to retry.
	TransitionStatus(ctx context.Context, pickID int64, from, to models.PickStatus) error
}

// LedgerRepository defines the interface for atomic balance mutations
type LedgerRepository interface {
	// Apply atomically applies the entry's delta to the account balance and
	// records the entry. A duplicate idempotency key fails with
	// ErrAlreadyApplied without touching the balance; a missing account
	// fails with ErrAccountNotFound. On success the entry's ID and balance
	// before/after are filled in.
	Apply(ctx context.Context, entry *models.LedgerEntry) error

	// GetByIdempotencyKey retrieves an entry by its idempotency key
	GetByIdempotencyKey(ctx context.Context, key string) (*models.LedgerEntry, error)

	// GetByUser returns recent entries for an account
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.LedgerEntry, error)
}

// PurchaseRepository defines the interface for purchase transaction lookup
type PurchaseRepository interface {
	// Create records a completed purchase
	Create(ctx context.Context, purchase *models.Purchase) error

	// GetByPickID returns the purchase for a pick, or nil when unsold
	GetByPickID(ctx context.Context, pickID int64) (*models.Purchase, error)

	// GetByPackageID returns the purchase for a package, or nil when unsold
	GetByPackageID(ctx context.Context, packageID int64) (*models.Purchase, error)

	// GetByExternalTxnID returns the purchase recorded for a gateway
	// transaction id, or nil
	GetByExternalTxnID(ctx context.Context, txnID string) (*models.Purchase, error)
}

// PackageRepository defines the interface for package data access
type PackageRepository interface {
	// CreateWithPicks creates a package and its pick memberships atomically
	CreateWithPicks(ctx context.Context, pkg *models.Package, pickIDs []int64) error

	// GetByID retrieves a package with its member pick ids
	GetByID(ctx context.Context, id int64) (*models.Package, error)

	// GetGuaranteedByPick returns the live guaranteed packages containing a pick
	GetGuaranteedByPick(ctx context.Context, pickID int64) ([]*models.Package, error)

	// Complete marks a package Completed. It fails with ErrAlreadyResolved
	// when the package has already been completed, which guards the
	// at-most-once settlement invariant under concurrent reevaluation.
	Complete(ctx context.Context, packageID int64) error
}

// MatchRepository defines the interface for match snapshot data access
type MatchRepository interface {
	// Create persists a new match snapshot
	Create(ctx context.Context, match *models.Match) error

	// GetByID retrieves a match by id
	GetByID(ctx context.Context, id int64) (*models.Match, error)

	// GetByExternalID retrieves a match by the feed's event id, or nil
	GetByExternalID(ctx context.Context, externalID string) (*models.Match, error)
}

// LeagueRepository defines the interface for league data access
type LeagueRepository interface {
	// Upsert inserts a league or refreshes an existing row's feed-provided fields
	Upsert(ctx context.Context, league *models.League) error

	// GetActive returns all active leagues
	GetActive(ctx context.Context) ([]*models.League, error)
}

// OddsFeed is the narrow odds provider interface the core consumes. Any
// per-call failure means data is unavailable for now, never a settled
// outcome.
type OddsFeed interface {
	FetchLeagues(ctx context.Context) ([]models.League, error)
	FetchOdds(ctx context.Context, sportKey string) ([]models.MatchOdds, error)
}

// SettlementService defines the scheduled settlement entry point
type SettlementService interface {
	// RunSettlementPass evaluates all live picks against fresh odds
	// snapshots, applies status transitions and ledger credits, and returns
	// a batch summary. Safe to invoke repeatedly; re-running over already
	// resolved picks is a no-op.
	RunSettlementPass(ctx context.Context) (*models.SettlementSummary, error)
}

// PackageService defines package lifecycle operations
type PackageService interface {
	// CreatePackage creates a package bundling the given picks, validating
	// that every pick belongs to the package's handicapper
	CreatePackage(ctx context.Context, pkg *models.Package, pickIDs []int64) (*models.Package, error)

	// ReevaluatePackage settles a guaranteed package once every member pick
	// has left the Live state. Calling it on an already Completed package is
	// a no-op; the returned settlement is nil when nothing was settled.
	ReevaluatePackage(ctx context.Context, packageID int64) (*models.PackageSettlement, error)
}

// PurchaseInput describes a completed purchase to record
type PurchaseInput struct {
	PickID        *int64
	PackageID     *int64
	UserID        int64
	Amount        int64
	Method        string
	ExternalTxnID string
}

// PurchaseService defines purchase recording operations
type PurchaseService interface {
	// RecordPurchase records a completed purchase transaction and, for
	// credit purchases, debits the buyer's balance. Recording the same
	// external transaction id twice returns the existing purchase.
	RecordPurchase(ctx context.Context, input PurchaseInput) (*models.Purchase, error)
}

// PickInput describes a new pick published by a handicapper
type PickInput struct {
	HandicapperID int64
	Title         string
	League        string
	MatchID       int64
	BookmakerKey  string
	MarketKey     string
	OutcomeName   string
	PlayType      models.PlayType
	Analysis      string
}

// PickService defines pick publishing operations
type PickService interface {
	// CreatePick publishes a pick, capturing the selected outcome's name and
	// point from the stored match snapshot at creation time
	CreatePick(ctx context.Context, input PickInput) (*models.Pick, error)
}

// SyncService defines the odds feed sync job
type SyncService interface {
	// SyncSportsData refreshes leagues and ingests new match snapshots from
	// the odds feed
	SyncSportsData(ctx context.Context) (*SyncResult, error)
}

// SyncResult summarizes an odds sync run
type SyncResult struct {
	Leagues        int
	MatchesCreated int
	LeagueErrors   int
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	PickRepository() PickRepository
	LedgerRepository() LedgerRepository
	PurchaseRepository() PurchaseRepository
	PackageRepository() PackageRepository
	MatchRepository() MatchRepository
	LeagueRepository() LeagueRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
