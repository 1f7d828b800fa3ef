package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pickmarket/database"
	"pickmarket/events"
	"pickmarket/service"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	userRepo         service.UserRepository
	pickRepo         service.PickRepository
	ledgerRepo       service.LedgerRepository
	purchaseRepo     service.PurchaseRepository
	packageRepo      service.PackageRepository
	matchRepo        service.MatchRepository
	leagueRepo       service.LeagueRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.userRepo = newUserRepositoryWithTx(tx)
	u.pickRepo = newPickRepositoryWithTx(tx)
	u.ledgerRepo = newLedgerRepositoryWithTx(tx)
	u.purchaseRepo = newPurchaseRepositoryWithTx(tx)
	u.packageRepo = newPackageRepositoryWithTx(tx)
	u.matchRepo = newMatchRepositoryWithTx(tx)
	u.leagueRepo = newLeagueRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	if u.transactionalBus != nil {
		u.transactionalBus.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	if u.transactionalBus != nil {
		u.transactionalBus.Discard()
	}

	return nil
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() service.UserRepository {
	if u.userRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userRepo
}

// PickRepository returns the pick repository for this unit of work
func (u *unitOfWork) PickRepository() service.PickRepository {
	if u.pickRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.pickRepo
}

// LedgerRepository returns the ledger repository for this unit of work
func (u *unitOfWork) LedgerRepository() service.LedgerRepository {
	if u.ledgerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.ledgerRepo
}

// PurchaseRepository returns the purchase repository for this unit of work
func (u *unitOfWork) PurchaseRepository() service.PurchaseRepository {
	if u.purchaseRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.purchaseRepo
}

// PackageRepository returns the package repository for this unit of work
func (u *unitOfWork) PackageRepository() service.PackageRepository {
	if u.packageRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.packageRepo
}

// MatchRepository returns the match repository for this unit of work
func (u *unitOfWork) MatchRepository() service.MatchRepository {
	if u.matchRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.matchRepo
}

// LeagueRepository returns the league repository for this unit of work
func (u *unitOfWork) LeagueRepository() service.LeagueRepository {
	if u.leagueRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.leagueRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	if u.transactionalBus == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalBus
}
