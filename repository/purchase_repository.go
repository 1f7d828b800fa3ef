package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pickmarket/database"
	"pickmarket/models"
)

// PurchaseRepository implements the PurchaseRepository interface
type PurchaseRepository struct {
	q queryable
}

// NewPurchaseRepository creates a new purchase repository
func NewPurchaseRepository(db *database.DB) *PurchaseRepository {
	return &PurchaseRepository{q: db.Pool}
}

// newPurchaseRepositoryWithTx creates a new purchase repository with a transaction
func newPurchaseRepositoryWithTx(tx queryable) *PurchaseRepository {
	return &PurchaseRepository{q: tx}
}

// Create records a completed purchase
func (r *PurchaseRepository) Create(ctx context.Context, purchase *models.Purchase) error {
	query := `
		INSERT INTO purchases (pick_id, package_id, user_id, external_txn_id, amount, method, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		purchase.PickID,
		purchase.PackageID,
		purchase.UserID,
		purchase.ExternalTxnID,
		purchase.Amount,
		purchase.Method,
		purchase.Status,
	).Scan(&purchase.ID, &purchase.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create purchase %s: %w", purchase.ExternalTxnID, err)
	}

	return nil
}

// GetByPickID returns the purchase for a pick, or nil when unsold
func (r *PurchaseRepository) GetByPickID(ctx context.Context, pickID int64) (*models.Purchase, error) {
	return r.getOne(ctx, `pick_id = $1`, pickID)
}

// GetByPackageID returns the purchase for a package, or nil when unsold
func (r *PurchaseRepository) GetByPackageID(ctx context.Context, packageID int64) (*models.Purchase, error) {
	return r.getOne(ctx, `package_id = $1`, packageID)
}

// GetByExternalTxnID returns the purchase recorded for a gateway transaction id, or nil
func (r *PurchaseRepository) GetByExternalTxnID(ctx context.Context, txnID string) (*models.Purchase, error) {
	return r.getOne(ctx, `external_txn_id = $1`, txnID)
}

func (r *PurchaseRepository) getOne(ctx context.Context, where string, arg any) (*models.Purchase, error) {
	query := `
		SELECT id, pick_id, package_id, user_id, external_txn_id, amount, method, status, created_at
		FROM purchases
		WHERE ` + where + `
		ORDER BY created_at
		LIMIT 1
	`

	var purchase models.Purchase
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&purchase.ID,
		&purchase.PickID,
		&purchase.PackageID,
		&purchase.UserID,
		&purchase.ExternalTxnID,
		&purchase.Amount,
		&purchase.Method,
		&purchase.Status,
		&purchase.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}

	return &purchase, nil
}
