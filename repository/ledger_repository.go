package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pickmarket/database"
	"pickmarket/models"
	"pickmarket/service"
)

// LedgerRepository implements the LedgerRepository interface
type LedgerRepository struct {
	q queryable
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{q: db.Pool}
}

// newLedgerRepositoryWithTx creates a new ledger repository with a transaction
func newLedgerRepositoryWithTx(tx queryable) *LedgerRepository {
	return &LedgerRepository{q: tx}
}

// Apply atomically applies the entry's delta to the account balance and
// records the entry. The account row is locked first so balance_before and
// balance_after stay consistent under concurrent settlement; the unique
// idempotency key then rejects a duplicate application before the balance is
// touched.
func (r *LedgerRepository) Apply(ctx context.Context, entry *models.LedgerEntry) error {
	var balanceBefore int64
	err := r.q.QueryRow(ctx, `
		SELECT balance
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, entry.UserID).Scan(&balanceBefore)
	if err == pgx.ErrNoRows {
		return fmt.Errorf("user %d: %w", entry.UserID, service.ErrAccountNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock account %d: %w", entry.UserID, err)
	}

	entry.BalanceBefore = balanceBefore
	entry.BalanceAfter = balanceBefore + entry.Delta

	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger metadata: %w", err)
	}

	query := `
		INSERT INTO ledger_entries
		(user_id, delta, reason, idempotency_key, balance_before, balance_after, related_id, related_type, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		entry.UserID,
		entry.Delta,
		entry.Reason,
		entry.IdempotencyKey,
		entry.BalanceBefore,
		entry.BalanceAfter,
		entry.RelatedID,
		entry.RelatedType,
		metadataJSON,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err == pgx.ErrNoRows {
		return fmt.Errorf("idempotency key %s: %w", entry.IdempotencyKey, service.ErrAlreadyApplied)
	}
	if err != nil {
		return fmt.Errorf("failed to record ledger entry for user %d: %w", entry.UserID, err)
	}

	_, err = r.q.Exec(ctx, `
		UPDATE users
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2
	`, entry.Delta, entry.UserID)
	if err != nil {
		return fmt.Errorf("failed to apply balance delta for user %d: %w", entry.UserID, err)
	}

	return nil
}

// GetByIdempotencyKey retrieves an entry by its idempotency key
func (r *LedgerRepository) GetByIdempotencyKey(ctx context.Context, key string) (*models.LedgerEntry, error) {
	query := `
		SELECT id, user_id, delta, reason, idempotency_key, balance_before, balance_after,
		       related_id, related_type, metadata, created_at
		FROM ledger_entries
		WHERE idempotency_key = $1
	`

	entry, err := scanLedgerEntry(r.q.QueryRow(ctx, query, key))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entry %s: %w", key, err)
	}
	return entry, nil
}

// GetByUser returns recent entries for an account, newest first
func (r *LedgerRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.LedgerEntry, error) {
	query := `
		SELECT id, user_id, delta, reason, idempotency_key, balance_before, balance_after,
		       related_id, related_type, metadata, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries for user %d: %w", userID, err)
	}
	defer rows.Close()

	var entries []*models.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}
	return entries, nil
}

func scanLedgerEntry(row pgx.Row) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	var metadataJSON []byte

	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.Delta,
		&entry.Reason,
		&entry.IdempotencyKey,
		&entry.BalanceBefore,
		&entry.BalanceAfter,
		&entry.RelatedID,
		&entry.RelatedType,
		&metadataJSON,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal ledger metadata: %w", err)
		}
	}
	return &entry, nil
}
