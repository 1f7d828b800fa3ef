package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pickmarket/database"
	"pickmarket/models"
	"pickmarket/service"
)

// PickRepository implements the PickRepository interface
type PickRepository struct {
	q queryable
}

// NewPickRepository creates a new pick repository
func NewPickRepository(db *database.DB) *PickRepository {
	return &PickRepository{q: db.Pool}
}

// newPickRepositoryWithTx creates a new pick repository with a transaction
func newPickRepositoryWithTx(tx queryable) *PickRepository {
	return &PickRepository{q: tx}
}

const pickColumns = `id, handicapper_id, title, league, match_id, bookmaker_key, market_key,
	outcome_name, outcome_point, outcome_ref, play_type, analysis, status, created_at, resolved_at`

// Create creates a new pick
func (r *PickRepository) Create(ctx context.Context, pick *models.Pick) error {
	query := `
		INSERT INTO picks
		(handicapper_id, title, league, match_id, bookmaker_key, market_key,
		 outcome_name, outcome_point, outcome_ref, play_type, analysis, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		pick.HandicapperID,
		pick.Title,
		pick.League,
		pick.MatchID,
		pick.BookmakerKey,
		pick.MarketKey,
		pick.OutcomeName,
		pick.OutcomePoint,
		pick.OutcomeRef,
		pick.PlayType,
		pick.Analysis,
		pick.Status,
	).Scan(&pick.ID, &pick.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create pick: %w", err)
	}

	return nil
}

// GetByID retrieves a pick by its ID
func (r *PickRepository) GetByID(ctx context.Context, id int64) (*models.Pick, error) {
	query := `SELECT ` + pickColumns + ` FROM picks WHERE id = $1`

	pick, err := scanPick(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pick %d: %w", id, err)
	}
	return pick, nil
}

// GetLive returns all picks still open for settlement, oldest first
func (r *PickRepository) GetLive(ctx context.Context) ([]*models.Pick, error) {
	query := `SELECT ` + pickColumns + ` FROM picks WHERE status = $1 ORDER BY created_at`

	rows, err := r.q.Query(ctx, query, models.PickStatusLive)
	if err != nil {
		return nil, fmt.Errorf("failed to get live picks: %w", err)
	}
	defer rows.Close()

	return collectPicks(rows)
}

// GetByPackage returns the member picks of a package
func (r *PickRepository) GetByPackage(ctx context.Context, packageID int64) ([]*models.Pick, error) {
	query := `
		SELECT p.id, p.handicapper_id, p.title, p.league, p.match_id, p.bookmaker_key, p.market_key,
		       p.outcome_name, p.outcome_point, p.outcome_ref, p.play_type, p.analysis, p.status,
		       p.created_at, p.resolved_at
		FROM picks p
		JOIN package_picks pp ON pp.pick_id = p.id
		WHERE pp.package_id = $1
		ORDER BY p.created_at
	`

	rows, err := r.q.Query(ctx, query, packageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get picks for package %d: %w", packageID, err)
	}
	defer rows.Close()

	return collectPicks(rows)
}

// GetByHandicapper returns the most recent picks published by a handicapper
func (r *PickRepository) GetByHandicapper(ctx context.Context, handicapperID int64, limit int) ([]*models.Pick, error) {
	query := `SELECT ` + pickColumns + ` FROM picks WHERE handicapper_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.q.Query(ctx, query, handicapperID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get picks for handicapper %d: %w", handicapperID, err)
	}
	defer rows.Close()

	return collectPicks(rows)
}

// TransitionStatus moves a pick from one status to another, stamping
// resolved_at when the target status is terminal. The WHERE guard on the
// current status makes the transition race-safe: the losing writer affects
// zero rows and gets ErrAlreadyResolved.
func (r *PickRepository) TransitionStatus(ctx context.Context, pickID int64, from, to models.PickStatus) error {
	query := `
		UPDATE picks
		SET status = $1,
		    resolved_at = CASE WHEN $1 IN ('Won', 'Lost') THEN NOW() ELSE resolved_at END
		WHERE id = $2 AND status = $3
	`

	result, err := r.q.Exec(ctx, query, to, pickID, from)
	if err != nil {
		return fmt.Errorf("failed to transition pick %d: %w", pickID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("pick %d not in status %s: %w", pickID, from, service.ErrAlreadyResolved)
	}

	return nil
}

func scanPick(row pgx.Row) (*models.Pick, error) {
	var pick models.Pick
	err := row.Scan(
		&pick.ID,
		&pick.HandicapperID,
		&pick.Title,
		&pick.League,
		&pick.MatchID,
		&pick.BookmakerKey,
		&pick.MarketKey,
		&pick.OutcomeName,
		&pick.OutcomePoint,
		&pick.OutcomeRef,
		&pick.PlayType,
		&pick.Analysis,
		&pick.Status,
		&pick.CreatedAt,
		&pick.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &pick, nil
}

func collectPicks(rows pgx.Rows) ([]*models.Pick, error) {
	var picks []*models.Pick
	for rows.Next() {
		pick, err := scanPick(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		picks = append(picks, pick)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate picks: %w", err)
	}
	return picks, nil
}
