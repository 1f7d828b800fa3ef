package repository

import (
	"context"
	"fmt"

	"pickmarket/database"
	"pickmarket/models"
)

// LeagueRepository implements the LeagueRepository interface
type LeagueRepository struct {
	q queryable
}

// NewLeagueRepository creates a new league repository
func NewLeagueRepository(db *database.DB) *LeagueRepository {
	return &LeagueRepository{q: db.Pool}
}

// newLeagueRepositoryWithTx creates a new league repository with a transaction
func newLeagueRepositoryWithTx(tx queryable) *LeagueRepository {
	return &LeagueRepository{q: tx}
}

// Upsert inserts a league or refreshes its feed-provided fields
func (r *LeagueRepository) Upsert(ctx context.Context, league *models.League) error {
	query := `
		INSERT INTO leagues (key, sport_group, title, description, active, has_outrights)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (key) DO UPDATE
		SET sport_group = EXCLUDED.sport_group,
		    title = EXCLUDED.title,
		    description = EXCLUDED.description,
		    active = EXCLUDED.active,
		    has_outrights = EXCLUDED.has_outrights
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		league.Key,
		league.Group,
		league.Title,
		league.Description,
		league.Active,
		league.HasOutrights,
	).Scan(&league.ID, &league.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert league %s: %w", league.Key, err)
	}

	return nil
}

// GetActive returns all active leagues
func (r *LeagueRepository) GetActive(ctx context.Context) ([]*models.League, error) {
	query := `
		SELECT id, key, sport_group, title, description, active, has_outrights, created_at
		FROM leagues
		WHERE active
		ORDER BY key
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active leagues: %w", err)
	}
	defer rows.Close()

	var leagues []*models.League
	for rows.Next() {
		var league models.League
		err := rows.Scan(
			&league.ID,
			&league.Key,
			&league.Group,
			&league.Title,
			&league.Description,
			&league.Active,
			&league.HasOutrights,
			&league.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan league: %w", err)
		}
		leagues = append(leagues, &league)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leagues: %w", err)
	}

	return leagues, nil
}
