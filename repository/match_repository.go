package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pickmarket/database"
	"pickmarket/models"
)

// MatchRepository implements the MatchRepository interface
type MatchRepository struct {
	q queryable
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{q: db.Pool}
}

// newMatchRepositoryWithTx creates a new match repository with a transaction
func newMatchRepositoryWithTx(tx queryable) *MatchRepository {
	return &MatchRepository{q: tx}
}

// Create persists a new match snapshot
func (r *MatchRepository) Create(ctx context.Context, match *models.Match) error {
	bookmakersJSON, err := json.Marshal(match.Bookmakers)
	if err != nil {
		return fmt.Errorf("failed to marshal bookmakers: %w", err)
	}

	query := `
		INSERT INTO matches (external_id, sport_key, sport_title, commence_time, home_team, away_team, bookmakers)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		match.ExternalID,
		match.SportKey,
		match.SportTitle,
		match.CommenceTime,
		match.HomeTeam,
		match.AwayTeam,
		bookmakersJSON,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create match %s: %w", match.ExternalID, err)
	}

	return nil
}

// GetByID retrieves a match by id
func (r *MatchRepository) GetByID(ctx context.Context, id int64) (*models.Match, error) {
	return r.getOne(ctx, `id = $1`, id)
}

// GetByExternalID retrieves a match by the feed's event id, or nil
func (r *MatchRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Match, error) {
	return r.getOne(ctx, `external_id = $1`, externalID)
}

func (r *MatchRepository) getOne(ctx context.Context, where string, arg any) (*models.Match, error) {
	query := `
		SELECT id, external_id, sport_key, sport_title, commence_time, home_team, away_team, bookmakers, created_at
		FROM matches
		WHERE ` + where

	var match models.Match
	var bookmakersJSON []byte
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&match.ID,
		&match.ExternalID,
		&match.SportKey,
		&match.SportTitle,
		&match.CommenceTime,
		&match.HomeTeam,
		&match.AwayTeam,
		&bookmakersJSON,
		&match.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	if err := json.Unmarshal(bookmakersJSON, &match.Bookmakers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bookmakers for match %d: %w", match.ID, err)
	}

	return &match, nil
}
