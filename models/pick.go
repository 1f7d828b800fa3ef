package models

import (
	"time"
)

// PickStatus represents the settlement state of a pick
type PickStatus string

const (
	PickStatusLive PickStatus = "Live"
	PickStatusWon  PickStatus = "Won"
	PickStatusLost PickStatus = "Lost"
)

// PlayType represents the access tier of a pick
type PlayType string

const (
	PlayTypeFree    PlayType = "Free"
	PlayTypePremium PlayType = "Premium"
)

// PickOutcome is the result of evaluating a pick against a fresh odds snapshot
type PickOutcome string

const (
	PickOutcomeWon     PickOutcome = "won"
	PickOutcomeLost    PickOutcome = "lost"
	PickOutcomePending PickOutcome = "pending"
)

// Pick represents a single wagered proposition published by a handicapper.
// OutcomeName and OutcomePoint are captured from the market at creation time
// and are the source of truth for later evaluation; OutcomeRef carries the
// legacy stored reference and is only consulted when OutcomeName is empty.
type Pick struct {
	ID            int64      `db:"id"`
	HandicapperID int64      `db:"handicapper_id"`
	Title         string     `db:"title"`
	League        string     `db:"league"`
	MatchID       int64      `db:"match_id"`
	BookmakerKey  string     `db:"bookmaker_key"`
	MarketKey     string     `db:"market_key"`
	OutcomeName   string     `db:"outcome_name"`
	OutcomePoint  *float64   `db:"outcome_point"`
	OutcomeRef    string     `db:"outcome_ref"`
	PlayType      PlayType   `db:"play_type"`
	Analysis      string     `db:"analysis"`
	Status        PickStatus `db:"status"`
	CreatedAt     time.Time  `db:"created_at"`
	ResolvedAt    *time.Time `db:"resolved_at"`
}

// IsLive checks if the pick is still open for settlement
func (p *Pick) IsLive() bool {
	return p.Status == PickStatusLive
}

// IsResolved checks if the pick has reached a terminal status
func (p *Pick) IsResolved() bool {
	return p.Status == PickStatusWon || p.Status == PickStatusLost
}

// PickResolution represents the outcome of settling a single pick
type PickResolution struct {
	Pick             *Pick
	Outcome          PickOutcome
	UserCredit       int64
	HandicapperShare int64
	Purchased        bool
}
