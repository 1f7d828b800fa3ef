package models

import (
	"time"
)

// MarketKind classifies a betting market at the ingestion boundary so the
// evaluator never branches on raw feed strings.
type MarketKind string

const (
	MarketKindH2H     MarketKind = "h2h"
	MarketKindSpreads MarketKind = "spreads"
	MarketKindTotals  MarketKind = "totals"
	MarketKindUnknown MarketKind = "unknown"
)

// ParseMarketKind maps a feed market key to its kind
func ParseMarketKind(key string) MarketKind {
	switch key {
	case "h2h":
		return MarketKindH2H
	case "spreads":
		return MarketKindSpreads
	case "totals":
		return MarketKindTotals
	default:
		return MarketKindUnknown
	}
}

// Outcome is a single selectable side within a market. Price is an American
// odds quote; Point carries the spread or total line when the market has one.
type Outcome struct {
	Name  string   `json:"name"`
	Price int64    `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

// Market is a betting market snapshot belonging to a bookmaker
type Market struct {
	Key        string    `json:"key"`
	LastUpdate time.Time `json:"last_update"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Kind returns the classified market kind
func (m *Market) Kind() MarketKind {
	return ParseMarketKind(m.Key)
}

// FindOutcome looks up an outcome by its display name
func (m *Market) FindOutcome(name string) *Outcome {
	for i := range m.Outcomes {
		if m.Outcomes[i].Name == name {
			return &m.Outcomes[i]
		}
	}
	return nil
}

// BookmakerOdds is a bookmaker's market snapshot within a match
type BookmakerOdds struct {
	Key        string    `json:"key"`
	Title      string    `json:"title"`
	LastUpdate time.Time `json:"last_update"`
	Markets    []Market  `json:"markets"`
}

// FindMarket looks up a market by key
func (b *BookmakerOdds) FindMarket(key string) *Market {
	for i := range b.Markets {
		if b.Markets[i].Key == key {
			return &b.Markets[i]
		}
	}
	return nil
}

// Match is a sporting event snapshot created by the odds sync. The bookmaker
// snapshot is captured once at sync time and is immutable afterwards; it
// provides the original outcome list picks are evaluated against.
type Match struct {
	ID           int64           `db:"id"`
	ExternalID   string          `db:"external_id"`
	SportKey     string          `db:"sport_key"`
	SportTitle   string          `db:"sport_title"`
	CommenceTime time.Time       `db:"commence_time"`
	HomeTeam     string          `db:"home_team"`
	AwayTeam     string          `db:"away_team"`
	Bookmakers   []BookmakerOdds `db:"bookmakers"`
	CreatedAt    time.Time       `db:"created_at"`
}

// FindBookmaker looks up a bookmaker snapshot by key
func (m *Match) FindBookmaker(key string) *BookmakerOdds {
	for i := range m.Bookmakers {
		if m.Bookmakers[i].Key == key {
			return &m.Bookmakers[i]
		}
	}
	return nil
}

// MatchOdds is a freshly fetched odds snapshot for one event, not yet
// persisted. The sync service converts these into Match rows; the settlement
// engine matches them against stored picks by external id.
type MatchOdds struct {
	ExternalID   string
	SportKey     string
	SportTitle   string
	CommenceTime time.Time
	HomeTeam     string
	AwayTeam     string
	Bookmakers   []BookmakerOdds
}

// FindBookmaker looks up a bookmaker by key in the fresh snapshot
func (m *MatchOdds) FindBookmaker(key string) *BookmakerOdds {
	for i := range m.Bookmakers {
		if m.Bookmakers[i].Key == key {
			return &m.Bookmakers[i]
		}
	}
	return nil
}

// League is a sport/league listing from the odds feed
type League struct {
	ID           int64     `db:"id"`
	Key          string    `db:"key"`
	Group        string    `db:"sport_group"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	Active       bool      `db:"active"`
	HasOutrights bool      `db:"has_outrights"`
	CreatedAt    time.Time `db:"created_at"`
}
