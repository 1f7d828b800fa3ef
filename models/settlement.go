package models

import (
	"time"
)

// SettlementSummary aggregates the outcome of one settlement pass. Each pick
// is counted in exactly one of Won, Lost, Pending, Skipped or Errored;
// package notification failures after a successful resolution are tracked in
// PackageErrors so they never shadow the pick's own bucket.
type SettlementSummary struct {
	RunID            string
	StartedAt        time.Time
	Duration         time.Duration
	Live             int // picks selected at the start of the pass
	Won              int
	Lost             int
	Pending          int
	Skipped          int // feed data unavailable or already resolved by a concurrent pass
	Errored          int
	PackagesSettled  int
	PackageErrors    int
	SportsFetched    int
	SportFetchErrors int
}

// Resolved returns the number of picks that reached a terminal status
func (s *SettlementSummary) Resolved() int {
	return s.Won + s.Lost
}
