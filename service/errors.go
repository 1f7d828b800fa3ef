package service

import (
	"errors"

	"pickmarket/oddsfeed"
)

// Sentinel errors for the settlement core. Per-pick failures are matched with
// errors.Is so ledger failures surface distinctly from evaluator and feed
// failures.
var (
	// ErrFeedUnavailable marks a transient odds feed failure; affected picks
	// are skipped for the pass and retried on the next one. It aliases the
	// feed client's sentinel so callers can match either name.
	ErrFeedUnavailable = oddsfeed.ErrFeedUnavailable

	// ErrAccountNotFound marks a ledger credit whose target account could
	// not be loaded. The enclosing pick transaction is rolled back.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAlreadyResolved marks a guarded status transition that found the
	// entity already settled. It short-circuits idempotent retries and is
	// not a failure.
	ErrAlreadyResolved = errors.New("already resolved")

	// ErrAlreadyApplied marks a ledger entry whose idempotency key has
	// already been recorded; the balance is untouched.
	ErrAlreadyApplied = errors.New("ledger entry already applied")

	// ErrUnsupportedMarket marks a market kind the evaluator has no win rule
	// for.
	ErrUnsupportedMarket = errors.New("unsupported market type")
)
