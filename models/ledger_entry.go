package models

import (
	"time"
)

// LedgerReason represents why a balance changed
type LedgerReason string

const (
	LedgerReasonPickWonUser         LedgerReason = "pick_won_user"
	LedgerReasonPickWonHandicapper  LedgerReason = "pick_won_handicapper"
	LedgerReasonPickLostConsolation LedgerReason = "pick_lost_consolation"
	LedgerReasonPackageRefund       LedgerReason = "package_refund"
	LedgerReasonPackagePayout       LedgerReason = "package_payout"
	LedgerReasonPurchase            LedgerReason = "purchase"
	LedgerReasonInitial             LedgerReason = "initial"
)

// RelatedType represents what entity a ledger entry settles
type RelatedType string

const (
	RelatedTypePick     RelatedType = "pick"
	RelatedTypePackage  RelatedType = "package"
	RelatedTypePurchase RelatedType = "purchase"
)

// LedgerEntry is an atomic balance mutation. The idempotency key is derived
// from the resolving event (pick or package id plus resolution type), so
// re-applying the same resolution is rejected by a unique constraint rather
// than double-paying.
type LedgerEntry struct {
	ID             int64          `db:"id"`
	UserID         int64          `db:"user_id"`
	Delta          int64          `db:"delta"`
	Reason         LedgerReason   `db:"reason"`
	IdempotencyKey string         `db:"idempotency_key"`
	BalanceBefore  int64          `db:"balance_before"`
	BalanceAfter   int64          `db:"balance_after"`
	RelatedID      *int64         `db:"related_id"`
	RelatedType    *RelatedType   `db:"related_type"`
	Metadata       map[string]any `db:"metadata"`
	CreatedAt      time.Time      `db:"created_at"`
}
