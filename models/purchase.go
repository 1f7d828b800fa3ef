package models

import (
	"time"
)

// PurchaseStatus represents the lifecycle of a purchase transaction
type PurchaseStatus string

const (
	PurchaseStatusCompleted PurchaseStatus = "completed"
	PurchaseStatusRefunded  PurchaseStatus = "refunded"
)

// Purchase records a completed sale of a pick or package. Amount is the
// stake paid in credits; ExternalTxnID is the gateway's capture id when the
// purchase went through PayPal or Stripe, or a generated id for credit buys.
type Purchase struct {
	ID            int64          `db:"id"`
	PickID        *int64         `db:"pick_id"`
	PackageID     *int64         `db:"package_id"`
	UserID        int64          `db:"user_id"`
	ExternalTxnID string         `db:"external_txn_id"`
	Amount        int64          `db:"amount"`
	Method        string         `db:"method"`
	Status        PurchaseStatus `db:"status"`
	CreatedAt     time.Time      `db:"created_at"`
}
