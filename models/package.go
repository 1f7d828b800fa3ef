package models

import (
	"time"
)

// PackageStatus represents the settlement state of a package
type PackageStatus string

const (
	PackageStatusLive      PackageStatus = "Live"
	PackageStatusCompleted PackageStatus = "Completed"
)

// Package is a bundle of picks sold as one product. A guaranteed package is
// settled exactly once, after every member pick has left the Live state:
// the price is refunded to the buyer when losses outnumber wins, otherwise
// it is paid out to the handicapper.
type Package struct {
	ID            int64         `db:"id"`
	HandicapperID int64         `db:"handicapper_id"`
	Name          string        `db:"name"`
	Description   string        `db:"description"`
	Price         int64         `db:"price"`
	Guaranteed    bool          `db:"guaranteed"`
	Status        PackageStatus `db:"status"`
	PickIDs       []int64       `db:"-"`
	CreatedAt     time.Time     `db:"created_at"`
	CompletedAt   *time.Time    `db:"completed_at"`
}

// IsCompleted checks if the package has already been settled
func (p *Package) IsCompleted() bool {
	return p.Status == PackageStatusCompleted
}

// PackageSettlement represents the outcome of settling a guaranteed package
type PackageSettlement struct {
	Package  *Package
	Won      int
	Lost     int
	Refunded bool
	Amount   int64
}
