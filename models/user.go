package models

import (
	"time"
)

// UserRole distinguishes buyers from handicappers
type UserRole string

const (
	UserRoleUser        UserRole = "user"
	UserRoleHandicapper UserRole = "handicapper"
)

// User represents an account holding a credit balance. Balances are mutated
// exclusively through the ledger during settlement and purchases.
type User struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	Email     string    `db:"email"`
	Role      UserRole  `db:"role"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
