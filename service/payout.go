package service

import (
	"github.com/shopspring/decimal"

	"pickmarket/config"
)

// PayoutPolicy holds the configurable settlement economics. The user bonus
// is a flat per-point credit scaled by the won outcome's price magnitude;
// the handicapper share is the original stake plus that bonus. A losing
// purchased pick returns a flat consolation credit to the buyer.
type PayoutPolicy struct {
	UserBonusPerPoint decimal.Decimal
	ConsolationCredit int64
}

// NewPayoutPolicy builds the policy from configuration
func NewPayoutPolicy(cfg *config.Config) PayoutPolicy {
	return PayoutPolicy{
		UserBonusPerPoint: decimal.NewFromFloat(cfg.UserBonusPerPoint),
		ConsolationCredit: cfg.ConsolationCredit,
	}
}

// UserBonus computes the buyer's credit for a won pick quoted at the given
// American odds price. The price sign carries favorite/underdog information,
// not magnitude, so the bonus scales with its absolute value.
func (p PayoutPolicy) UserBonus(price int64) int64 {
	if price < 0 {
		price = -price
	}
	return p.UserBonusPerPoint.Mul(decimal.NewFromInt(price)).Round(0).IntPart()
}

// HandicapperShare computes the handicapper's credit for a won pick: the
// original stake plus the buyer's bonus, both funded from the resolution.
func (p PayoutPolicy) HandicapperShare(stake, price int64) int64 {
	return stake + p.UserBonus(price)
}
