package service

import (
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"

	"pickmarket/models"
)

// Evaluation is the outcome of judging one pick against a fresh snapshot.
// Price is the selected outcome's current quote, used by the payout policy
// when the pick won. Err is set when the outcome was forced rather than
// judged, e.g. ErrUnsupportedMarket for a market kind with no win rule.
type Evaluation struct {
	Outcome models.PickOutcome
	Price   int64
	Err     error
}

// OutcomeEvaluator decides whether a pick has won, lost or is still pending,
// given the match snapshot stored at sync time and a freshly fetched one.
//
// The evaluator infers outcomes from subsequent odds movement rather than
// authoritative final scores; it sits behind an interface so a final-score
// based implementation can be substituted.
type OutcomeEvaluator interface {
	Evaluate(pick *models.Pick, original *models.Match, fresh *models.MatchOdds) Evaluation
}

type oddsMovementEvaluator struct{}

// NewOutcomeEvaluator creates the odds-movement based evaluator
func NewOutcomeEvaluator() OutcomeEvaluator {
	return oddsMovementEvaluator{}
}

func pending() Evaluation {
	return Evaluation{Outcome: models.PickOutcomePending}
}

// Evaluate applies the market-specific win rule to the pick's selected
// outcome. Missing data (market or outcome absent from the fresh snapshot)
// yields Pending so the caller retries on a later pass; it is never treated
// as a loss.
func (oddsMovementEvaluator) Evaluate(pick *models.Pick, original *models.Match, fresh *models.MatchOdds) Evaluation {
	if fresh == nil {
		return pending()
	}

	market := findFreshMarket(pick, fresh)
	if market == nil {
		return pending()
	}

	name := resolveOutcomeName(pick, original)
	if name == "" {
		log.WithFields(log.Fields{
			"pickID":     pick.ID,
			"marketKey":  pick.MarketKey,
			"outcomeRef": pick.OutcomeRef,
		}).Warn("Could not resolve selected outcome name for pick")
		return pending()
	}

	selected := market.FindOutcome(name)
	if selected == nil {
		return pending()
	}

	won := false
	switch market.Kind() {
	case models.MarketKindH2H:
		won = selected.Price > 0
	case models.MarketKindSpreads:
		var point float64
		if selected.Point != nil {
			point = *selected.Point
		}
		won = (point > 0 && selected.Price > 0) || (point <= 0 && selected.Price < 0)
	case models.MarketKindTotals:
		won = selected.Price > 0
	default:
		return Evaluation{
			Outcome: models.PickOutcomeLost,
			Price:   selected.Price,
			Err:     fmt.Errorf("%w: %s", ErrUnsupportedMarket, market.Key),
		}
	}

	if won {
		return Evaluation{Outcome: models.PickOutcomeWon, Price: selected.Price}
	}
	return Evaluation{Outcome: models.PickOutcomeLost, Price: selected.Price}
}

// findFreshMarket locates the pick's market in the fresh snapshot. The
// pick's bookmaker is preferred; when that bookmaker is absent from the
// snapshot, any bookmaker carrying the market key serves as fallback.
func findFreshMarket(pick *models.Pick, fresh *models.MatchOdds) *models.Market {
	if bookmaker := fresh.FindBookmaker(pick.BookmakerKey); bookmaker != nil {
		if market := bookmaker.FindMarket(pick.MarketKey); market != nil {
			return market
		}
	}
	for i := range fresh.Bookmakers {
		if market := fresh.Bookmakers[i].FindMarket(pick.MarketKey); market != nil {
			return market
		}
	}
	return nil
}

// resolveOutcomeName returns the selected outcome's display name. The name
// captured at pick creation is the source of truth; the legacy stored
// reference is only bridged through the pick's original market outcome list,
// never matched against the fresh snapshot, because outcome identifiers are
// not stable across snapshots.
func resolveOutcomeName(pick *models.Pick, original *models.Match) string {
	if pick.OutcomeName != "" {
		return pick.OutcomeName
	}
	if original == nil || pick.OutcomeRef == "" {
		return ""
	}

	bookmaker := original.FindBookmaker(pick.BookmakerKey)
	if bookmaker == nil {
		return ""
	}
	market := bookmaker.FindMarket(pick.MarketKey)
	if market == nil {
		return ""
	}

	// The legacy reference is either an outcome name or a position within
	// the original outcome list
	if outcome := market.FindOutcome(pick.OutcomeRef); outcome != nil {
		return outcome.Name
	}
	if idx, err := strconv.Atoi(pick.OutcomeRef); err == nil && idx >= 0 && idx < len(market.Outcomes) {
		return market.Outcomes[idx].Name
	}
	return ""
}
