package oddsfeed

import (
	"time"

	"pickmarket/models"
)

// sportResponse is the feed's /v4/sports list item
type sportResponse struct {
	Key          string `json:"key"`
	Group        string `json:"group"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
	HasOutrights bool   `json:"has_outrights"`
}

func (s sportResponse) toModel() models.League {
	return models.League{
		Key:          s.Key,
		Group:        s.Group,
		Title:        s.Title,
		Description:  s.Description,
		Active:       s.Active,
		HasOutrights: s.HasOutrights,
	}
}

// eventResponse is the feed's /v4/sports/{key}/odds list item
type eventResponse struct {
	ID           string              `json:"id"`
	SportKey     string              `json:"sport_key"`
	SportTitle   string              `json:"sport_title"`
	CommenceTime time.Time           `json:"commence_time"`
	HomeTeam     string              `json:"home_team"`
	AwayTeam     string              `json:"away_team"`
	Bookmakers   []bookmakerResponse `json:"bookmakers"`
}

type bookmakerResponse struct {
	Key        string           `json:"key"`
	Title      string           `json:"title"`
	LastUpdate time.Time        `json:"last_update"`
	Markets    []marketResponse `json:"markets"`
}

type marketResponse struct {
	Key        string            `json:"key"`
	LastUpdate time.Time         `json:"last_update"`
	Outcomes   []outcomeResponse `json:"outcomes"`
}

type outcomeResponse struct {
	Name  string   `json:"name"`
	Price int64    `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

func (e eventResponse) toModel() models.MatchOdds {
	odds := models.MatchOdds{
		ExternalID:   e.ID,
		SportKey:     e.SportKey,
		SportTitle:   e.SportTitle,
		CommenceTime: e.CommenceTime,
		HomeTeam:     e.HomeTeam,
		AwayTeam:     e.AwayTeam,
	}
	for _, b := range e.Bookmakers {
		bookmaker := models.BookmakerOdds{
			Key:        b.Key,
			Title:      b.Title,
			LastUpdate: b.LastUpdate,
		}
		for _, m := range b.Markets {
			market := models.Market{
				Key:        m.Key,
				LastUpdate: m.LastUpdate,
			}
			for _, o := range m.Outcomes {
				market.Outcomes = append(market.Outcomes, models.Outcome{
					Name:  o.Name,
					Price: o.Price,
					Point: o.Point,
				})
			}
			bookmaker.Markets = append(bookmaker.Markets, market)
		}
		odds.Bookmakers = append(odds.Bookmakers, bookmaker)
	}
	return odds
}
