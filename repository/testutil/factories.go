package testutil

import (
	"time"

	"pickmarket/models"
)

// CreateTestUser creates a test user with default values
func CreateTestUser(username string) *models.User {
	return &models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     models.UserRoleUser,
		Balance:  1000,
	}
}

// CreateTestHandicapper creates a test handicapper account
func CreateTestHandicapper(username string) *models.User {
	user := CreateTestUser(username)
	user.Role = models.UserRoleHandicapper
	return user
}

// CreateTestMatch creates a test match with one bookmaker carrying h2h,
// spreads and totals markets
func CreateTestMatch(externalID string) *models.Match {
	point := 3.5
	negPoint := -3.5
	over := 44.5
	under := -44.5
	return &models.Match{
		ExternalID:   externalID,
		SportKey:     "americanfootball_nfl",
		SportTitle:   "NFL",
		CommenceTime: time.Now().Add(24 * time.Hour),
		HomeTeam:     "Home Team",
		AwayTeam:     "Away Team",
		Bookmakers: []models.BookmakerOdds{
			{
				Key:        "draftkings",
				Title:      "DraftKings",
				LastUpdate: time.Now(),
				Markets: []models.Market{
					{
						Key: "h2h",
						Outcomes: []models.Outcome{
							{Name: "Home Team", Price: -150},
							{Name: "Away Team", Price: 130},
						},
					},
					{
						Key: "spreads",
						Outcomes: []models.Outcome{
							{Name: "Home Team", Price: -110, Point: &negPoint},
							{Name: "Away Team", Price: -110, Point: &point},
						},
					},
					{
						Key: "totals",
						Outcomes: []models.Outcome{
							{Name: "Over", Price: -105, Point: &over},
							{Name: "Under", Price: -115, Point: &under},
						},
					},
				},
			},
		},
	}
}

// CreateTestPick creates a live test pick against the given match
func CreateTestPick(handicapperID, matchID int64) *models.Pick {
	return &models.Pick{
		HandicapperID: handicapperID,
		Title:         "Test pick",
		League:        "NFL",
		MatchID:       matchID,
		BookmakerKey:  "draftkings",
		MarketKey:     "h2h",
		OutcomeName:   "Away Team",
		PlayType:      models.PlayTypePremium,
		Status:        models.PickStatusLive,
	}
}

// CreateTestLedgerEntry creates a test ledger entry for the given user
func CreateTestLedgerEntry(userID int64, delta int64, key string) *models.LedgerEntry {
	return &models.LedgerEntry{
		UserID:         userID,
		Delta:          delta,
		Reason:         models.LedgerReasonPickWonUser,
		IdempotencyKey: key,
	}
}
