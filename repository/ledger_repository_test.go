package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pickmarket/models"
	"pickmarket/repository/testutil"
	"pickmarket/service"
)

func TestLedgerRepository_Apply(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	userRepo := NewUserRepository(testDB.DB)
	ledgerRepo := NewLedgerRepository(testDB.DB)

	user := testutil.CreateTestUser("buyer")
	require.NoError(t, userRepo.Create(ctx, user))

	t.Run("applies delta and records balances", func(t *testing.T) {
		entry := testutil.CreateTestLedgerEntry(user.ID, 250, "pick:1:won:user")
		entry.Metadata = map[string]any{"price": 200}

		err := ledgerRepo.Apply(ctx, entry)
		require.NoError(t, err)

		assert.NotZero(t, entry.ID)
		assert.Equal(t, int64(1000), entry.BalanceBefore)
		assert.Equal(t, int64(1250), entry.BalanceAfter)

		updated, err := userRepo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1250), updated.Balance)
	})

	t.Run("duplicate idempotency key leaves balance untouched", func(t *testing.T) {
		duplicate := testutil.CreateTestLedgerEntry(user.ID, 250, "pick:1:won:user")

		err := ledgerRepo.Apply(ctx, duplicate)
		assert.ErrorIs(t, err, service.ErrAlreadyApplied)

		updated, err := userRepo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1250), updated.Balance)
	})

	t.Run("negative delta debits", func(t *testing.T) {
		entry := testutil.CreateTestLedgerEntry(user.ID, -100, "purchase:txn-1")
		entry.Reason = models.LedgerReasonPurchase

		err := ledgerRepo.Apply(ctx, entry)
		require.NoError(t, err)

		assert.Equal(t, int64(1250), entry.BalanceBefore)
		assert.Equal(t, int64(1150), entry.BalanceAfter)
	})

	t.Run("missing account", func(t *testing.T) {
		entry := testutil.CreateTestLedgerEntry(999999, 100, "pick:2:won:user")

		err := ledgerRepo.Apply(ctx, entry)
		assert.ErrorIs(t, err, service.ErrAccountNotFound)
	})

	t.Run("get by idempotency key", func(t *testing.T) {
		entry, err := ledgerRepo.GetByIdempotencyKey(ctx, "pick:1:won:user")
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, user.ID, entry.UserID)
		assert.Equal(t, int64(250), entry.Delta)

		missing, err := ledgerRepo.GetByIdempotencyKey(ctx, "pick:999:won:user")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("get by user returns newest first", func(t *testing.T) {
		entries, err := ledgerRepo.GetByUser(ctx, user.ID, 10)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "purchase:txn-1", entries[0].IdempotencyKey)
	})
}

func TestPickRepository_TransitionStatus(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	userRepo := NewUserRepository(testDB.DB)
	matchRepo := NewMatchRepository(testDB.DB)
	pickRepo := NewPickRepository(testDB.DB)

	handicapper := testutil.CreateTestHandicapper("capper")
	require.NoError(t, userRepo.Create(ctx, handicapper))

	match := testutil.CreateTestMatch("evt-1")
	require.NoError(t, matchRepo.Create(ctx, match))

	pick := testutil.CreateTestPick(handicapper.ID, match.ID)
	require.NoError(t, pickRepo.Create(ctx, pick))

	t.Run("live to won stamps resolved_at", func(t *testing.T) {
		err := pickRepo.TransitionStatus(ctx, pick.ID, models.PickStatusLive, models.PickStatusWon)
		require.NoError(t, err)

		updated, err := pickRepo.GetByID(ctx, pick.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PickStatusWon, updated.Status)
		assert.NotNil(t, updated.ResolvedAt)
	})

	t.Run("second transition is rejected", func(t *testing.T) {
		err := pickRepo.TransitionStatus(ctx, pick.ID, models.PickStatusLive, models.PickStatusLost)
		assert.ErrorIs(t, err, service.ErrAlreadyResolved)
	})

	t.Run("resolved pick no longer listed live", func(t *testing.T) {
		live, err := pickRepo.GetLive(ctx)
		require.NoError(t, err)
		for _, p := range live {
			assert.NotEqual(t, pick.ID, p.ID)
		}
	})
}

func TestMatchRepository_SnapshotRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	matchRepo := NewMatchRepository(testDB.DB)

	match := testutil.CreateTestMatch("evt-2")
	require.NoError(t, matchRepo.Create(ctx, match))

	stored, err := matchRepo.GetByExternalID(ctx, "evt-2")
	require.NoError(t, err)
	require.NotNil(t, stored)

	require.Len(t, stored.Bookmakers, 1)
	bookmaker := stored.FindBookmaker("draftkings")
	require.NotNil(t, bookmaker)

	market := bookmaker.FindMarket("spreads")
	require.NotNil(t, market)
	outcome := market.FindOutcome("Away Team")
	require.NotNil(t, outcome)
	require.NotNil(t, outcome.Point)
	assert.Equal(t, 3.5, *outcome.Point)

	missing, err := matchRepo.GetByExternalID(ctx, "evt-missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
