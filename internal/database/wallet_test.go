package database

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("GetWallet without a row reports zero balance", func(t *testing.T) {
		testDB.TruncateAll(t)
		userID := testDB.CreateTestUser(t, "wallet@test.com")

		w, err := testDB.GetWallet(userID)
		require.NoError(t, err)
		assert.Equal(t, userID, w.UserID)
		assert.True(t, w.Balance.IsZero())
	})

	t.Run("UpsertWalletBalance creates then updates", func(t *testing.T) {
		testDB.TruncateAll(t)
		userID := testDB.CreateTestUser(t, "wallet@test.com")

		require.NoError(t, testDB.UpsertWalletBalance(userID, decimal.NewFromInt(1000)))

		w, err := testDB.GetWallet(userID)
		require.NoError(t, err)
		assert.True(t, w.Balance.Equal(decimal.NewFromInt(1000)))

		require.NoError(t, testDB.UpsertWalletBalance(userID, decimal.RequireFromString("499.50")))

		w, err = testDB.GetWallet(userID)
		require.NoError(t, err)
		assert.True(t, w.Balance.Equal(decimal.RequireFromString("499.50")))
	})

	t.Run("WalletBalance reads the stored amount", func(t *testing.T) {
		testDB.TruncateAll(t)
		userID := testDB.CreateTestUser(t, "wallet@test.com")

		require.NoError(t, testDB.UpsertWalletBalance(userID, decimal.NewFromInt(42)))

		balance, err := testDB.WalletBalance(userID)
		require.NoError(t, err)
		assert.True(t, balance.Equal(decimal.NewFromInt(42)))
	})
}
