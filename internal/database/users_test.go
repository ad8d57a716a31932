package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockfolio/portfolio-service/internal/models"
)

func TestUsersRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("CreateUser assigns id and default settings", func(t *testing.T) {
		testDB.TruncateAll(t)

		u := &models.User{Email: "user@test.com", PasswordHash: "hash", FirstName: "Jo", LastName: "Doe"}
		require.NoError(t, testDB.CreateUser(u))
		assert.NotZero(t, u.ID)

		settings, err := testDB.GetUserSettings(u.ID)
		require.NoError(t, err)
		assert.Equal(t, models.DefaultSettings(), settings)
	})

	t.Run("CreateUser rejects duplicate email", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.CreateUser(&models.User{Email: "user@test.com", PasswordHash: "hash"}))
		err := testDB.CreateUser(&models.User{Email: "user@test.com", PasswordHash: "hash"})
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("GetUserByEmail and GetUserByID", func(t *testing.T) {
		testDB.TruncateAll(t)

		u := &models.User{Email: "user@test.com", PasswordHash: "hash", FirstName: "Jo"}
		require.NoError(t, testDB.CreateUser(u))

		byEmail, err := testDB.GetUserByEmail("user@test.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)
		assert.Equal(t, "hash", byEmail.PasswordHash)

		byID, err := testDB.GetUserByID(u.ID)
		require.NoError(t, err)
		assert.Equal(t, "user@test.com", byID.Email)

		_, err = testDB.GetUserByEmail("missing@test.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("UpdateUserProfile persists the editable fields", func(t *testing.T) {
		testDB.TruncateAll(t)

		u := &models.User{Email: "user@test.com", PasswordHash: "hash"}
		require.NoError(t, testDB.CreateUser(u))

		u.FirstName = "Jane"
		u.Phone = "+1-555-0100"
		u.Address = "1 Main St"
		require.NoError(t, testDB.UpdateUserProfile(u))

		got, err := testDB.GetUserByID(u.ID)
		require.NoError(t, err)
		assert.Equal(t, "Jane", got.FirstName)
		assert.Equal(t, "+1-555-0100", got.Phone)
		assert.Equal(t, "1 Main St", got.Address)
	})

	t.Run("UpdateUserPassword replaces the hash", func(t *testing.T) {
		testDB.TruncateAll(t)

		u := &models.User{Email: "user@test.com", PasswordHash: "old"}
		require.NoError(t, testDB.CreateUser(u))

		require.NoError(t, testDB.UpdateUserPassword(u.ID, "new"))

		got, err := testDB.GetUserByID(u.ID)
		require.NoError(t, err)
		assert.Equal(t, "new", got.PasswordHash)

		err = testDB.UpdateUserPassword(9999, "x")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("UpdateUserSettings round trips", func(t *testing.T) {
		testDB.TruncateAll(t)

		u := &models.User{Email: "user@test.com", PasswordHash: "hash"}
		require.NoError(t, testDB.CreateUser(u))

		settings := models.UserSettings{DarkMode: true, Notifications: false, Currency: "EUR", Language: "de"}
		require.NoError(t, testDB.UpdateUserSettings(u.ID, settings))

		got, err := testDB.GetUserSettings(u.ID)
		require.NoError(t, err)
		assert.Equal(t, settings, got)
	})
}
