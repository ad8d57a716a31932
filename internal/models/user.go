package models

import "time"

// User is an account holder. PasswordHash never leaves the server.
type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone,omitempty"`
	DateOfBirth  string    `json:"date_of_birth,omitempty"`
	Address      string    `json:"address,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserSettings are per-user display preferences.
type UserSettings struct {
	DarkMode      bool   `json:"dark_mode"`
	Notifications bool   `json:"notifications"`
	Currency      string `json:"currency"`
	Language      string `json:"language"`
}

// DefaultSettings returns the settings applied to a fresh account.
func DefaultSettings() UserSettings {
	return UserSettings{
		DarkMode:      false,
		Notifications: true,
		Currency:      "USD",
		Language:      "en",
	}
}
