package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/stockfolio/portfolio-service/internal/models"
)

// CreateUser inserts a new user with default settings
func (db *DB) CreateUser(u *models.User) error {
	settings, err := json.Marshal(models.DefaultSettings())
	if err != nil {
		return fmt.Errorf("failed to marshal default settings: %w", err)
	}

	query := `
		INSERT INTO users (email, password_hash, first_name, last_name, phone, date_of_birth, address, settings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	now := time.Now()
	err = db.conn.QueryRow(query,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone, u.DateOfBirth, u.Address, settings, now,
	).Scan(&u.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("user %s: %w", u.Email, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	u.CreatedAt = now
	return nil
}

// GetUserByEmail retrieves a user by email
func (db *DB) GetUserByEmail(email string) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, phone, date_of_birth, address, created_at
		FROM users
		WHERE email = $1
	`
	return scanSingleUser(db.conn.QueryRow(query, email))
}

// GetUserByID retrieves a user by id
func (db *DB) GetUserByID(id int) (*models.User, error) {
	query := `
		SELECT id, email, password_hash, first_name, last_name, phone, date_of_birth, address, created_at
		FROM users
		WHERE id = $1
	`
	return scanSingleUser(db.conn.QueryRow(query, id))
}

// UpdateUserProfile updates the editable profile fields
func (db *DB) UpdateUserProfile(u *models.User) error {
	query := `
		UPDATE users SET first_name = $2, last_name = $3, phone = $4, date_of_birth = $5, address = $6
		WHERE id = $1
	`
	result, err := db.conn.Exec(query, u.ID, u.FirstName, u.LastName, u.Phone, u.DateOfBirth, u.Address)
	if err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("user %d: %w", u.ID, ErrNotFound)
	}
	return nil
}

// UpdateUserPassword replaces the stored password hash
func (db *DB) UpdateUserPassword(userID int, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2 WHERE id = $1`
	result, err := db.conn.Exec(query, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return nil
}

// GetUserSettings retrieves a user's settings
func (db *DB) GetUserSettings(userID int) (models.UserSettings, error) {
	query := `SELECT settings FROM users WHERE id = $1`

	var raw []byte
	err := db.conn.QueryRow(query, userID).Scan(&raw)
	if err == sql.ErrNoRows {
		return models.UserSettings{}, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return models.UserSettings{}, fmt.Errorf("failed to get settings: %w", err)
	}

	settings := models.DefaultSettings()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &settings); err != nil {
			return models.UserSettings{}, fmt.Errorf("failed to unmarshal settings: %w", err)
		}
	}
	return settings, nil
}

// UpdateUserSettings stores a user's settings
func (db *DB) UpdateUserSettings(userID int, settings models.UserSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	query := `UPDATE users SET settings = $2 WHERE id = $1`
	result, err := db.conn.Exec(query, userID, raw)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return nil
}

func scanSingleUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var phone, dateOfBirth, address sql.NullString

	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&phone, &dateOfBirth, &address, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if phone.Valid {
		u.Phone = phone.String
	}
	if dateOfBirth.Valid {
		u.DateOfBirth = dateOfBirth.String
	}
	if address.Valid {
		u.Address = address.String
	}
	return &u, nil
}
