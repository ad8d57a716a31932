package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockfolio/portfolio-service/internal/models"
)

// GetWallet retrieves a user's wallet. A user without a wallet row has a
// zero balance rather than an error: the row only appears on first deposit.
func (db *DB) GetWallet(userID int) (*models.Wallet, error) {
	query := `SELECT user_id, balance, updated_at FROM wallet WHERE user_id = $1`

	var w models.Wallet
	err := db.conn.QueryRow(query, userID).Scan(&w.UserID, &w.Balance, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return &models.Wallet{UserID: userID, Balance: decimal.Zero}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &w, nil
}

// UpsertWalletBalance sets the wallet balance, creating the row if absent
func (db *DB) UpsertWalletBalance(userID int, balance decimal.Decimal) error {
	query := `
		INSERT INTO wallet (user_id, balance, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			balance = EXCLUDED.balance,
			updated_at = EXCLUDED.updated_at
	`
	_, err := db.conn.Exec(query, userID, balance, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert wallet: %w", err)
	}
	return nil
}
