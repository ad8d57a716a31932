package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/stockfolio/portfolio-service/internal/models"
)

const holdingColumns = `id, user_id, symbol, company_name, quantity, buy_price, current_price,
	       invested_amount, total_value, profit_loss, profit_loss_percentage,
	       purchase_date, created_at, updated_at`

// CreateHolding inserts a new holding row for a (user, symbol) pair
func (db *DB) CreateHolding(h *models.Holding) error {
	query := `
		INSERT INTO holdings (
			user_id, symbol, company_name, quantity, buy_price, current_price,
			invested_amount, total_value, profit_loss, profit_loss_percentage,
			purchase_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING id
	`
	now := time.Now()
	purchaseDate := h.PurchaseDate
	if purchaseDate.IsZero() {
		purchaseDate = now
	}

	err := db.conn.QueryRow(query,
		h.UserID, h.Symbol, h.CompanyName, h.Quantity, h.BuyPrice, h.CurrentPrice,
		h.InvestedAmount, h.TotalValue, h.ProfitLoss, h.ProfitLossPercentage,
		purchaseDate, now,
	).Scan(&h.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("holding for %s: %w", h.Symbol, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create holding: %w", err)
	}
	h.PurchaseDate = purchaseDate
	h.CreatedAt = now
	h.UpdatedAt = now
	return nil
}

// GetHoldingsByUser retrieves all holdings for a user ordered by symbol
func (db *DB) GetHoldingsByUser(userID int) ([]*models.Holding, error) {
	query := `
		SELECT ` + holdingColumns + `
		FROM holdings
		WHERE user_id = $1
		ORDER BY symbol ASC
	`
	return db.scanHoldings(db.conn.Query(query, userID))
}

// GetHolding retrieves one holding by (user, symbol)
func (db *DB) GetHolding(userID int, symbol string) (*models.Holding, error) {
	query := `
		SELECT ` + holdingColumns + `
		FROM holdings
		WHERE user_id = $1 AND symbol = $2
	`
	return scanSingleHolding(db.conn.QueryRow(query, userID, symbol))
}

// GetHoldingByID retrieves one holding by id, scoped to its owner
func (db *DB) GetHoldingByID(userID, id int) (*models.Holding, error) {
	query := `
		SELECT ` + holdingColumns + `
		FROM holdings
		WHERE id = $1 AND user_id = $2
	`
	return scanSingleHolding(db.conn.QueryRow(query, id, userID))
}

// GetHoldingsBySymbol retrieves holdings across all users for one symbol.
// Used by the price tick consumer to fan a market price out to every
// position in that stock.
func (db *DB) GetHoldingsBySymbol(symbol string) ([]*models.Holding, error) {
	query := `
		SELECT ` + holdingColumns + `
		FROM holdings
		WHERE symbol = $1
		ORDER BY id ASC
	`
	return db.scanHoldings(db.conn.Query(query, symbol))
}

// UpdateHoldingSnapshot persists the full mutable state of a holding:
// position fields and the derived valuation triple together.
func (db *DB) UpdateHoldingSnapshot(h *models.Holding) error {
	query := `
		UPDATE holdings SET
			quantity = $2, buy_price = $3, current_price = $4,
			invested_amount = $5, total_value = $6, profit_loss = $7,
			profit_loss_percentage = $8, updated_at = $9
		WHERE id = $1
	`
	now := time.Now()
	result, err := db.conn.Exec(query,
		h.ID, h.Quantity, h.BuyPrice, h.CurrentPrice,
		h.InvestedAmount, h.TotalValue, h.ProfitLoss, h.ProfitLossPercentage, now,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("holding %d: %w", h.ID, ErrNotFound)
	}
	h.UpdatedAt = now
	return nil
}

// DeleteHolding removes a holding owned by the given user
func (db *DB) DeleteHolding(userID, id int) error {
	query := `DELETE FROM holdings WHERE id = $1 AND user_id = $2`
	result, err := db.conn.Exec(query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete holding: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("holding %d: %w", id, ErrNotFound)
	}
	return nil
}

func scanSingleHolding(row *sql.Row) (*models.Holding, error) {
	var h models.Holding
	err := row.Scan(
		&h.ID, &h.UserID, &h.Symbol, &h.CompanyName, &h.Quantity, &h.BuyPrice, &h.CurrentPrice,
		&h.InvestedAmount, &h.TotalValue, &h.ProfitLoss, &h.ProfitLossPercentage,
		&h.PurchaseDate, &h.CreatedAt, &h.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("holding: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get holding: %w", err)
	}
	return &h, nil
}

func (db *DB) scanHoldings(rows *sql.Rows, err error) ([]*models.Holding, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []*models.Holding
	for rows.Next() {
		var h models.Holding
		err := rows.Scan(
			&h.ID, &h.UserID, &h.Symbol, &h.CompanyName, &h.Quantity, &h.BuyPrice, &h.CurrentPrice,
			&h.InvestedAmount, &h.TotalValue, &h.ProfitLoss, &h.ProfitLossPercentage,
			&h.PurchaseDate, &h.CreatedAt, &h.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, &h)
	}

	return holdings, nil
}
