package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockfolio/portfolio-service/internal/models"
	"github.com/stockfolio/portfolio-service/internal/trading"
)

// tradeTx implements trading.Tx on top of one *sql.Tx. The FOR UPDATE
// reads lock the holding and wallet rows, serializing concurrent trades
// on the same (user, symbol).
type tradeTx struct {
	tx *sql.Tx
}

// InTradeTx runs fn inside one database transaction. Any error from fn
// rolls everything back, so a failed trade leaves no partial write.
func (db *DB) InTradeTx(ctx context.Context, fn func(tx trading.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin trade transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&tradeTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trade transaction: %w", err)
	}
	return nil
}

// WalletBalance returns the user's balance outside of any trade
func (db *DB) WalletBalance(userID int) (decimal.Decimal, error) {
	w, err := db.GetWallet(userID)
	if err != nil {
		return decimal.Zero, err
	}
	return w.Balance, nil
}

func (t *tradeTx) HoldingForUpdate(userID int, symbol string) (*models.Holding, error) {
	query := `
		SELECT ` + holdingColumns + `
		FROM holdings
		WHERE user_id = $1 AND symbol = $2
		FOR UPDATE
	`
	var h models.Holding
	err := t.tx.QueryRow(query, userID, symbol).Scan(
		&h.ID, &h.UserID, &h.Symbol, &h.CompanyName, &h.Quantity, &h.BuyPrice, &h.CurrentPrice,
		&h.InvestedAmount, &h.TotalValue, &h.ProfitLoss, &h.ProfitLossPercentage,
		&h.PurchaseDate, &h.CreatedAt, &h.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock holding: %w", err)
	}
	return &h, nil
}

func (t *tradeTx) CreateHolding(h *models.Holding) error {
	query := `
		INSERT INTO holdings (
			user_id, symbol, company_name, quantity, buy_price, current_price,
			invested_amount, total_value, profit_loss, profit_loss_percentage,
			purchase_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING id
	`
	now := time.Now()
	err := t.tx.QueryRow(query,
		h.UserID, h.Symbol, h.CompanyName, h.Quantity, h.BuyPrice, h.CurrentPrice,
		h.InvestedAmount, h.TotalValue, h.ProfitLoss, h.ProfitLossPercentage,
		h.PurchaseDate, now,
	).Scan(&h.ID)
	if err != nil {
		return fmt.Errorf("failed to create holding in trade: %w", err)
	}
	h.CreatedAt = now
	h.UpdatedAt = now
	return nil
}

func (t *tradeTx) UpdateHolding(h *models.Holding) error {
	query := `
		UPDATE holdings SET
			quantity = $2, buy_price = $3, current_price = $4,
			invested_amount = $5, total_value = $6, profit_loss = $7,
			profit_loss_percentage = $8, updated_at = $9
		WHERE id = $1
	`
	now := time.Now()
	result, err := t.tx.Exec(query,
		h.ID, h.Quantity, h.BuyPrice, h.CurrentPrice,
		h.InvestedAmount, h.TotalValue, h.ProfitLoss, h.ProfitLossPercentage, now,
	)
	if err != nil {
		return fmt.Errorf("failed to update holding in trade: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("holding %d: %w", h.ID, ErrNotFound)
	}
	h.UpdatedAt = now
	return nil
}

func (t *tradeTx) WalletBalanceForUpdate(userID int) (decimal.Decimal, error) {
	// A missing row cannot be locked, so concurrent first uses would both
	// read zero and the later commit would clobber the earlier one. Seed
	// the row first; FOR UPDATE then always has a row to serialize on.
	seed := `
		INSERT INTO wallet (user_id, balance, updated_at)
		VALUES ($1, 0, $2)
		ON CONFLICT (user_id) DO NOTHING
	`
	if _, err := t.tx.Exec(seed, userID, time.Now()); err != nil {
		return decimal.Zero, fmt.Errorf("failed to seed wallet: %w", err)
	}

	query := `SELECT balance FROM wallet WHERE user_id = $1 FOR UPDATE`

	var balance decimal.Decimal
	if err := t.tx.QueryRow(query, userID).Scan(&balance); err != nil {
		return decimal.Zero, fmt.Errorf("failed to lock wallet: %w", err)
	}
	return balance, nil
}

func (t *tradeTx) SetWalletBalance(userID int, balance decimal.Decimal) error {
	query := `UPDATE wallet SET balance = $2, updated_at = $3 WHERE user_id = $1`

	result, err := t.tx.Exec(query, userID, balance, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set wallet balance: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("wallet for user %d: %w", userID, ErrNotFound)
	}
	return nil
}

func (t *tradeTx) CreateTransaction(tr *models.Transaction) error {
	query := `
		INSERT INTO transactions (user_id, symbol, transaction_type, quantity, price, total_amount, transaction_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := t.tx.QueryRow(query,
		tr.UserID, tr.Symbol, tr.Type, tr.Quantity, tr.Price, tr.TotalAmount, tr.Date,
	).Scan(&tr.ID)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}
