package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/stockfolio/portfolio-service/internal/models"
)

// CreateTransaction appends a new transaction record. Transactions are the
// audit trail: there is no update or delete in the normal flow.
func (db *DB) CreateTransaction(t *models.Transaction) error {
	query := `
		INSERT INTO transactions (user_id, symbol, transaction_type, quantity, price, total_amount, transaction_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	date := t.Date
	if date.IsZero() {
		date = time.Now()
	}

	err := db.conn.QueryRow(query,
		t.UserID, t.Symbol, t.Type, t.Quantity, t.Price, t.TotalAmount, date,
	).Scan(&t.ID)

	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	t.Date = date
	return nil
}

// GetTransactionsByUser retrieves a user's transactions, newest first,
// optionally filtered by symbol, with limit/offset pagination.
func (db *DB) GetTransactionsByUser(userID int, symbol string, limit, offset int) ([]*models.Transaction, error) {
	query := `
		SELECT id, user_id, symbol, transaction_type, quantity, price, total_amount, transaction_date
		FROM transactions
		WHERE user_id = $1 AND ($2 = '' OR symbol = $2)
		ORDER BY transaction_date DESC, id DESC
		LIMIT $3 OFFSET $4
	`
	return db.scanTransactions(db.conn.Query(query, userID, symbol, limit, offset))
}

// GetTransactionsBySymbolAscending retrieves every transaction a user made
// in one symbol in execution order. Used to replay the log against the
// stored holding when reconciling.
func (db *DB) GetTransactionsBySymbolAscending(userID int, symbol string) ([]*models.Transaction, error) {
	query := `
		SELECT id, user_id, symbol, transaction_type, quantity, price, total_amount, transaction_date
		FROM transactions
		WHERE user_id = $1 AND symbol = $2
		ORDER BY transaction_date ASC, id ASC
	`
	return db.scanTransactions(db.conn.Query(query, userID, symbol))
}

// CountTransactionsByUser returns how many transactions match the filter
func (db *DB) CountTransactionsByUser(userID int, symbol string) (int, error) {
	query := `SELECT COUNT(*) FROM transactions WHERE user_id = $1 AND ($2 = '' OR symbol = $2)`

	var count int
	if err := db.conn.QueryRow(query, userID, symbol).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return count, nil
}

func (db *DB) scanTransactions(rows *sql.Rows, err error) ([]*models.Transaction, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		var t models.Transaction
		err := rows.Scan(&t.ID, &t.UserID, &t.Symbol, &t.Type, &t.Quantity, &t.Price, &t.TotalAmount, &t.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, &t)
	}

	return transactions, nil
}
