package database

import (
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/stockfolio/portfolio-service/internal/models"
)

// CreateWatchlistItem adds a symbol to a user's watchlist
func (db *DB) CreateWatchlistItem(item *models.WatchlistItem) error {
	query := `
		INSERT INTO watchlist (user_id, symbol, company_name, current_price, change_percent, added_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	addedDate := item.AddedDate
	if addedDate.IsZero() {
		addedDate = time.Now()
	}

	err := db.conn.QueryRow(query,
		item.UserID, item.Symbol, item.CompanyName, item.CurrentPrice, item.ChangePercent, addedDate,
	).Scan(&item.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("watchlist item for %s: %w", item.Symbol, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create watchlist item: %w", err)
	}
	item.AddedDate = addedDate
	return nil
}

// GetWatchlistByUser retrieves a user's watchlist ordered by added date
func (db *DB) GetWatchlistByUser(userID int) ([]*models.WatchlistItem, error) {
	query := `
		SELECT id, user_id, symbol, company_name, current_price, change_percent, added_date
		FROM watchlist
		WHERE user_id = $1
		ORDER BY added_date DESC, id DESC
	`
	rows, err := db.conn.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	var items []*models.WatchlistItem
	for rows.Next() {
		var item models.WatchlistItem
		err := rows.Scan(&item.ID, &item.UserID, &item.Symbol, &item.CompanyName,
			&item.CurrentPrice, &item.ChangePercent, &item.AddedDate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watchlist item: %w", err)
		}
		items = append(items, &item)
	}

	return items, nil
}

// UpdateWatchlistQuote stores a refreshed price and change percent on one item
func (db *DB) UpdateWatchlistQuote(id int, price, changePercent decimal.Decimal) error {
	query := `UPDATE watchlist SET current_price = $2, change_percent = $3 WHERE id = $1`
	result, err := db.conn.Exec(query, id, price, changePercent)
	if err != nil {
		return fmt.Errorf("failed to update watchlist quote: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("watchlist item %d: %w", id, ErrNotFound)
	}
	return nil
}

// UpdateWatchlistQuoteBySymbol stores a refreshed quote on every watchlist
// row tracking the symbol, across users. Used by the price tick consumer.
func (db *DB) UpdateWatchlistQuoteBySymbol(symbol string, price, changePercent decimal.Decimal) error {
	query := `UPDATE watchlist SET current_price = $2, change_percent = $3 WHERE symbol = $1`
	if _, err := db.conn.Exec(query, symbol, price, changePercent); err != nil {
		return fmt.Errorf("failed to update watchlist quotes for %s: %w", symbol, err)
	}
	return nil
}

// DeleteWatchlistItem removes a watchlist item owned by the given user
func (db *DB) DeleteWatchlistItem(userID, id int) error {
	query := `DELETE FROM watchlist WHERE id = $1 AND user_id = $2`
	result, err := db.conn.Exec(query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete watchlist item: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("watchlist item %d: %w", id, ErrNotFound)
	}
	return nil
}
