// Package portfolio serves the read side of the tracker: holdings with
// lazily refreshed prices, the portfolio summary, the watchlist, the
// transaction history and the CSV export.
package portfolio

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockfolio/portfolio-service/internal/marketdata"
	"github.com/stockfolio/portfolio-service/internal/models"
	"github.com/stockfolio/portfolio-service/internal/utils"
	"github.com/stockfolio/portfolio-service/internal/valuation"
)

// Validation errors for the maintenance endpoints.
var (
	ErrInvalidSymbol   = errors.New("symbol is required")
	ErrInvalidQuantity = errors.New("quantity must be a positive number")
	ErrInvalidPrice    = errors.New("price must be a positive number")
)

// Store is the persistence surface the portfolio service needs.
type Store interface {
	CreateHolding(h *models.Holding) error
	GetHoldingsByUser(userID int) ([]*models.Holding, error)
	GetHolding(userID int, symbol string) (*models.Holding, error)
	GetHoldingByID(userID, id int) (*models.Holding, error)
	UpdateHoldingSnapshot(h *models.Holding) error
	DeleteHolding(userID, id int) error

	CreateWatchlistItem(item *models.WatchlistItem) error
	GetWatchlistByUser(userID int) ([]*models.WatchlistItem, error)
	UpdateWatchlistQuote(id int, price, changePercent decimal.Decimal) error
	DeleteWatchlistItem(userID, id int) error

	GetTransactionsByUser(userID int, symbol string, limit, offset int) ([]*models.Transaction, error)
	GetTransactionsBySymbolAscending(userID int, symbol string) ([]*models.Transaction, error)
	CountTransactionsByUser(userID int, symbol string) (int, error)
}

// Service reads and maintains a user's portfolio.
type Service struct {
	store  Store
	quotes marketdata.Quoter
}

// New creates a portfolio service
func New(store Store, quotes marketdata.Quoter) *Service {
	return &Service{store: store, quotes: quotes}
}

// Holdings lists a user's holdings. Each one is refreshed against the
// quote provider; when no quote is available the last stored price is
// kept, so listing still works with the provider down.
func (s *Service) Holdings(ctx context.Context, userID int) ([]*models.Holding, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	holdings, err := s.store.GetHoldingsByUser(userID)
	if err != nil {
		return nil, err
	}

	for _, h := range holdings {
		quote, err := s.quotes.Quote(ctx, h.Symbol)
		if err != nil {
			slog.Warn("using stored price, quote unavailable",
				slog.String("rqID", rqID), slog.String("symbol", h.Symbol))
			continue
		}
		if quote.CurrentPrice.Equal(h.CurrentPrice) {
			continue
		}

		h.CurrentPrice = quote.CurrentPrice
		valuation.Recalculate(h)
		if err := s.store.UpdateHoldingSnapshot(h); err != nil {
			return nil, err
		}
	}

	return holdings, nil
}

// Summary aggregates the refreshed holdings into the portfolio totals.
func (s *Service) Summary(ctx context.Context, userID int) (*models.PortfolioSummary, error) {
	holdings, err := s.Holdings(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &models.PortfolioSummary{HoldingsCount: len(holdings)}
	for _, h := range holdings {
		summary.TotalInvestment = summary.TotalInvestment.Add(h.InvestedAmount)
		summary.CurrentValue = summary.CurrentValue.Add(h.TotalValue)
	}
	summary.TotalProfitLoss = valuation.ProfitLoss(summary.CurrentValue, summary.TotalInvestment)
	summary.TotalProfitLossPercentage = valuation.ProfitLossPercentage(summary.TotalProfitLoss, summary.TotalInvestment)

	return summary, nil
}

// AddHolding creates a holding directly, outside of trading. The current
// price comes from a live quote when available, otherwise the buy price.
func (s *Service) AddHolding(ctx context.Context, userID int, symbol, companyName string, quantity, buyPrice decimal.Decimal, purchaseDate time.Time) (*models.Holding, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}
	if !quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if !buyPrice.IsPositive() {
		return nil, ErrInvalidPrice
	}
	if companyName == "" {
		companyName = symbol
	}

	currentPrice := buyPrice
	if quote, err := s.quotes.Quote(ctx, symbol); err == nil {
		currentPrice = quote.CurrentPrice
	}

	h := &models.Holding{
		UserID:         userID,
		Symbol:         symbol,
		CompanyName:    companyName,
		Quantity:       quantity,
		BuyPrice:       buyPrice,
		CurrentPrice:   currentPrice,
		InvestedAmount: quantity.Mul(buyPrice),
		PurchaseDate:   purchaseDate,
	}
	valuation.Recalculate(h)

	if err := s.store.CreateHolding(h); err != nil {
		return nil, err
	}
	return h, nil
}

// UpdateHolding edits quantity and/or buy price of a holding and
// recomputes its cost basis and valuation. Zero-valued inputs leave the
// corresponding field unchanged.
func (s *Service) UpdateHolding(ctx context.Context, userID, id int, quantity, buyPrice decimal.Decimal) (*models.Holding, error) {
	h, err := s.store.GetHoldingByID(userID, id)
	if err != nil {
		return nil, err
	}

	if !quantity.IsZero() {
		if quantity.IsNegative() {
			return nil, ErrInvalidQuantity
		}
		h.Quantity = quantity
	}
	if !buyPrice.IsZero() {
		if buyPrice.IsNegative() {
			return nil, ErrInvalidPrice
		}
		h.BuyPrice = buyPrice
	}

	h.InvestedAmount = h.Quantity.Mul(h.BuyPrice)
	valuation.Recalculate(h)

	if err := s.store.UpdateHoldingSnapshot(h); err != nil {
		return nil, err
	}
	return h, nil
}

// RemoveHolding deletes a holding owned by the user
func (s *Service) RemoveHolding(ctx context.Context, userID, id int) error {
	return s.store.DeleteHolding(userID, id)
}

// Watchlist lists the user's watchlist, refreshing price and change
// percent from the quote provider where possible.
func (s *Service) Watchlist(ctx context.Context, userID int) ([]*models.WatchlistItem, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	items, err := s.store.GetWatchlistByUser(userID)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		quote, err := s.quotes.Quote(ctx, item.Symbol)
		if err != nil {
			slog.Warn("using stored watchlist quote, provider unavailable",
				slog.String("rqID", rqID), slog.String("symbol", item.Symbol))
			continue
		}
		if quote.CurrentPrice.Equal(item.CurrentPrice) && quote.ChangePercent.Equal(item.ChangePercent) {
			continue
		}

		item.CurrentPrice = quote.CurrentPrice
		item.ChangePercent = quote.ChangePercent
		if err := s.store.UpdateWatchlistQuote(item.ID, item.CurrentPrice, item.ChangePercent); err != nil {
			return nil, err
		}
	}

	return items, nil
}

// AddToWatchlist adds a symbol to the watchlist with its current quote
// when one is available.
func (s *Service) AddToWatchlist(ctx context.Context, userID int, symbol, companyName string) (*models.WatchlistItem, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}
	if companyName == "" {
		companyName = symbol
	}

	item := &models.WatchlistItem{
		UserID:      userID,
		Symbol:      symbol,
		CompanyName: companyName,
		AddedDate:   time.Now(),
	}
	if quote, err := s.quotes.Quote(ctx, symbol); err == nil {
		item.CurrentPrice = quote.CurrentPrice
		item.ChangePercent = quote.ChangePercent
	}

	if err := s.store.CreateWatchlistItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveFromWatchlist deletes a watchlist item owned by the user
func (s *Service) RemoveFromWatchlist(ctx context.Context, userID, id int) error {
	return s.store.DeleteWatchlistItem(userID, id)
}

// TransactionPage is one page of the transaction history.
type TransactionPage struct {
	Transactions []*models.Transaction `json:"transactions"`
	Total        int                   `json:"total"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Transactions returns one page of the user's history, newest first,
// optionally filtered by symbol.
func (s *Service) Transactions(ctx context.Context, userID int, symbol string, limit, offset int) (*TransactionPage, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	transactions, err := s.store.GetTransactionsByUser(userID, symbol, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.store.CountTransactionsByUser(userID, symbol)
	if err != nil {
		return nil, err
	}

	return &TransactionPage{
		Transactions: transactions,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	}, nil
}

// ExportCSV renders the user's refreshed holdings as a CSV document.
func (s *Service) ExportCSV(ctx context.Context, userID int) ([]byte, error) {
	holdings, err := s.Holdings(ctx, userID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"Symbol", "Company Name", "Quantity", "Buy Price", "Current Price", "Total Value", "Profit/Loss", "P&L %"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, h := range holdings {
		record := []string{
			h.Symbol,
			h.CompanyName,
			h.Quantity.String(),
			h.BuyPrice.StringFixed(2),
			h.CurrentPrice.StringFixed(2),
			h.TotalValue.StringFixed(2),
			h.ProfitLoss.StringFixed(2),
			h.ProfitLossPercentage.StringFixed(2) + "%",
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
