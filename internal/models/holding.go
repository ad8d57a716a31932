package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding represents a user's current position in one stock symbol.
// InvestedAmount is the cumulative cost basis of the shares still held;
// TotalValue and the profit/loss fields are derived from it and from
// CurrentPrice, and must be recomputed after every mutation.
type Holding struct {
	ID                   int             `json:"id"`
	UserID               int             `json:"user_id"`
	Symbol               string          `json:"symbol"`
	CompanyName          string          `json:"company_name"`
	Quantity             decimal.Decimal `json:"quantity"`
	BuyPrice             decimal.Decimal `json:"buy_price"`
	CurrentPrice         decimal.Decimal `json:"current_price"`
	InvestedAmount       decimal.Decimal `json:"invested_amount"`
	TotalValue           decimal.Decimal `json:"total_value"`
	ProfitLoss           decimal.Decimal `json:"profit_loss"`
	ProfitLossPercentage decimal.Decimal `json:"profit_loss_percentage"`
	PurchaseDate         time.Time       `json:"purchase_date"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// PortfolioSummary aggregates all holdings of one user.
type PortfolioSummary struct {
	TotalInvestment           decimal.Decimal `json:"total_investment"`
	CurrentValue              decimal.Decimal `json:"current_value"`
	TotalProfitLoss           decimal.Decimal `json:"total_profit_loss"`
	TotalProfitLossPercentage decimal.Decimal `json:"total_profit_loss_percentage"`
	HoldingsCount             int             `json:"holdings_count"`
}
