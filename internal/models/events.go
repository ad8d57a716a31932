package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTradeExecuted  = "TRADE_EXECUTED"
	EventFundsDeposited = "FUNDS_DEPOSITED"
	EventPriceTick      = "PRICE_TICK"
)

// TradeEvent is published after a trade commits.
type TradeEvent struct {
	EventType   string       `json:"event_type"`
	UserID      int          `json:"user_id"`
	Transaction *Transaction `json:"transaction,omitempty"`
	Symbol      string       `json:"symbol"`
	Timestamp   time.Time    `json:"timestamp"`
}

// DepositEvent is published after a wallet deposit commits.
type DepositEvent struct {
	EventType string          `json:"event_type"`
	UserID    int             `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"`
	Timestamp time.Time       `json:"timestamp"`
}

// PriceTickEvent carries a market price update for one symbol. Ticks are
// consumed to refresh the current_price stored on holdings and watchlists.
type PriceTickEvent struct {
	EventType     string    `json:"event_type"`
	Symbol        string    `json:"symbol"`
	Price         string    `json:"price"`
	ChangePercent string    `json:"change_percent,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// ParsedPrice returns the tick price as a decimal.
func (e *PriceTickEvent) ParsedPrice() (decimal.Decimal, error) {
	return decimal.NewFromString(e.Price)
}
