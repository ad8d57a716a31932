package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade type constants
const (
	TradeTypeBuy  = "BUY"
	TradeTypeSell = "SELL"
)

// Transaction is one executed trade. Records are append-only: they are
// never updated or deleted by the normal flow, and replaying them from
// zero must reproduce the holding's quantity and invested amount.
type Transaction struct {
	ID          int             `json:"id"`
	UserID      int             `json:"user_id"`
	Symbol      string          `json:"symbol"`
	Type        string          `json:"transaction_type"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Date        time.Time       `json:"transaction_date"`
}
