package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WatchlistItem is a symbol a user monitors without holding it.
// CurrentPrice and ChangePercent are refreshed opportunistically on read.
type WatchlistItem struct {
	ID            int             `json:"id"`
	UserID        int             `json:"user_id"`
	Symbol        string          `json:"symbol"`
	CompanyName   string          `json:"company_name"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	AddedDate     time.Time       `json:"added_date"`
}
