package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds one cash balance per user. The balance is created
// implicitly on the first deposit and must never go negative.
type Wallet struct {
	UserID    int             `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	UpdatedAt time.Time       `json:"updated_at"`
}
