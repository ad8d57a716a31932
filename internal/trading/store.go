package trading

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/stockfolio/portfolio-service/internal/models"
)

// Tx is the set of storage operations available inside one trade
// transaction. The *ForUpdate reads take row locks, so concurrent trades
// on the same (user, symbol) serialize on the storage layer and the
// quantity >= 0 invariant holds under concurrency.
type Tx interface {
	// HoldingForUpdate returns the locked holding row, or (nil, nil)
	// when the user holds nothing in that symbol.
	HoldingForUpdate(userID int, symbol string) (*models.Holding, error)
	CreateHolding(h *models.Holding) error
	UpdateHolding(h *models.Holding) error

	// WalletBalanceForUpdate returns the locked balance; a user without
	// a wallet row has balance zero.
	WalletBalanceForUpdate(userID int) (decimal.Decimal, error)
	SetWalletBalance(userID int, balance decimal.Decimal) error

	CreateTransaction(t *models.Transaction) error
}

// Store runs trade transactions. An error returned from fn rolls the
// whole unit back: no partial wallet/holding/transaction write survives.
type Store interface {
	InTradeTx(ctx context.Context, fn func(tx Tx) error) error
	WalletBalance(userID int) (decimal.Decimal, error)
}

// PriceOracle supplies the current market price for a symbol. It is only
// consulted for the first buy of a symbol with no stored price; existing
// holdings trade at their last stored current price.
type PriceOracle interface {
	CurrentPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// EventPublisher emits domain events after a trade or deposit commits.
type EventPublisher interface {
	PublishTradeExecuted(ctx context.Context, userID int, t *models.Transaction) error
	PublishFundsDeposited(ctx context.Context, userID int, amount, balance decimal.Decimal) error
}
