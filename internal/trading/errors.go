package trading

import "errors"

// Business-rule rejections. All of them happen before any write and map to
// 400/404 responses; anything else coming out of the service is a system
// failure the client may retry.
var (
	ErrInvalidQuantity    = errors.New("quantity must be a positive number")
	ErrInvalidAmount      = errors.New("amount must be a positive number")
	ErrInvalidSymbol      = errors.New("symbol is required")
	ErrInvalidTradeType   = errors.New("trade type must be BUY or SELL")
	ErrHoldingNotFound    = errors.New("holding not found")
	ErrInsufficientFunds  = errors.New("insufficient wallet balance")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrPriceUnavailable   = errors.New("price unavailable")
)
