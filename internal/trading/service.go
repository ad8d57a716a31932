// Package trading is the trade settlement core: it validates a trade
// request, then mutates wallet, holdings and the transaction log together
// inside one storage transaction.
package trading

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockfolio/portfolio-service/internal/models"
	"github.com/stockfolio/portfolio-service/internal/utils"
	"github.com/stockfolio/portfolio-service/internal/valuation"
)

// TradeRequest is one BUY or SELL order for an authenticated user.
type TradeRequest struct {
	Symbol   string          `json:"symbol"`
	Quantity decimal.Decimal `json:"quantity"`
	Type     string          `json:"type"`
}

// TradeResult is the committed outcome: the holding snapshot after the
// trade and the transaction record appended for it.
type TradeResult struct {
	Holding     *models.Holding     `json:"holding"`
	Transaction *models.Transaction `json:"transaction"`
}

// Service orchestrates trade settlement and wallet movements.
type Service struct {
	store     Store
	oracle    PriceOracle
	publisher EventPublisher
}

// New creates a trading service. publisher may be nil when event
// publishing is disabled.
func New(store Store, oracle PriceOracle, publisher EventPublisher) *Service {
	return &Service{
		store:     store,
		oracle:    oracle,
		publisher: publisher,
	}
}

// ExecuteTrade settles one trade. Steps run in a fixed order: validate,
// pull price, check funds (BUY), mutate the ledger, move the wallet,
// append the transaction. Any failure rolls the whole unit back.
func (s *Service) ExecuteTrade(ctx context.Context, userID int, req TradeRequest) (*TradeResult, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Symbol == "" {
		return nil, ErrInvalidSymbol
	}
	if !req.Quantity.IsPositive() {
		return nil, ErrInvalidQuantity
	}
	if req.Type != models.TradeTypeBuy && req.Type != models.TradeTypeSell {
		return nil, ErrInvalidTradeType
	}

	var result TradeResult
	err := s.store.InTradeTx(ctx, func(tx Tx) error {
		holding, err := tx.HoldingForUpdate(userID, req.Symbol)
		if err != nil {
			return err
		}

		switch req.Type {
		case models.TradeTypeBuy:
			holding, result.Transaction, err = s.settleBuy(ctx, tx, userID, req, holding)
		case models.TradeTypeSell:
			holding, result.Transaction, err = s.settleSell(tx, userID, req, holding)
		}
		if err != nil {
			return err
		}

		result.Holding = holding
		return nil
	})
	if err != nil {
		slog.Debug("trade rejected",
			slog.String("rqID", rqID),
			slog.String("symbol", req.Symbol),
			slog.String("type", req.Type),
			slog.String("err", err.Error()),
		)
		return nil, err
	}

	slog.Info("trade executed",
		slog.String("rqID", rqID),
		slog.Int("userID", userID),
		slog.String("symbol", req.Symbol),
		slog.String("type", req.Type),
		slog.String("quantity", req.Quantity.String()),
		slog.String("price", result.Transaction.Price.String()),
	)

	if s.publisher != nil {
		if err := s.publisher.PublishTradeExecuted(ctx, userID, result.Transaction); err != nil {
			slog.Error("failed to publish trade event", slog.String("rqID", rqID), slog.String("err", err.Error()))
		}
	}

	return &result, nil
}

// settleBuy debits the wallet first, then applies the buy to the ledger.
// An existing holding trades at its stored current price; a first buy of
// a new symbol needs a live quote.
func (s *Service) settleBuy(ctx context.Context, tx Tx, userID int, req TradeRequest, holding *models.Holding) (*models.Holding, *models.Transaction, error) {
	var price decimal.Decimal
	if holding != nil {
		price = holding.CurrentPrice
	} else {
		quoted, err := s.oracle.CurrentPrice(ctx, req.Symbol)
		if err != nil || !quoted.IsPositive() {
			return nil, nil, ErrPriceUnavailable
		}
		price = quoted
	}

	totalAmount := req.Quantity.Mul(price)

	balance, err := tx.WalletBalanceForUpdate(userID)
	if err != nil {
		return nil, nil, err
	}
	if balance.LessThan(totalAmount) {
		return nil, nil, ErrInsufficientFunds
	}
	if err := tx.SetWalletBalance(userID, balance.Sub(totalAmount)); err != nil {
		return nil, nil, err
	}

	if holding == nil {
		holding = &models.Holding{
			UserID:         userID,
			Symbol:         req.Symbol,
			CompanyName:    req.Symbol,
			Quantity:       req.Quantity,
			BuyPrice:       price,
			CurrentPrice:   price,
			InvestedAmount: totalAmount,
			PurchaseDate:   time.Now(),
		}
		valuation.Recalculate(holding)
		if err := tx.CreateHolding(holding); err != nil {
			return nil, nil, err
		}
	} else {
		applyBuy(holding, req.Quantity, price)
		if err := tx.UpdateHolding(holding); err != nil {
			return nil, nil, err
		}
	}

	transaction := &models.Transaction{
		UserID:      userID,
		Symbol:      req.Symbol,
		Type:        models.TradeTypeBuy,
		Quantity:    req.Quantity,
		Price:       price,
		TotalAmount: totalAmount,
		Date:        time.Now(),
	}
	if err := tx.CreateTransaction(transaction); err != nil {
		return nil, nil, err
	}

	return holding, transaction, nil
}

// settleSell reduces the position first, then credits the wallet with the
// proceeds at the stored current price.
func (s *Service) settleSell(tx Tx, userID int, req TradeRequest, holding *models.Holding) (*models.Holding, *models.Transaction, error) {
	if holding == nil {
		return nil, nil, ErrHoldingNotFound
	}
	if req.Quantity.GreaterThan(holding.Quantity) {
		return nil, nil, ErrInsufficientShares
	}

	price := holding.CurrentPrice
	totalAmount := req.Quantity.Mul(price)

	applySell(holding, req.Quantity)
	if err := tx.UpdateHolding(holding); err != nil {
		return nil, nil, err
	}

	balance, err := tx.WalletBalanceForUpdate(userID)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.SetWalletBalance(userID, balance.Add(totalAmount)); err != nil {
		return nil, nil, err
	}

	transaction := &models.Transaction{
		UserID:      userID,
		Symbol:      req.Symbol,
		Type:        models.TradeTypeSell,
		Quantity:    req.Quantity,
		Price:       price,
		TotalAmount: totalAmount,
		Date:        time.Now(),
	}
	if err := tx.CreateTransaction(transaction); err != nil {
		return nil, nil, err
	}

	return holding, transaction, nil
}

// applyBuy adds shares bought at price to an existing position. The
// weighted-average cost basis is preserved through the cumulative
// invested amount; buy_price keeps the first purchase price.
func applyBuy(h *models.Holding, quantity, price decimal.Decimal) {
	h.Quantity = h.Quantity.Add(quantity)
	h.InvestedAmount = h.InvestedAmount.Add(quantity.Mul(price))
	valuation.Recalculate(h)
}

// applySell removes shares from a position, reducing the invested amount
// proportionally (average cost, no lot tracking).
func applySell(h *models.Holding, quantity decimal.Decimal) {
	investedToRemove := h.InvestedAmount.Div(h.Quantity).Mul(quantity)
	h.Quantity = h.Quantity.Sub(quantity)
	h.InvestedAmount = h.InvestedAmount.Sub(investedToRemove)
	valuation.Recalculate(h)
}

// Deposit credits the wallet, creating it on first use.
func (s *Service) Deposit(ctx context.Context, userID int, amount decimal.Decimal) (decimal.Decimal, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}

	var newBalance decimal.Decimal
	err := s.store.InTradeTx(ctx, func(tx Tx) error {
		balance, err := tx.WalletBalanceForUpdate(userID)
		if err != nil {
			return err
		}
		newBalance = balance.Add(amount)
		return tx.SetWalletBalance(userID, newBalance)
	})
	if err != nil {
		return decimal.Zero, err
	}

	slog.Info("wallet deposit",
		slog.String("rqID", rqID),
		slog.Int("userID", userID),
		slog.String("amount", amount.String()),
	)

	if s.publisher != nil {
		if err := s.publisher.PublishFundsDeposited(ctx, userID, amount, newBalance); err != nil {
			slog.Error("failed to publish deposit event", slog.String("rqID", rqID), slog.String("err", err.Error()))
		}
	}

	return newBalance, nil
}

// Balance returns the user's current wallet balance.
func (s *Service) Balance(userID int) (decimal.Decimal, error) {
	return s.store.WalletBalance(userID)
}
