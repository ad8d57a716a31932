package portfolio

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stockfolio/portfolio-service/internal/models"
)

// ReconciliationReport compares a stored holding against a replay of its
// transaction log from zero.
type ReconciliationReport struct {
	Symbol           string          `json:"symbol"`
	Transactions     int             `json:"transactions"`
	StoredQuantity   decimal.Decimal `json:"stored_quantity"`
	StoredInvested   decimal.Decimal `json:"stored_invested"`
	ReplayedQuantity decimal.Decimal `json:"replayed_quantity"`
	ReplayedInvested decimal.Decimal `json:"replayed_invested"`
	Consistent       bool            `json:"consistent"`
}

// Reconcile replays every transaction the user made in one symbol, in
// execution order, and checks that the replayed quantity and cost basis
// match the stored holding. The replay uses the same average-cost math
// as settlement, so a clean log reproduces the holding exactly.
func (s *Service) Reconcile(ctx context.Context, userID int, symbol string) (*ReconciliationReport, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}

	h, err := s.store.GetHolding(userID, symbol)
	if err != nil {
		return nil, err
	}
	log, err := s.store.GetTransactionsBySymbolAscending(userID, symbol)
	if err != nil {
		return nil, err
	}

	quantity := decimal.Zero
	invested := decimal.Zero
	for _, tr := range log {
		switch tr.Type {
		case models.TradeTypeBuy:
			quantity = quantity.Add(tr.Quantity)
			invested = invested.Add(tr.TotalAmount)
		case models.TradeTypeSell:
			if quantity.IsPositive() {
				invested = invested.Sub(invested.Div(quantity).Mul(tr.Quantity))
			}
			quantity = quantity.Sub(tr.Quantity)
		}
	}

	return &ReconciliationReport{
		Symbol:           symbol,
		Transactions:     len(log),
		StoredQuantity:   h.Quantity,
		StoredInvested:   h.InvestedAmount,
		ReplayedQuantity: quantity,
		ReplayedInvested: invested,
		Consistent:       quantity.Equal(h.Quantity) && invested.Equal(h.InvestedAmount),
	}, nil
}
