// Package valuation holds the pure arithmetic that keeps a holding's
// derived fields consistent with its quantity, cost basis and market price.
package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/stockfolio/portfolio-service/internal/models"
)

var hundred = decimal.NewFromInt(100)

// TotalValue returns the mark-to-market value of a position.
func TotalValue(quantity, currentPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(currentPrice)
}

// ProfitLoss returns total value minus invested amount.
func ProfitLoss(totalValue, investedAmount decimal.Decimal) decimal.Decimal {
	return totalValue.Sub(investedAmount)
}

// ProfitLossPercentage returns the P&L as a percentage of the invested
// amount, rounded to 2 places. A zero invested amount yields zero rather
// than a division error.
func ProfitLossPercentage(profitLoss, investedAmount decimal.Decimal) decimal.Decimal {
	if investedAmount.IsZero() {
		return decimal.Zero
	}
	return profitLoss.Div(investedAmount).Mul(hundred).Round(2)
}

// Recalculate refreshes the derived fields on a holding from its
// quantity, invested amount and current price. It is the only place the
// total_value / profit_loss / profit_loss_percentage triple is computed.
func Recalculate(h *models.Holding) {
	h.TotalValue = TotalValue(h.Quantity, h.CurrentPrice)
	h.ProfitLoss = ProfitLoss(h.TotalValue, h.InvestedAmount)
	h.ProfitLossPercentage = ProfitLossPercentage(h.ProfitLoss, h.InvestedAmount)
}

// RoundCurrency rounds a monetary amount to display precision.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
