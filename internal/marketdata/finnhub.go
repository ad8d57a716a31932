// Package marketdata talks to the external quote providers. Provider
// failures (rate limits, unknown symbols, timeouts) degrade to
// ErrUnavailable so callers can fall back to the last stored price.
package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/stockfolio/portfolio-service/internal/utils"
)

// ErrUnavailable signals that no price could be obtained right now.
var ErrUnavailable = errors.New("market data unavailable")

// Quote is the current market state of one symbol.
type Quote struct {
	Symbol        string          `json:"symbol"`
	CurrentPrice  decimal.Decimal `json:"current_price"`
	PreviousClose decimal.Decimal `json:"previous_close"`
	DayChange     decimal.Decimal `json:"day_change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
}

// FinnhubClient fetches live quotes from the Finnhub API.
type FinnhubClient struct {
	client *resty.Client
	apiKey string
}

// NewFinnhubClient creates a quote client with a bounded request timeout.
func NewFinnhubClient(baseURL, apiKey string, timeout time.Duration) *FinnhubClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)
	return &FinnhubClient{client: client, apiKey: apiKey}
}

// finnhubQuote mirrors the provider's response: c = current, d = day
// change, dp = day change percent, pc = previous close.
type finnhubQuote struct {
	Current       float64 `json:"c"`
	DayChange     float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	PreviousClose float64 `json:"pc"`
	Error         string  `json:"error"`
}

// Quote fetches the current quote for a symbol.
func (c *FinnhubClient) Quote(ctx context.Context, symbol string) (*Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"token":  c.apiKey,
		}).
		Get("/quote")
	if err != nil {
		slog.Warn("finnhub request failed", slog.String("rqID", rqID), slog.String("symbol", symbol), slog.String("err", err.Error()))
		return nil, ErrUnavailable
	}
	if resp.IsError() {
		slog.Warn("finnhub returned error status", slog.String("rqID", rqID), slog.String("symbol", symbol), slog.Int("status", resp.StatusCode()))
		return nil, ErrUnavailable
	}

	var raw finnhubQuote
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		slog.Warn("can't unmarshal finnhub quote", slog.String("rqID", rqID), slog.String("symbol", symbol), slog.String("err", err.Error()))
		return nil, ErrUnavailable
	}
	if raw.Error != "" {
		slog.Warn("finnhub api error", slog.String("rqID", rqID), slog.String("symbol", symbol), slog.String("apiErr", raw.Error))
		return nil, ErrUnavailable
	}

	// The provider reports unknown symbols as a zero current price.
	if raw.Current == 0 {
		return nil, ErrUnavailable
	}

	return &Quote{
		Symbol:        symbol,
		CurrentPrice:  decimal.NewFromFloat(raw.Current),
		PreviousClose: decimal.NewFromFloat(raw.PreviousClose),
		DayChange:     decimal.NewFromFloat(raw.DayChange),
		ChangePercent: decimal.NewFromFloat(raw.ChangePercent),
	}, nil
}
