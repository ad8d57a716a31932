package marketdata

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/stockfolio/portfolio-service/internal/utils"
)

// Candle is one point of a historical price series.
type Candle struct {
	Datetime string          `json:"datetime"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
}

// TwelveDataClient fetches historical price series, used for charting.
type TwelveDataClient struct {
	client *resty.Client
	apiKey string
}

// NewTwelveDataClient creates a history client with a bounded timeout.
func NewTwelveDataClient(baseURL, apiKey string, timeout time.Duration) *TwelveDataClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)
	return &TwelveDataClient{client: client, apiKey: apiKey}
}

type twelveDataSeries struct {
	Values []struct {
		Datetime string `json:"datetime"`
		Open     string `json:"open"`
		High     string `json:"high"`
		Low      string `json:"low"`
		Close    string `json:"close"`
	} `json:"values"`
	Status string `json:"status"`
}

// History fetches the price series for a symbol over a named range
// ("1day", "1week" or "1month"), ordered ascending by time.
func (c *TwelveDataClient) History(ctx context.Context, symbol, rng string) ([]Candle, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	interval, outputSize := rangeParams(rng)

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":     symbol,
			"interval":   interval,
			"outputsize": strconv.Itoa(outputSize),
			"apikey":     c.apiKey,
		}).
		Get("/time_series")
	if err != nil {
		slog.Warn("twelvedata request failed", slog.String("rqID", rqID), slog.String("symbol", symbol), slog.String("err", err.Error()))
		return nil, ErrUnavailable
	}
	if resp.IsError() {
		slog.Warn("twelvedata returned error status", slog.String("rqID", rqID), slog.String("symbol", symbol), slog.Int("status", resp.StatusCode()))
		return nil, ErrUnavailable
	}

	var raw twelveDataSeries
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		slog.Warn("can't unmarshal twelvedata series", slog.String("rqID", rqID), slog.String("symbol", symbol), slog.String("err", err.Error()))
		return nil, ErrUnavailable
	}
	if len(raw.Values) == 0 {
		return nil, ErrUnavailable
	}

	// The provider returns newest first; reverse into ascending order.
	candles := make([]Candle, 0, len(raw.Values))
	for i := len(raw.Values) - 1; i >= 0; i-- {
		v := raw.Values[i]
		candle := Candle{Datetime: v.Datetime}
		var err error
		if candle.Open, err = decimal.NewFromString(v.Open); err != nil {
			return nil, ErrUnavailable
		}
		if candle.High, err = decimal.NewFromString(v.High); err != nil {
			return nil, ErrUnavailable
		}
		if candle.Low, err = decimal.NewFromString(v.Low); err != nil {
			return nil, ErrUnavailable
		}
		if candle.Close, err = decimal.NewFromString(v.Close); err != nil {
			return nil, ErrUnavailable
		}
		candles = append(candles, candle)
	}

	return candles, nil
}

func rangeParams(rng string) (interval string, outputSize int) {
	switch rng {
	case "1day":
		return "5min", 100
	case "1week":
		return "30min", 200
	default:
		return "1day", 200
	}
}
