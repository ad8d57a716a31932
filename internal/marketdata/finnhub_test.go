package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinnhubClient_Quote(t *testing.T) {
	ctx := context.Background()

	t.Run("parses a quote", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/quote", r.URL.Path)
			assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
			assert.Equal(t, "test-key", r.URL.Query().Get("token"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"c": 178.25, "d": 1.75, "dp": 0.99, "pc": 176.5}`))
		}))
		defer srv.Close()

		client := NewFinnhubClient(srv.URL, "test-key", 5*time.Second)
		quote, err := client.Quote(ctx, "AAPL")
		require.NoError(t, err)

		assert.Equal(t, "AAPL", quote.Symbol)
		assert.True(t, quote.CurrentPrice.Equal(decimal.RequireFromString("178.25")))
		assert.True(t, quote.PreviousClose.Equal(decimal.RequireFromString("176.5")))
		assert.True(t, quote.DayChange.Equal(decimal.RequireFromString("1.75")))
		assert.True(t, quote.ChangePercent.Equal(decimal.RequireFromString("0.99")))
	})

	t.Run("zero price means unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"c": 0, "d": null, "dp": null, "pc": 0}`))
		}))
		defer srv.Close()

		client := NewFinnhubClient(srv.URL, "test-key", 5*time.Second)
		_, err := client.Quote(ctx, "NOPE")
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("api error field means unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error": "API limit reached"}`))
		}))
		defer srv.Close()

		client := NewFinnhubClient(srv.URL, "test-key", 5*time.Second)
		_, err := client.Quote(ctx, "AAPL")
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("error status means unavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		client := NewFinnhubClient(srv.URL, "test-key", 5*time.Second)
		_, err := client.Quote(ctx, "AAPL")
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("transport failure means unavailable", func(t *testing.T) {
		client := NewFinnhubClient("http://127.0.0.1:1", "test-key", time.Second)
		_, err := client.Quote(ctx, "AAPL")
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}
