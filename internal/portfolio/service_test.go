package portfolio

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockfolio/portfolio-service/internal/marketdata"
	"github.com/stockfolio/portfolio-service/internal/models"
)

type stubQuoter struct {
	quotes map[string]*marketdata.Quote
}

func (s *stubQuoter) Quote(ctx context.Context, symbol string) (*marketdata.Quote, error) {
	q, ok := s.quotes[symbol]
	if !ok {
		return nil, marketdata.ErrUnavailable
	}
	return q, nil
}

type fakeStore struct {
	holdings     []*models.Holding
	watchlist    []*models.WatchlistItem
	transactions []*models.Transaction
	nextID       int

	snapshotCalls       int
	watchlistQuoteCalls int
	lastLimit           int
	lastOffset          int
	lastSymbol          string
}

func newFakeStore() *fakeStore {
	return &fakeStore{nextID: 1}
}

func (s *fakeStore) CreateHolding(h *models.Holding) error {
	h.ID = s.nextID
	s.nextID++
	s.holdings = append(s.holdings, h)
	return nil
}

func (s *fakeStore) GetHoldingsByUser(userID int) ([]*models.Holding, error) {
	var out []*models.Holding
	for _, h := range s.holdings {
		if h.UserID == userID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *fakeStore) GetHolding(userID int, symbol string) (*models.Holding, error) {
	for _, h := range s.holdings {
		if h.UserID == userID && h.Symbol == symbol {
			return h, nil
		}
	}
	return nil, errNotFound
}

func (s *fakeStore) GetHoldingByID(userID, id int) (*models.Holding, error) {
	for _, h := range s.holdings {
		if h.UserID == userID && h.ID == id {
			return h, nil
		}
	}
	return nil, errNotFound
}

func (s *fakeStore) UpdateHoldingSnapshot(h *models.Holding) error {
	s.snapshotCalls++
	return nil
}

func (s *fakeStore) DeleteHolding(userID, id int) error {
	for i, h := range s.holdings {
		if h.UserID == userID && h.ID == id {
			s.holdings = append(s.holdings[:i], s.holdings[i+1:]...)
			return nil
		}
	}
	return errNotFound
}

func (s *fakeStore) CreateWatchlistItem(item *models.WatchlistItem) error {
	item.ID = s.nextID
	s.nextID++
	s.watchlist = append(s.watchlist, item)
	return nil
}

func (s *fakeStore) GetWatchlistByUser(userID int) ([]*models.WatchlistItem, error) {
	var out []*models.WatchlistItem
	for _, item := range s.watchlist {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateWatchlistQuote(id int, price, changePercent decimal.Decimal) error {
	s.watchlistQuoteCalls++
	return nil
}

func (s *fakeStore) DeleteWatchlistItem(userID, id int) error {
	for i, item := range s.watchlist {
		if item.UserID == userID && item.ID == id {
			s.watchlist = append(s.watchlist[:i], s.watchlist[i+1:]...)
			return nil
		}
	}
	return errNotFound
}

func (s *fakeStore) GetTransactionsByUser(userID int, symbol string, limit, offset int) ([]*models.Transaction, error) {
	s.lastSymbol = symbol
	s.lastLimit = limit
	s.lastOffset = offset
	return s.transactions, nil
}

func (s *fakeStore) GetTransactionsBySymbolAscending(userID int, symbol string) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for _, tr := range s.transactions {
		if tr.UserID == userID && tr.Symbol == symbol {
			out = append(out, tr)
		}
	}
	return out, nil
}

func (s *fakeStore) CountTransactionsByUser(userID int, symbol string) (int, error) {
	return len(s.transactions), nil
}

var errNotFound = errors.New("not found")

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedHolding(store *fakeStore, userID int, symbol string, quantity, buyPrice, currentPrice decimal.Decimal) *models.Holding {
	h := &models.Holding{
		ID:             store.nextID,
		UserID:         userID,
		Symbol:         symbol,
		CompanyName:    symbol,
		Quantity:       quantity,
		BuyPrice:       buyPrice,
		CurrentPrice:   currentPrice,
		InvestedAmount: quantity.Mul(buyPrice),
		TotalValue:     quantity.Mul(currentPrice),
	}
	store.nextID++
	store.holdings = append(store.holdings, h)
	return h
}

func TestHoldings(t *testing.T) {
	ctx := context.Background()

	t.Run("refreshes prices from the quote provider", func(t *testing.T) {
		store := newFakeStore()
		seedHolding(store, 1, "AAPL", dec("5"), dec("100"), dec("100"))
		quoter := &stubQuoter{quotes: map[string]*marketdata.Quote{
			"AAPL": {Symbol: "AAPL", CurrentPrice: dec("120")},
		}}
		svc := New(store, quoter)

		holdings, err := svc.Holdings(ctx, 1)
		require.NoError(t, err)
		require.Len(t, holdings, 1)

		h := holdings[0]
		assert.True(t, h.CurrentPrice.Equal(dec("120")))
		assert.True(t, h.TotalValue.Equal(dec("600")))
		assert.True(t, h.ProfitLoss.Equal(dec("100")))
		assert.True(t, h.ProfitLossPercentage.Equal(dec("20.00")))
		assert.Equal(t, 1, store.snapshotCalls)
	})

	t.Run("keeps the stored price when the provider is down", func(t *testing.T) {
		store := newFakeStore()
		seedHolding(store, 1, "AAPL", dec("5"), dec("100"), dec("110"))
		svc := New(store, &stubQuoter{quotes: map[string]*marketdata.Quote{}})

		holdings, err := svc.Holdings(ctx, 1)
		require.NoError(t, err)
		require.Len(t, holdings, 1)
		assert.True(t, holdings[0].CurrentPrice.Equal(dec("110")))
		assert.Zero(t, store.snapshotCalls)
	})

	t.Run("skips the snapshot write for an unchanged price", func(t *testing.T) {
		store := newFakeStore()
		seedHolding(store, 1, "AAPL", dec("5"), dec("100"), dec("120"))
		quoter := &stubQuoter{quotes: map[string]*marketdata.Quote{
			"AAPL": {Symbol: "AAPL", CurrentPrice: dec("120")},
		}}
		svc := New(store, quoter)

		_, err := svc.Holdings(ctx, 1)
		require.NoError(t, err)
		assert.Zero(t, store.snapshotCalls)
	})
}

func TestSummary(t *testing.T) {
	ctx := context.Background()

	store := newFakeStore()
	seedHolding(store, 1, "AAPL", dec("5"), dec("100"), dec("120"))
	seedHolding(store, 1, "MSFT", dec("2"), dec("200"), dec("180"))
	svc := New(store, &stubQuoter{quotes: map[string]*marketdata.Quote{}})

	summary, err := svc.Summary(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.HoldingsCount)
	assert.True(t, summary.TotalInvestment.Equal(dec("900")), "500 + 400")
	assert.True(t, summary.CurrentValue.Equal(dec("960")), "600 + 360")
	assert.True(t, summary.TotalProfitLoss.Equal(dec("60")))
	assert.True(t, summary.TotalProfitLossPercentage.Equal(dec("6.67")))
}

func TestAddHolding(t *testing.T) {
	ctx := context.Background()

	t.Run("creates with live quote as current price", func(t *testing.T) {
		store := newFakeStore()
		quoter := &stubQuoter{quotes: map[string]*marketdata.Quote{
			"AAPL": {Symbol: "AAPL", CurrentPrice: dec("150")},
		}}
		svc := New(store, quoter)

		h, err := svc.AddHolding(ctx, 1, " aapl ", "Apple Inc.", dec("5"), dec("100"), time.Now())
		require.NoError(t, err)

		assert.Equal(t, "AAPL", h.Symbol)
		assert.True(t, h.CurrentPrice.Equal(dec("150")))
		assert.True(t, h.InvestedAmount.Equal(dec("500")))
		assert.True(t, h.TotalValue.Equal(dec("750")))
		assert.NotZero(t, h.ID)
	})

	t.Run("falls back to buy price without a quote", func(t *testing.T) {
		store := newFakeStore()
		svc := New(store, &stubQuoter{quotes: map[string]*marketdata.Quote{}})

		h, err := svc.AddHolding(ctx, 1, "AAPL", "", dec("5"), dec("100"), time.Now())
		require.NoError(t, err)
		assert.True(t, h.CurrentPrice.Equal(dec("100")))
		assert.Equal(t, "AAPL", h.CompanyName)
	})

	t.Run("validation", func(t *testing.T) {
		svc := New(newFakeStore(), &stubQuoter{})

		_, err := svc.AddHolding(ctx, 1, "", "", dec("5"), dec("100"), time.Now())
		assert.ErrorIs(t, err, ErrInvalidSymbol)

		_, err = svc.AddHolding(ctx, 1, "AAPL", "", dec("0"), dec("100"), time.Now())
		assert.ErrorIs(t, err, ErrInvalidQuantity)

		_, err = svc.AddHolding(ctx, 1, "AAPL", "", dec("5"), dec("-1"), time.Now())
		assert.ErrorIs(t, err, ErrInvalidPrice)
	})
}

func TestUpdateHolding(t *testing.T) {
	ctx := context.Background()

	store := newFakeStore()
	h := seedHolding(store, 1, "AAPL", dec("5"), dec("100"), dec("120"))
	svc := New(store, &stubQuoter{})

	got, err := svc.UpdateHolding(ctx, 1, h.ID, dec("10"), decimal.Zero)
	require.NoError(t, err)

	assert.True(t, got.Quantity.Equal(dec("10")))
	assert.True(t, got.BuyPrice.Equal(dec("100")), "zero buy price leaves it unchanged")
	assert.True(t, got.InvestedAmount.Equal(dec("1000")))
	assert.True(t, got.TotalValue.Equal(dec("1200")))

	_, err = svc.UpdateHolding(ctx, 1, h.ID, dec("-1"), decimal.Zero)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestWatchlist(t *testing.T) {
	ctx := context.Background()

	t.Run("refreshes quotes where available", func(t *testing.T) {
		store := newFakeStore()
		store.watchlist = append(store.watchlist, &models.WatchlistItem{ID: 1, UserID: 1, Symbol: "AAPL"})
		quoter := &stubQuoter{quotes: map[string]*marketdata.Quote{
			"AAPL": {Symbol: "AAPL", CurrentPrice: dec("178"), ChangePercent: dec("1.2")},
		}}
		svc := New(store, quoter)

		items, err := svc.Watchlist(ctx, 1)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.True(t, items[0].CurrentPrice.Equal(dec("178")))
		assert.True(t, items[0].ChangePercent.Equal(dec("1.2")))
		assert.Equal(t, 1, store.watchlistQuoteCalls)
	})

	t.Run("add uppercases and quotes the symbol", func(t *testing.T) {
		store := newFakeStore()
		quoter := &stubQuoter{quotes: map[string]*marketdata.Quote{
			"TSLA": {Symbol: "TSLA", CurrentPrice: dec("250")},
		}}
		svc := New(store, quoter)

		item, err := svc.AddToWatchlist(ctx, 1, "tsla", "")
		require.NoError(t, err)
		assert.Equal(t, "TSLA", item.Symbol)
		assert.Equal(t, "TSLA", item.CompanyName)
		assert.True(t, item.CurrentPrice.Equal(dec("250")))

		_, err = svc.AddToWatchlist(ctx, 1, "  ", "")
		assert.ErrorIs(t, err, ErrInvalidSymbol)
	})
}

func TestTransactions(t *testing.T) {
	ctx := context.Background()

	store := newFakeStore()
	store.transactions = []*models.Transaction{{ID: 1}, {ID: 2}}
	svc := New(store, &stubQuoter{})

	t.Run("defaults and clamps the page size", func(t *testing.T) {
		page, err := svc.Transactions(ctx, 1, "aapl", 0, -5)
		require.NoError(t, err)

		assert.Equal(t, defaultPageSize, page.Limit)
		assert.Equal(t, 0, page.Offset)
		assert.Equal(t, 2, page.Total)
		assert.Equal(t, "AAPL", store.lastSymbol)

		page, err = svc.Transactions(ctx, 1, "", 1000, 10)
		require.NoError(t, err)
		assert.Equal(t, maxPageSize, page.Limit)
		assert.Equal(t, 10, page.Offset)
	})
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()

	buildLog := func() []*models.Transaction {
		return []*models.Transaction{
			{UserID: 1, Symbol: "AAPL", Type: models.TradeTypeBuy, Quantity: dec("5"), Price: dec("100"), TotalAmount: dec("500")},
			{UserID: 1, Symbol: "AAPL", Type: models.TradeTypeBuy, Quantity: dec("1"), Price: dec("100"), TotalAmount: dec("100")},
			{UserID: 1, Symbol: "AAPL", Type: models.TradeTypeSell, Quantity: dec("2"), Price: dec("120"), TotalAmount: dec("240")},
		}
	}

	t.Run("a clean log reproduces the holding", func(t *testing.T) {
		store := newFakeStore()
		seedHolding(store, 1, "AAPL", dec("4"), dec("100"), dec("120"))
		store.transactions = buildLog()
		svc := New(store, &stubQuoter{})

		report, err := svc.Reconcile(ctx, 1, " aapl ")
		require.NoError(t, err)

		assert.True(t, report.Consistent)
		assert.Equal(t, 3, report.Transactions)
		assert.True(t, report.ReplayedQuantity.Equal(dec("4")))
		assert.True(t, report.ReplayedInvested.Equal(dec("400")), "600 - 600/6*2")
	})

	t.Run("a drifted holding is flagged", func(t *testing.T) {
		store := newFakeStore()
		seedHolding(store, 1, "AAPL", dec("5"), dec("100"), dec("120"))
		store.transactions = buildLog()
		svc := New(store, &stubQuoter{})

		report, err := svc.Reconcile(ctx, 1, "AAPL")
		require.NoError(t, err)

		assert.False(t, report.Consistent)
		assert.True(t, report.StoredQuantity.Equal(dec("5")))
		assert.True(t, report.ReplayedQuantity.Equal(dec("4")))
	})

	t.Run("missing holding propagates", func(t *testing.T) {
		svc := New(newFakeStore(), &stubQuoter{})

		_, err := svc.Reconcile(ctx, 1, "AAPL")
		assert.ErrorIs(t, err, errNotFound)
	})

	t.Run("blank symbol is rejected", func(t *testing.T) {
		svc := New(newFakeStore(), &stubQuoter{})

		_, err := svc.Reconcile(ctx, 1, "  ")
		assert.ErrorIs(t, err, ErrInvalidSymbol)
	})
}

func TestExportCSV(t *testing.T) {
	ctx := context.Background()

	store := newFakeStore()
	h := seedHolding(store, 1, "AAPL", dec("5"), dec("100"), dec("120"))
	h.CompanyName = "Apple Inc."
	h.ProfitLoss = dec("100")
	h.ProfitLossPercentage = dec("20.00")
	svc := New(store, &stubQuoter{quotes: map[string]*marketdata.Quote{}})

	data, err := svc.ExportCSV(ctx, 1)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Symbol,Company Name,Quantity,Buy Price,Current Price,Total Value,Profit/Loss,P&L %", lines[0])
	assert.Equal(t, "AAPL,Apple Inc.,5,100.00,120.00,600.00,100.00,20.00%", lines[1])
}
