package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/stockfolio/portfolio-service/internal/auth"
	"github.com/stockfolio/portfolio-service/internal/database"
	"github.com/stockfolio/portfolio-service/internal/marketdata"
	"github.com/stockfolio/portfolio-service/internal/models"
	"github.com/stockfolio/portfolio-service/internal/portfolio"
	"github.com/stockfolio/portfolio-service/internal/trading"
	"github.com/stockfolio/portfolio-service/internal/utils"
)

// PortfolioService is the portfolio read/maintenance surface.
type PortfolioService interface {
	Holdings(ctx context.Context, userID int) ([]*models.Holding, error)
	Summary(ctx context.Context, userID int) (*models.PortfolioSummary, error)
	AddHolding(ctx context.Context, userID int, symbol, companyName string, quantity, buyPrice decimal.Decimal, purchaseDate time.Time) (*models.Holding, error)
	UpdateHolding(ctx context.Context, userID, id int, quantity, buyPrice decimal.Decimal) (*models.Holding, error)
	RemoveHolding(ctx context.Context, userID, id int) error
	Watchlist(ctx context.Context, userID int) ([]*models.WatchlistItem, error)
	AddToWatchlist(ctx context.Context, userID int, symbol, companyName string) (*models.WatchlistItem, error)
	RemoveFromWatchlist(ctx context.Context, userID, id int) error
	Transactions(ctx context.Context, userID int, symbol string, limit, offset int) (*portfolio.TransactionPage, error)
	Reconcile(ctx context.Context, userID int, symbol string) (*portfolio.ReconciliationReport, error)
	ExportCSV(ctx context.Context, userID int) ([]byte, error)
}

// TradingService settles trades and moves the wallet.
type TradingService interface {
	ExecuteTrade(ctx context.Context, userID int, req trading.TradeRequest) (*trading.TradeResult, error)
	Deposit(ctx context.Context, userID int, amount decimal.Decimal) (decimal.Decimal, error)
	Balance(userID int) (decimal.Decimal, error)
}

// UserStore is the account persistence surface.
type UserStore interface {
	CreateUser(u *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id int) (*models.User, error)
	UpdateUserProfile(u *models.User) error
	UpdateUserPassword(userID int, passwordHash string) error
	GetUserSettings(userID int) (models.UserSettings, error)
	UpdateUserSettings(userID int, settings models.UserSettings) error
}

// HistoryProvider serves historical price series for charting.
type HistoryProvider interface {
	History(ctx context.Context, symbol, rng string) ([]marketdata.Candle, error)
}

// TokenIssuer signs tokens for authenticated sessions.
type TokenIssuer interface {
	Issue(userID int) (string, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	portfolio PortfolioService
	trading   TradingService
	users     UserStore
	history   HistoryProvider
	tokens    TokenIssuer
}

// NewHandler creates a new Handler
func NewHandler(portfolioSvc PortfolioService, tradingSvc TradingService, users UserStore, history HistoryProvider, tokens TokenIssuer) *Handler {
	return &Handler{
		portfolio: portfolioSvc,
		trading:   tradingSvc,
		users:     users,
		history:   history,
		tokens:    tokens,
	}
}

const minPasswordLength = 6

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Signup handles POST /api/auth/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if len(req.Password) < minPasswordLength {
		respondError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}
	if err := h.users.CreateUser(user); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{"token": token, "user": user})
}

// Login handles POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.GetUserByEmail(req.Email)
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"token": token, "user": user})
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so this
// only acknowledges; the client drops the token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// GetProfile handles GET /api/user/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUserByID(UserIDFromCtx(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PUT /api/user/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromCtx(r.Context())

	var req struct {
		FirstName   string `json:"first_name"`
		LastName    string `json:"last_name"`
		Phone       string `json:"phone"`
		DateOfBirth string `json:"date_of_birth"`
		Address     string `json:"address"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.GetUserByID(userID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Phone = req.Phone
	user.DateOfBirth = req.DateOfBirth
	user.Address = req.Address

	if err := h.users.UpdateUserProfile(user); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// ChangePassword handles PUT /api/user/password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromCtx(r.Context())

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		respondError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	user, err := h.users.GetUserByID(userID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		respondError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if err := h.users.UpdateUserPassword(userID, hash); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// GetSettings handles GET /api/user/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.users.GetUserSettings(UserIDFromCtx(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/user/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromCtx(r.Context())

	var settings models.UserSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.users.UpdateUserSettings(userID, settings); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// GetHoldings handles GET /api/portfolio/holdings
func (h *Handler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.portfolio.Holdings(r.Context(), UserIDFromCtx(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, holdings)
}

// GetSummary handles GET /api/portfolio/summary
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.portfolio.Summary(r.Context(), UserIDFromCtx(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// AddHolding handles POST /api/portfolio/holdings
func (h *Handler) AddHolding(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol       string          `json:"symbol"`
		CompanyName  string          `json:"company_name"`
		Quantity     decimal.Decimal `json:"quantity"`
		BuyPrice     decimal.Decimal `json:"buy_price"`
		PurchaseDate string          `json:"purchase_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	purchaseDate := time.Now()
	if req.PurchaseDate != "" {
		parsed, err := parseDate(req.PurchaseDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid purchase_date")
			return
		}
		purchaseDate = parsed
	}

	holding, err := h.portfolio.AddHolding(r.Context(), UserIDFromCtx(r.Context()),
		req.Symbol, req.CompanyName, req.Quantity, req.BuyPrice, purchaseDate)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, holding)
}

// UpdateHolding handles PUT /api/portfolio/holdings/{id}
func (h *Handler) UpdateHolding(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid holding id")
		return
	}

	var req struct {
		Quantity decimal.Decimal `json:"quantity"`
		BuyPrice decimal.Decimal `json:"buy_price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	holding, err := h.portfolio.UpdateHolding(r.Context(), UserIDFromCtx(r.Context()), id, req.Quantity, req.BuyPrice)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, holding)
}

// DeleteHolding handles DELETE /api/portfolio/holdings/{id}
func (h *Handler) DeleteHolding(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid holding id")
		return
	}

	if err := h.portfolio.RemoveHolding(r.Context(), UserIDFromCtx(r.Context()), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetWatchlist handles GET /api/portfolio/watchlist
func (h *Handler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	items, err := h.portfolio.Watchlist(r.Context(), UserIDFromCtx(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// AddToWatchlist handles POST /api/portfolio/watchlist
func (h *Handler) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symbol      string `json:"symbol"`
		CompanyName string `json:"company_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.portfolio.AddToWatchlist(r.Context(), UserIDFromCtx(r.Context()), req.Symbol, req.CompanyName)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

// RemoveFromWatchlist handles DELETE /api/portfolio/watchlist/{id}
func (h *Handler) RemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid watchlist id")
		return
	}

	if err := h.portfolio.RemoveFromWatchlist(r.Context(), UserIDFromCtx(r.Context()), id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTransactions handles GET /api/portfolio/transactions
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	page, err := h.portfolio.Transactions(r.Context(), UserIDFromCtx(r.Context()), q.Get("symbol"), limit, offset)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

// ReconcileHolding handles GET /api/portfolio/holdings/{symbol}/reconcile
func (h *Handler) ReconcileHolding(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	report, err := h.portfolio.Reconcile(r.Context(), UserIDFromCtx(r.Context()), symbol)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// ExportCSV handles GET /api/user/export/csv
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	data, err := h.portfolio.ExportCSV(r.Context(), UserIDFromCtx(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="portfolio.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ExecuteTrade handles POST /api/trades
func (h *Handler) ExecuteTrade(w http.ResponseWriter, r *http.Request) {
	var req trading.TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.trading.ExecuteTrade(r.Context(), UserIDFromCtx(r.Context()), req)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// GetWallet handles GET /api/wallet
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	balance, err := h.trading.Balance(UserIDFromCtx(r.Context()))
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
}

// Deposit handles POST /api/wallet/deposit
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	balance, err := h.trading.Deposit(r.Context(), UserIDFromCtx(r.Context()), req.Amount)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
}

// GetHistory handles GET /api/stocks/history/{symbol}
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	rng := r.URL.Query().Get("range")

	candles, err := h.history.History(r.Context(), symbol, rng)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"symbol": symbol, "values": candles})
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// respondServiceError maps service errors onto HTTP statuses. Business
// rejections keep their message; unexpected failures stay opaque.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, trading.ErrInvalidQuantity),
		errors.Is(err, trading.ErrInvalidAmount),
		errors.Is(err, trading.ErrInvalidSymbol),
		errors.Is(err, trading.ErrInvalidTradeType),
		errors.Is(err, trading.ErrInsufficientFunds),
		errors.Is(err, trading.ErrInsufficientShares),
		errors.Is(err, portfolio.ErrInvalidSymbol),
		errors.Is(err, portfolio.ErrInvalidQuantity),
		errors.Is(err, portfolio.ErrInvalidPrice):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, trading.ErrHoldingNotFound),
		errors.Is(err, database.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrAlreadyExists):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, trading.ErrPriceUnavailable),
		errors.Is(err, marketdata.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		slog.Error("request failed",
			slog.String("rqID", utils.GetRequestIDFromCtx(r.Context())),
			slog.String("path", r.URL.Path),
			slog.String("err", err.Error()))
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
