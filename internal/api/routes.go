package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler, tokens TokenParser) *mux.Router {
	r := mux.NewRouter()
	r.Use(RequestIDMiddleware, LoggingMiddleware)

	// Public routes
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	r.HandleFunc("/api/auth/signup", handler.Signup).Methods("POST")
	r.HandleFunc("/api/auth/login", handler.Login).Methods("POST")
	r.HandleFunc("/api/auth/logout", handler.Logout).Methods("POST")

	// Authenticated routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(AuthMiddleware(tokens))

	api.HandleFunc("/portfolio/holdings", handler.GetHoldings).Methods("GET")
	api.HandleFunc("/portfolio/holdings", handler.AddHolding).Methods("POST")
	api.HandleFunc("/portfolio/holdings/{id}", handler.UpdateHolding).Methods("PUT")
	api.HandleFunc("/portfolio/holdings/{id}", handler.DeleteHolding).Methods("DELETE")
	api.HandleFunc("/portfolio/holdings/{symbol}/reconcile", handler.ReconcileHolding).Methods("GET")
	api.HandleFunc("/portfolio/summary", handler.GetSummary).Methods("GET")
	api.HandleFunc("/portfolio/transactions", handler.GetTransactions).Methods("GET")
	api.HandleFunc("/portfolio/watchlist", handler.GetWatchlist).Methods("GET")
	api.HandleFunc("/portfolio/watchlist", handler.AddToWatchlist).Methods("POST")
	api.HandleFunc("/portfolio/watchlist/{id}", handler.RemoveFromWatchlist).Methods("DELETE")

	api.HandleFunc("/trades", handler.ExecuteTrade).Methods("POST")

	api.HandleFunc("/wallet", handler.GetWallet).Methods("GET")
	api.HandleFunc("/wallet/deposit", handler.Deposit).Methods("POST")

	api.HandleFunc("/user/profile", handler.GetProfile).Methods("GET")
	api.HandleFunc("/user/profile", handler.UpdateProfile).Methods("PUT")
	api.HandleFunc("/user/password", handler.ChangePassword).Methods("PUT")
	api.HandleFunc("/user/settings", handler.GetSettings).Methods("GET")
	api.HandleFunc("/user/settings", handler.UpdateSettings).Methods("PUT")
	api.HandleFunc("/user/export/csv", handler.ExportCSV).Methods("GET")

	api.HandleFunc("/stocks/history/{symbol}", handler.GetHistory).Methods("GET")

	return r
}
