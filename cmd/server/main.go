package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/stockfolio/portfolio-service/internal/api"
	"github.com/stockfolio/portfolio-service/internal/auth"
	"github.com/stockfolio/portfolio-service/internal/config"
	"github.com/stockfolio/portfolio-service/internal/database"
	"github.com/stockfolio/portfolio-service/internal/kafka"
	"github.com/stockfolio/portfolio-service/internal/marketdata"
	"github.com/stockfolio/portfolio-service/internal/portfolio"
	"github.com/stockfolio/portfolio-service/internal/trading"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	setupLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		slog.Error("failed to run migrations", slog.String("err", err.Error()))
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	var quoteCache *marketdata.RedisQuoteCache
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, quote caching disabled", slog.String("err", err.Error()))
	} else {
		quoteCache = marketdata.NewRedisQuoteCache(redisClient, cfg.MarketData.QuoteCacheTTL)
	}

	finnhub := marketdata.NewFinnhubClient(cfg.MarketData.FinnhubBaseURL, cfg.MarketData.FinnhubAPIKey, cfg.MarketData.RequestTimeout)
	twelveData := marketdata.NewTwelveDataClient(cfg.MarketData.TwelveDataBaseURL, cfg.MarketData.TwelveDataAPIKey, cfg.MarketData.RequestTimeout)
	quoter := marketdata.NewCachedQuoter(quoteCache, finnhub)

	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
	defer producer.Close()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TicksTopic, cfg.Kafka.TicksGroupID, db)
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("kafka consumer stopped", slog.String("err", err.Error()))
		}
	}()

	tradingSvc := trading.New(db, quoter, producer)
	portfolioSvc := portfolio.New(db, quoter)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	handler := api.NewHandler(portfolioSvc, tradingSvc, db, twelveData, tokens)
	router := api.SetupRoutes(handler, tokens)

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		slog.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt

	slog.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown failed", slog.String("err", err.Error()))
	}
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
}
