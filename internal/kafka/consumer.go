package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/stockfolio/portfolio-service/internal/models"
	"github.com/stockfolio/portfolio-service/internal/valuation"
)

// PriceRepository defines the database operations the price tick
// consumer needs.
type PriceRepository interface {
	GetHoldingsBySymbol(symbol string) ([]*models.Holding, error)
	UpdateHoldingSnapshot(h *models.Holding) error
	UpdateWatchlistQuoteBySymbol(symbol string, price, changePercent decimal.Decimal) error
}

// Consumer applies market price ticks to stored holdings and watchlist
// rows, so valuations stay current between API reads.
type Consumer struct {
	reader *kafka.Reader
	repo   PriceRepository
}

// NewConsumer creates a new Kafka consumer for price tick events
func NewConsumer(brokers []string, topic, groupID string, repo PriceRepository) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	return &Consumer{
		reader: reader,
		repo:   repo,
	}
}

// Start begins consuming messages from Kafka
func (c *Consumer) Start(ctx context.Context) error {
	slog.Info("starting kafka consumer", slog.String("topic", c.reader.Config().Topic))

	for {
		select {
		case <-ctx.Done():
			slog.Info("kafka consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				slog.Error("error reading message", slog.String("err", err.Error()))
				continue
			}

			if err := c.processMessage(msg); err != nil {
				slog.Error("error processing message", slog.String("err", err.Error()))
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *Consumer) processMessage(msg kafka.Message) error {
	var event models.PriceTickEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal price tick: %w", err)
	}

	if event.EventType != models.EventPriceTick {
		return nil
	}

	return c.applyTick(&event)
}

// applyTick writes the tick's price onto every holding of the symbol
// and onto matching watchlist rows.
func (c *Consumer) applyTick(event *models.PriceTickEvent) error {
	price, err := event.ParsedPrice()
	if err != nil {
		return fmt.Errorf("invalid tick price %s: %w", event.Price, err)
	}
	if !price.IsPositive() {
		return fmt.Errorf("non-positive tick price %s for %s", event.Price, event.Symbol)
	}

	changePercent := decimal.Zero
	if event.ChangePercent != "" {
		changePercent, err = decimal.NewFromString(event.ChangePercent)
		if err != nil {
			return fmt.Errorf("invalid tick change percent %s: %w", event.ChangePercent, err)
		}
	}

	holdings, err := c.repo.GetHoldingsBySymbol(event.Symbol)
	if err != nil {
		return fmt.Errorf("failed to load holdings for tick: %w", err)
	}

	for _, h := range holdings {
		h.CurrentPrice = price
		valuation.Recalculate(h)
		if err := c.repo.UpdateHoldingSnapshot(h); err != nil {
			return fmt.Errorf("failed to apply tick to holding %d: %w", h.ID, err)
		}
	}

	if err := c.repo.UpdateWatchlistQuoteBySymbol(event.Symbol, price, changePercent); err != nil {
		return fmt.Errorf("failed to apply tick to watchlist: %w", err)
	}

	slog.Debug("applied price tick",
		slog.String("symbol", event.Symbol),
		slog.String("price", price.String()),
		slog.Int("holdings", len(holdings)))

	return nil
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}
