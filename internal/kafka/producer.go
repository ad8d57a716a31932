package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/stockfolio/portfolio-service/internal/models"
)

// Producer handles publishing portfolio events to Kafka
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishTradeExecuted publishes an event for a committed trade
func (p *Producer) PublishTradeExecuted(ctx context.Context, userID int, tr *models.Transaction) error {
	event := models.TradeEvent{
		EventType:   models.EventTradeExecuted,
		UserID:      userID,
		Transaction: tr,
		Symbol:      tr.Symbol,
		Timestamp:   time.Now(),
	}
	return p.publish(ctx, tr.Symbol, event)
}

// PublishFundsDeposited publishes an event for a committed deposit
func (p *Producer) PublishFundsDeposited(ctx context.Context, userID int, amount, balance decimal.Decimal) error {
	event := models.DepositEvent{
		EventType: models.EventFundsDeposited,
		UserID:    userID,
		Amount:    amount,
		Balance:   balance,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, fmt.Sprintf("user-%d", userID), event)
}

func (p *Producer) publish(ctx context.Context, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
