package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// channel is the subset of *amqp.Channel used for publishing
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type amqpPublisher struct {
	conn     *amqp.Connection
	mu       sync.Mutex
	ch       channel
	exchange string
	logger   *zap.Logger
}

// NewAMQPPublisher dials the broker and declares a durable topic exchange
func NewAMQPPublisher(url, exchange string, logger *zap.Logger) (Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	logger.Info("Alert publisher connected", zap.String("exchange", exchange))

	p := newChannelPublisher(ch, exchange, logger)
	p.conn = conn
	return p, nil
}

func newChannelPublisher(ch channel, exchange string, logger *zap.Logger) *amqpPublisher {
	return &amqpPublisher{
		ch:       ch,
		exchange: exchange,
		logger:   logger,
	}
}

// PublishLowStock sends one persistent JSON message per alert
func (p *amqpPublisher) PublishLowStock(ctx context.Context, alerts []LowStockAlert) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, a := range alerts {
		if err := ctx.Err(); err != nil {
			return err
		}

		body, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("failed to encode alert: %w", err)
		}

		err = p.ch.Publish(
			p.exchange,
			LowStockRoutingKey,
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Timestamp:    a.RaisedAt,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("failed to publish alert for product %s: %w", a.ProductID, err)
		}

		p.logger.Debug("Low stock alert published",
			zap.String("product_id", a.ProductID.String()),
			zap.Int("stock", a.Stock),
		)
	}

	return nil
}

func (p *amqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.Close(); err != nil {
		return fmt.Errorf("failed to close channel: %w", err)
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
