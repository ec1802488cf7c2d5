package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ikkim/storefront-backend/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// RabbitMQPublisher publishes to a durable queue through the default exchange.
type RabbitMQPublisher struct {
	conn      *amqp.Connection
	mu        sync.Mutex
	ch        amqpChannel
	queueName string
}

func NewRabbitMQPublisher(url, queueName string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	logger.Info("RabbitMQ publisher ready", map[string]interface{}{
		"queue": queueName,
	})
	return &RabbitMQPublisher{conn: conn, ch: ch, queueName: queueName}, nil
}

func (p *RabbitMQPublisher) PublishOrderConfirmed(ctx context.Context, event OrderConfirmedEvent) error {
	body, err := encode(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx,
		"",          // exchange
		p.queueName, // routing key (queue name)
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Type:         EventTypeOrderConfirmed,
			MessageId:    fmt.Sprintf("order-%d", event.OrderID),
			Timestamp:    event.ConfirmedAt,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}

	logger.Debug("Published order confirmed event to RabbitMQ", map[string]interface{}{
		"order_id": event.OrderID,
		"queue":    p.queueName,
	})
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
