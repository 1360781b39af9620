package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const (
	// Exchange is the topic exchange journey events are published to.
	Exchange = "journey_topic"

	reconnectInterval = 10 * time.Second
)

// ErrConnectionClosed is returned by Publish while the broker connection is down.
var ErrConnectionClosed = errors.New("rabbitmq connection is closed")

// RabbitMQ publishes journey events to a durable topic exchange.
type RabbitMQ struct {
	ctx    context.Context
	url    string
	logger *logrus.Logger

	mu           sync.Mutex
	conn         *amqp.Connection
	ch           *amqp.Channel
	reconnecting bool
}

var _ Publisher = (*RabbitMQ)(nil)

// NewRabbitMQ dials url and declares the exchange. ctx bounds the
// background reconnect loop.
func NewRabbitMQ(ctx context.Context, url string, logger *logrus.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{
		ctx:    ctx,
		url:    url,
		logger: logger,
	}
	if err := r.connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	return r, nil
}

// Publish sends e as a persistent JSON message routed by e.RoutingKey().
func (r *RabbitMQ) Publish(ctx context.Context, e JourneyEvent) error {
	r.mu.Lock()
	ch, conn := r.ch, r.conn
	r.mu.Unlock()

	if conn == nil || conn.IsClosed() || ch == nil || ch.IsClosed() {
		go r.reconnect()
		return ErrConnectionClosed
	}

	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	return ch.PublishWithContext(ctx, Exchange, e.RoutingKey(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.JourneyID + ":" + string(e.Kind),
		Timestamp:    e.OccurredAt,
		Body:         body,
	})
}

// IsAlive reports whether both the connection and the channel are open.
func (r *RabbitMQ) IsAlive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil && !r.conn.IsClosed() && r.ch != nil && !r.ch.IsClosed()
}

// Close closes the channel and the connection.
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ch != nil && !r.ch.IsClosed() {
		if err := r.ch.Close(); err != nil {
			return fmt.Errorf("close rabbitmq channel: %w", err)
		}
	}
	if r.conn != nil && !r.conn.IsClosed() {
		if err := r.conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}
	return nil
}

func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(r.url)
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return err
	}

	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange %s: %w", Exchange, err)
	}

	r.mu.Lock()
	r.conn = conn
	r.ch = ch
	r.mu.Unlock()
	return nil
}

func (r *RabbitMQ) reconnect() {
	r.mu.Lock()
	if r.reconnecting {
		r.mu.Unlock()
		return
	}
	r.reconnecting = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.reconnecting = false
		r.mu.Unlock()
	}()

	t := time.NewTicker(reconnectInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			if err := r.connect(); err != nil {
				r.logger.WithError(err).Warn("rabbitmq reconnect failed")
				continue
			}
			r.logger.Info("rabbitmq reconnected")
			return
		case <-r.ctx.Done():
			return
		}
	}
}
