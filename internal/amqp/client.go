// Package amqp connects the API and the mirror worker through RabbitMQ.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

var ErrUnknownOp = errors.New("unknown mirror operation")

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures = 5
	openTimeout = 30 * time.Second
)

type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	closed    chan struct{}
	closeOnce sync.Once

	failureCount int64
	state        int32
	lastFailure  time.Time
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		closed:       make(chan struct{}),
	}

	if err := client.connect(); err != nil {
		return nil, err
	}

	return client, nil
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = channel
	c.mu.Unlock()

	if err := c.setup(); err != nil {
		c.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	return nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key matches the queue name on a direct exchange
	err = c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// exponentialBackoff returns the reconnect delay for an attempt, capped at 30s.
func exponentialBackoff(attempt int) time.Duration {
	if attempt > 4 {
		return 30 * time.Second
	}
	return time.Duration(1<<uint(attempt)) * time.Second
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{
		"connection refused",
		"connection closed",
		"EOF",
		"broken pipe",
		"use of closed network connection",
		"channel/connection is not open",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func (c *Client) isCircuitOpen() bool {
	switch atomic.LoadInt32(&c.state) {
	case StateOpen:
		c.mu.Lock()
		since := time.Since(c.lastFailure)
		c.mu.Unlock()
		if since > openTimeout {
			atomic.StoreInt32(&c.state, StateHalfOpen)
			return false
		}
		return true
	default:
		return false
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	failures := atomic.AddInt64(&c.failureCount, 1)
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if failures >= maxFailures {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// PublishActivityMirror publishes a mirror message for an activity.
func (c *Client) PublishActivityMirror(ctx context.Context, activityID, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isClosed() {
		return fmt.Errorf("publish mirror message: client is closed")
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("publish mirror message: circuit breaker is open")
	}

	msg := NewActivityMirrorMessage(activityID, op)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()
	if channel == nil {
		c.recordFailure()
		return fmt.Errorf("publish mirror message: no channel")
	}

	err = channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			go c.reconnect()
		}
		return fmt.Errorf("publish message: %w", err)
	}

	c.recordSuccess()
	slog.InfoContext(ctx, "Published activity mirror message",
		"activity_id", activityID,
		"op", op,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

// reconnect retries the connection with backoff until it succeeds or the
// client is closed.
func (c *Client) reconnect() {
	for attempt := 0; ; attempt++ {
		select {
		case <-c.closed:
			return
		case <-time.After(exponentialBackoff(attempt)):
		}
		if err := c.connect(); err != nil {
			slog.Warn("AMQP reconnect failed", "attempt", attempt, "error", err)
			continue
		}
		slog.Info("AMQP reconnected", "attempt", attempt)
		return
	}
}

func (c *Client) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// ConsumeActivityMirror consumes mirror messages until the context is done or
// the client is closed. When the broker drops the delivery channel it
// reconnects and resubscribes instead of giving up.
func (c *Client) ConsumeActivityMirror(ctx context.Context, handler func(*ActivityMirrorMessage) error) error {
	for attempt := 0; ; attempt++ {
		deliveries, err := c.subscribe()
		if err != nil {
			if isConnectionError(err) {
				c.reconnect()
			}
			slog.WarnContext(ctx, "Failed to start consuming, retrying",
				"attempt", attempt, "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.closed:
				return nil
			case <-time.After(exponentialBackoff(attempt)):
			}
			continue
		}
		attempt = 0

		slog.InfoContext(ctx, "Started consuming activity mirror messages", "queue", c.queueName)

		if err := c.consumeDeliveries(ctx, deliveries, handler); err != nil {
			return err
		}
		if c.isClosed() {
			return nil
		}
		// The delivery channel closed underneath us, usually after a broker
		// restart. Resubscribe on the reconnected channel.
		slog.WarnContext(ctx, "Delivery channel closed, resubscribing", "queue", c.queueName)
	}
}

func (c *Client) subscribe() (<-chan amqp091.Delivery, error) {
	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()
	if channel == nil {
		return nil, fmt.Errorf("start consuming: no channel")
	}

	deliveries, err := channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return nil, fmt.Errorf("start consuming: %w", err)
	}
	return deliveries, nil
}

// consumeDeliveries drains one delivery channel. A nil return means the
// channel closed and the caller should resubscribe.
func (c *Client) consumeDeliveries(ctx context.Context, deliveries <-chan amqp091.Delivery, handler func(*ActivityMirrorMessage) error) error {
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return nil
			}

			msg, err := ActivityMirrorMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
				delivery.Nack(false, false) // reject and don't requeue
				continue
			}

			slog.InfoContext(ctx, "Processing activity mirror message",
				"activity_id", msg.ActivityID,
				"op", msg.Op)

			if err := handler(msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message",
					"error", err,
					"activity_id", msg.ActivityID,
					"op", msg.Op)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false)
			slog.InfoContext(ctx, "Successfully processed activity mirror message",
				"activity_id", msg.ActivityID,
				"op", msg.Op)
		}
	}
}

// Close stops reconnect attempts and tears down the channel and connection.
// Safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
