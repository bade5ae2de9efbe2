package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"ledger/internal/core"
)

type Client struct {
	url          string
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
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

	c.conn = conn
	c.channel = channel

	if err := c.setup(); err != nil {
		c.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	return nil
}

func (c *Client) setup() error {
	// Declare exchange
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

	// Declare queue
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

	// Bind queue to exchange
	err = c.channel.QueueBind(
		c.queueName,    // queue name
		c.queueName,    // routing key (same as queue name for direct exchange)
		c.exchangeName, // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

func (c *Client) publish(ctx context.Context, msgType string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Type:         msgType,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	return nil
}

// PublishTransactionRecorded publishes a recorded-notification for t.
// It implements services.EventPublisher.
func (c *Client) PublishTransactionRecorded(ctx context.Context, t core.Transaction) error {
	body, err := NewTransactionRecordedMessage(t.ID).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, TypeTransactionRecorded, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published transaction recorded message",
		"transaction_id", t.ID,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

// PublishImportCompleted publishes an import-completed notification.
func (c *Client) PublishImportCompleted(ctx context.Context, sourceFile string, count int) error {
	body, err := NewImportCompletedMessage(sourceFile, count).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := c.publish(ctx, TypeImportCompleted, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published import completed message",
		"import_file", sourceFile,
		"count", count)

	return nil
}

// Handlers receives dispatched ledger events during consumption.
type Handlers struct {
	TransactionRecorded func(ctx context.Context, msg *TransactionRecordedMessage) error
	ImportCompleted     func(ctx context.Context, msg *ImportCompletedMessage) error
}

// ConsumeEvents consumes ledger events until ctx is done or the channel
// closes. Messages are manually acked; handler failures nack with requeue,
// undecodable messages nack without requeue.
func (c *Client) ConsumeEvents(ctx context.Context, handlers Handlers) error {
	msgs, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming ledger events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			if err := c.dispatch(ctx, delivery, handlers); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message",
					"error", err,
					"message_type", delivery.Type)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false)
		}
	}
}

func (c *Client) dispatch(ctx context.Context, delivery amqp091.Delivery, handlers Handlers) error {
	switch delivery.Type {
	case TypeTransactionRecorded:
		msg, err := TransactionRecordedMessageFromJSON(delivery.Body)
		if err != nil {
			delivery.Nack(false, false) // reject and don't requeue
			return nil
		}
		if handlers.TransactionRecorded == nil {
			return nil
		}
		return handlers.TransactionRecorded(ctx, msg)
	case TypeImportCompleted:
		msg, err := ImportCompletedMessageFromJSON(delivery.Body)
		if err != nil {
			delivery.Nack(false, false)
			return nil
		}
		if handlers.ImportCompleted == nil {
			return nil
		}
		return handlers.ImportCompleted(ctx, msg)
	default:
		slog.WarnContext(ctx, "Unknown message type", "message_type", delivery.Type)
		delivery.Nack(false, false)
		return nil
	}
}

// ConsumeEventsWithRetry runs ConsumeEvents and redials with exponential
// backoff on connection-level failures. It returns when ctx is done or on
// a non-connection error.
func (c *Client) ConsumeEventsWithRetry(ctx context.Context, handlers Handlers) error {
	attempt := 0
	for {
		err := c.ConsumeEvents(ctx, handlers)
		if err == nil || ctx.Err() != nil {
			return ctx.Err()
		}
		if !isConnectionError(err) {
			return err
		}

		wait := exponentialBackoff(attempt)
		attempt++
		slog.WarnContext(ctx, "AMQP connection lost, reconnecting",
			"error", err, "attempt", attempt, "wait", wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}

		if err := c.connect(); err != nil {
			slog.ErrorContext(ctx, "AMQP reconnect failed", "error", err, "attempt", attempt)
			continue
		}
		attempt = 0
	}
}

// exponentialBackoff doubles the wait per attempt starting at one second,
// capped at 30 seconds.
func exponentialBackoff(attempt int) time.Duration {
	const cap = 30 * time.Second
	wait := time.Second << uint(attempt)
	if wait <= 0 || wait > cap {
		return cap
	}
	return wait
}

// isConnectionError reports whether err looks like a broken AMQP
// connection rather than a handler or protocol failure.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{
		"connection refused",
		"connection closed",
		"channel closed",
		"unexpected EOF",
		"broken pipe",
		"use of closed network connection",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func (c *Client) Close() error {
	var errs []string

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("close channel: %v", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("close connection: %v", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close AMQP client: %s", strings.Join(errs, "; "))
	}
	return nil
}
