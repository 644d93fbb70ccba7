package rabbitmq

import (
	"busbook/pkg/logger"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

var ErrPublisherClosed = errors.New("rabbitmq publisher is closed")

// Publisher sends persistent JSON messages to one durable queue through the
// default exchange. The connection is reopened on the next publish after the
// broker drops it.
type Publisher struct {
	url   string
	queue string
	log   *logger.Logger

	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed bool
}

func NewPublisher(url, queue string, log *logger.Logger) (*Publisher, error) {
	if queue == "" {
		return nil, fmt.Errorf("queue cannot be empty")
	}
	p := &Publisher{url: url, queue: queue, log: log}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connectLocked(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connectLocked() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial failed: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel open failed: %w", err)
	}

	if _, err := declareQueue(ch, p.queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	p.conn = conn
	p.ch = ch
	return nil
}

func declareQueue(ch *amqp.Channel, queue string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return q, fmt.Errorf("rabbitmq queue declare failed: %w", err)
	}
	return q, nil
}

// Publish sends body with the given headers. messageID doubles as the AMQP
// message id so consumers can deduplicate.
func (p *Publisher) Publish(ctx context.Context, messageID, messageType string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPublisherClosed
	}
	if p.conn == nil || p.conn.IsClosed() {
		p.log.Warn("rabbitmq connection lost, reconnecting", "queue", p.queue)
		if err := p.connectLocked(); err != nil {
			return err
		}
	}

	err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    messageID,
		Type:         messageType,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq publish failed: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil && !p.conn.IsClosed() {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

// Delivery is the part of an AMQP delivery handlers need.
type Delivery struct {
	MessageID string
	Type      string
	Body      []byte
}

// Handler processes one delivery. Returning an error rejects it without requeue.
type Handler func(ctx context.Context, d Delivery) error

// Consume reads the queue until ctx is cancelled, reconnecting with
// exponential backoff capped at 30s.
func Consume(ctx context.Context, url, queue string, prefetch int, handler Handler, log *logger.Logger) error {
	backoff := time.Second
	for {
		err := consumeOnce(ctx, url, queue, prefetch, handler, log)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("rabbitmq consume loop ended, reconnecting", "queue", queue, "error", err, "backoff", backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func consumeOnce(ctx context.Context, url, queue string, prefetch int, handler Handler, log *logger.Logger) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel open failed: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(prefetch, 0, false); err != nil {
		log.Warn("rabbitmq set QoS failed", "error", err)
	}
	if _, err := declareQueue(ch, queue); err != nil {
		return err
	}

	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq consume failed: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			if err := handler(ctx, Delivery{MessageID: d.MessageId, Type: d.Type, Body: d.Body}); err != nil {
				log.Warn("rabbitmq handler rejected message", "message_id", d.MessageId, "error", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}
