package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher forwards events to an external broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }

// DefaultDialTimeout bounds the TCP connect plus AMQP handshake.
const DefaultDialTimeout = 5 * time.Second

// AMQPPublisher publishes events as persistent JSON messages to a durable
// queue on the default exchange. The connection is dialed lazily and
// re-dialed after the broker drops it.
type AMQPPublisher struct {
	url         string
	queue       string
	dialTimeout time.Duration
	logger      *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns an AMQPPublisher for url, or a NoopPublisher when url is empty.
func NewPublisher(url, queue string, logger *zap.Logger) Publisher {
	if url == "" {
		return NoopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AMQPPublisher{url: url, queue: queue, dialTimeout: DefaultDialTimeout, logger: logger}
}

// Publish sends event to the configured queue.
func (p *AMQPPublisher) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         string(event.Type),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		p.reset()
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	p.ch, p.conn = nil, nil
	return errors.Join(errs...)
}

// channel returns an open channel, dialing when needed. Callers hold p.mu.
func (p *AMQPPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.conn != nil && !p.conn.IsClosed() && p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	timeout := p.dialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("dial broker: %w", context.DeadlineExceeded)
		}
		timeout = min(timeout, remaining)
	}

	// DefaultDial applies the timeout to the connect and to the handshake deadline.
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", p.queue, err)
	}

	p.logger.Info("connected to message broker", zap.String("queue", p.queue))
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}
