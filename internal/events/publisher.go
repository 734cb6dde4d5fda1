package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"venue-backend/internal/config"
	"venue-backend/internal/engine"
)

// Publisher sends one persistent JSON message per committed write to a
// durable queue. Publishing never fails the request that caused it.
type Publisher struct {
	url   string
	queue string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher dials the broker and declares the queue.
func NewPublisher(cfg config.EventsConfig) (*Publisher, error) {
	p := &Publisher{url: cfg.URL, queue: cfg.Queue}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect must be called with mu held.
func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare queue %s: %w", p.queue, err)
	}
	// a channel closed by a broker error leaves its connection open
	if stale := p.conn; stale != nil && !stale.IsClosed() {
		stale.Close()
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *Publisher) usable() bool {
	return p.conn != nil && !p.conn.IsClosed() && p.ch != nil && !p.ch.IsClosed()
}

// Publish sends ch, reconnecting once if the connection or channel was lost.
func (p *Publisher) Publish(ctx context.Context, ch engine.Change) error {
	msg, err := newMessage(ch)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.usable() {
		if err := p.connect(); err != nil {
			return err
		}
	}
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", p.queue, err)
	}
	return nil
}

func newMessage(ch engine.Change) (amqp.Publishing, error) {
	body, err := json.Marshal(ch)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal change: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ch.Entity + "." + string(ch.Op),
		Body:         body,
	}, nil
}

// EntityChanged publishes the change and logs failures.
func (p *Publisher) EntityChanged(ctx context.Context, ch engine.Change) {
	if err := p.Publish(ctx, ch); err != nil {
		slog.Warn("change event not published", "entity", ch.Entity, "op", ch.Op, "error", err)
	}
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
