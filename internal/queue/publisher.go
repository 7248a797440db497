package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	publishDialTimeout = 2 * time.Second
	redialBackoff      = 5 * time.Second
)

// ErrBrokerUnavailable is returned while the publisher waits out the
// backoff after a failed dial.
var ErrBrokerUnavailable = errors.New("rabbitmq unavailable")

// Publisher sends booking events to RabbitMQ over one long-lived
// connection.  A broken connection is re-dialed on the next publish, but
// not sooner than redialBackoff after a failed dial.
type Publisher struct {
	url   string
	queue string
	now   func() time.Time

	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	retryAt time.Time
}

// NewPublisher returns a Publisher targeting queue on the broker at url.
// An empty queue name means BookingQueue.  Nothing is dialed until the
// first publish.
func NewPublisher(url, queue string) *Publisher {
	if queue == "" {
		queue = BookingQueue
	}
	return &Publisher{url: url, queue: queue, now: time.Now}
}

// PublishBookingEvent publishes ev as a persistent JSON message on the
// default exchange, routed to the durable queue.
func (p *Publisher) PublishBookingEvent(ctx context.Context, ev BookingEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		_ = ch.Close()
		p.ch = nil
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// channel returns an open channel with the queue declared, dialing when
// needed.  p.mu must be held.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.conn == nil || p.conn.IsClosed() {
		if p.now().Before(p.retryAt) {
			return nil, ErrBrokerUnavailable
		}
		conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(publishDialTimeout)})
		if err != nil {
			p.retryAt = p.now().Add(redialBackoff)
			return nil, fmt.Errorf("rabbitmq dial: %w", err)
		}
		p.conn = conn
	}

	ch, err := p.conn.Channel()
	if err != nil {
		_ = p.conn.Close()
		p.conn = nil
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}
	p.ch = ch
	return ch, nil
}

// Close releases the connection.  The publisher stays usable and dials
// again on the next publish.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn = nil
	return err
}

// NopPublisher drops every event.  It is used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) PublishBookingEvent(context.Context, BookingEvent) error { return nil }
