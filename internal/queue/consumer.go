package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const maxBackoff = 30 * time.Second

// StartBookingConsumer consumes queue on the broker at url and writes one
// journal entry per event.  It reconnects with exponential backoff until
// ctx is cancelled, then returns ctx.Err().  Malformed messages are
// rejected without requeue so they cannot loop.
func StartBookingConsumer(ctx context.Context, url, queue string, journal *logrus.Logger) error {
	if queue == "" {
		queue = BookingQueue
	}
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			journal.WithError(err).Warnf("booking-consumer: dial failed, retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < maxBackoff {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, queue, journal)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		journal.WithError(err).Warn("booking-consumer: consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, journal *logrus.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		journal.WithError(err).Warn("booking-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		if err := handleMessage(journal, d.Body); err != nil {
			journal.WithError(err).Error("booking-consumer: handle message failed")
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

func handleMessage(journal *logrus.Logger, body []byte) error {
	var ev BookingEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.BookingID == 0 {
		return errors.New("event without type or booking id")
	}
	journal.WithFields(logrus.Fields{
		"event":       ev.Type,
		"booking_id":  ev.BookingID,
		"item_id":     ev.ItemID,
		"booker_id":   ev.BookerID,
		"owner_id":    ev.OwnerID,
		"status":      ev.Status,
		"start":       ev.Start.UTC().Format(time.RFC3339),
		"end":         ev.End.UTC().Format(time.RFC3339),
		"occurred_at": ev.OccurredAt.UTC().Format(time.RFC3339),
	}).Info("booking event")
	return nil
}
