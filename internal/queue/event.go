// Package queue carries booking events over RabbitMQ: the payload, a
// publisher used by the booking engine and a consumer that journals them.
package queue

import "time"

// BookingQueue is the durable queue booking events are routed to.
const BookingQueue = "booking.events"

// Event types.
const (
	EventBookingCreated  = "booking.created"
	EventBookingApproved = "booking.approved"
	EventBookingRejected = "booking.rejected"
)

// BookingEvent is published after a booking is created or decided.  It
// carries enough for a consumer to journal the change without querying the
// database.
type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  uint64    `json:"booking_id"`
	ItemID     uint64    `json:"item_id"`
	BookerID   uint64    `json:"booker_id"`
	OwnerID    uint64    `json:"owner_id"`
	Status     string    `json:"status"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	OccurredAt time.Time `json:"occurred_at"`
}
