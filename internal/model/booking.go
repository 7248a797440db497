package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the approval state of a booking.  A booking starts in
// StatusWaiting and moves at most once, into one of the terminal states.
type Status string

const (
	StatusWaiting  Status = "WAITING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusCanceled Status = "CANCELED"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusWaiting, StatusApproved, StatusRejected, StatusCanceled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed out of s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusCanceled:
		return true
	case StatusWaiting:
		return false
	}
	return false
}

// Decision returns the status an owner's decision moves a waiting booking to.
func Decision(approve bool) Status {
	if approve {
		return StatusApproved
	}
	return StatusRejected
}

// State is the bucket a booking listing is filtered by.  CURRENT, PAST and
// FUTURE are evaluated against the wall clock at query time, WAITING and
// REJECTED against the booking status.
type State string

const (
	StateAll      State = "ALL"
	StateCurrent  State = "CURRENT"
	StatePast     State = "PAST"
	StateFuture   State = "FUTURE"
	StateWaiting  State = "WAITING"
	StateRejected State = "REJECTED"
)

// ErrUnknownState is returned by ParseState for values outside the closed set.
var ErrUnknownState = errors.New("unknown state")

// ParseState converts a query parameter into a State.  Matching is
// case-insensitive and an empty value means StateAll.
func ParseState(raw string) (State, error) {
	s := State(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case "":
		return StateAll, nil
	case StateAll, StateCurrent, StatePast, StateFuture, StateWaiting, StateRejected:
		return s, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownState, raw)
}

// Matches reports whether b falls into the bucket at instant now.  Stores
// that filter in memory use it; SQL stores translate the same predicates.
func (s State) Matches(b Booking, now time.Time) bool {
	switch s {
	case StateAll:
		return true
	case StateCurrent:
		return b.Start.Before(now) && b.End.After(now)
	case StatePast:
		return b.Start.Before(now) && b.End.Before(now)
	case StateFuture:
		return b.Start.After(now)
	case StateWaiting:
		return b.Status == StatusWaiting
	case StateRejected:
		return b.Status == StatusRejected
	}
	return false
}

// Booking is a request by a booker to use an item over [Start, End).  The
// owner is not stored on the booking; it is always resolved through the
// item.
//
// Fields:
//  ID        – primary key, assigned by the store.
//  ItemID    – item being booked.
//  BookerID  – user who requested the booking.
//  Start/End – reservation interval, Start < End.
//  Status    – approval state.
//  CreatedAt – creation timestamp.
type Booking struct {
	ID        uint64    // bookings.id
	ItemID    uint64    // bookings.item_id
	BookerID  uint64    // bookings.booker_id
	Start     time.Time // bookings.start_at
	End       time.Time // bookings.end_at
	Status    Status    // bookings.status
	CreatedAt time.Time // bookings.created_at
}

// BookingFilter selects a bucket at a fixed instant.
type BookingFilter struct {
	State State
	Now   time.Time
}

// Page describes a slice of an ordered result set.
type Page struct {
	Offset int
	Limit  int
}

// PageFrom maps a from/size pair onto a page boundary: the page index is
// from/size, so a from that is not a multiple of size rounds down.
// size must be positive.
func PageFrom(from, size int) Page {
	return Page{Offset: (from / size) * size, Limit: size}
}
