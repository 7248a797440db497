package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Artem9968/shareit/internal/model"
	"github.com/Artem9968/shareit/internal/queue"
	"github.com/Artem9968/shareit/internal/repository"
)

// CreateBookingInput is the caller-supplied part of a new booking.  Any
// status the client sends is ignored; bookings always start WAITING.
type CreateBookingInput struct {
	ItemID uint64
	Start  time.Time
	End    time.Time
}

// BookingService enforces who may book what and when, drives the approval
// state machine and answers bucketed listings for bookers and owners.
type BookingService struct {
	bookings BookingStore
	users    UserDirectory
	items    ItemDirectory
	events   EventPublisher
	log      *logrus.Logger
	now      func() time.Time
}

// NewBookingService wires the engine.  A nil publisher disables events and
// a nil logger discards output.
func NewBookingService(bookings BookingStore, users UserDirectory, items ItemDirectory, events EventPublisher, log *logrus.Logger) *BookingService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &BookingService{bookings: bookings, users: users, items: items, events: events, log: log, now: time.Now}
}

// Create validates and stores a new WAITING booking of in.ItemID for
// requesterID.
func (s *BookingService) Create(ctx context.Context, in CreateBookingInput, requesterID uint64) (*model.Booking, error) {
	if _, err := s.lookupUser(ctx, requesterID); err != nil {
		return nil, err
	}
	item, err := s.lookupItem(ctx, in.ItemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID == requesterID {
		return nil, fmt.Errorf("%w: booker is the owner of item %d", ErrNotFound, item.ID)
	}
	if !item.Available {
		return nil, fmt.Errorf("%w: item is not available for booking", ErrInvalidRequest)
	}
	if err := validateInterval(in.Start, in.End, s.now()); err != nil {
		return nil, err
	}

	b := &model.Booking{
		ItemID:   item.ID,
		BookerID: requesterID,
		Start:    in.Start,
		End:      in.End,
		Status:   model.StatusWaiting,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	s.log.WithFields(logrus.Fields{"booking_id": b.ID, "item_id": b.ItemID, "booker_id": b.BookerID}).Info("booking created")
	s.publish(ctx, queue.EventBookingCreated, b, item.OwnerID)
	return b, nil
}

func validateInterval(start, end, now time.Time) error {
	switch {
	case start.After(end):
		return fmt.Errorf("%w: start date is after end date", ErrInvalidRequest)
	case start.Equal(end):
		return fmt.Errorf("%w: start date is equal to end date", ErrInvalidRequest)
	case !start.After(now):
		return fmt.Errorf("%w: can not start in the past", ErrInvalidRequest)
	case !end.After(now):
		return fmt.Errorf("%w: can not end in the past", ErrInvalidRequest)
	}
	return nil
}

// Decide approves or rejects a WAITING booking on behalf of the item owner.
// The transition is a compare-and-set on the stored status, so of several
// concurrent decisions exactly one wins and the rest get ErrForbidden.
func (s *BookingService) Decide(ctx context.Context, bookingID, ownerID uint64, approve bool) (*model.Booking, error) {
	b, err := s.lookupBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	item, err := s.lookupItem(ctx, b.ItemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: only the item owner can decide on booking %d", ErrForbidden, bookingID)
	}
	if b.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: booking %d is already %s", ErrForbidden, bookingID, b.Status)
	}

	to := model.Decision(approve)
	ok, err := s.bookings.UpdateStatusIfCurrent(ctx, bookingID, model.StatusWaiting, to)
	if err != nil {
		return nil, fmt.Errorf("decide booking %d: %w", bookingID, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: booking %d is no longer %s", ErrForbidden, bookingID, model.StatusWaiting)
	}
	b.Status = to

	s.log.WithFields(logrus.Fields{"booking_id": b.ID, "owner_id": ownerID, "status": to}).Info("booking decided")
	ev := queue.EventBookingRejected
	if approve {
		ev = queue.EventBookingApproved
	}
	s.publish(ctx, ev, b, ownerID)
	return b, nil
}

// Get returns a booking visible to requesterID, who must be its booker or
// the owner of its item.
func (s *BookingService) Get(ctx context.Context, bookingID, requesterID uint64) (*model.Booking, error) {
	b, err := s.lookupBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.BookerID == requesterID {
		return b, nil
	}
	item, err := s.lookupItem(ctx, b.ItemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != requesterID {
		return nil, fmt.Errorf("%w: user %d is neither booker nor owner of booking %d", ErrForbidden, requesterID, bookingID)
	}
	return b, nil
}

// ListForBooker returns one page of requesterID's bookings in state.  An
// empty page is reported as ErrNotFound.
func (s *BookingService) ListForBooker(ctx context.Context, requesterID uint64, state model.State, from, size int) ([]model.Booking, error) {
	page, err := pageOf(from, size)
	if err != nil {
		return nil, err
	}
	f := model.BookingFilter{State: state, Now: s.now()}
	out, err := s.bookings.ListByBooker(ctx, requesterID, f, page)
	if err != nil {
		return nil, fmt.Errorf("list bookings of booker %d: %w", requesterID, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no bookings", ErrNotFound)
	}
	return out, nil
}

// ListForOwner returns one page of the bookings of ownerID's items in
// state.  An owner without items gets ErrNotFound; an empty page is an
// empty slice.
func (s *BookingService) ListForOwner(ctx context.Context, ownerID uint64, state model.State, from, size int) ([]model.Booking, error) {
	ids, err := s.items.ListIDsByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list items of owner %d: %w", ownerID, err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: user %d owns no items", ErrNotFound, ownerID)
	}
	page, err := pageOf(from, size)
	if err != nil {
		return nil, err
	}
	f := model.BookingFilter{State: state, Now: s.now()}
	out, err := s.bookings.ListByItems(ctx, ids, f, page)
	if err != nil {
		return nil, fmt.Errorf("list bookings of owner %d: %w", ownerID, err)
	}
	return out, nil
}

func pageOf(from, size int) (model.Page, error) {
	if size <= 0 {
		return model.Page{}, fmt.Errorf("%w: size must be greater than zero", ErrInvalidRequest)
	}
	if from < 0 {
		return model.Page{}, fmt.Errorf("%w: from must not be negative", ErrInvalidRequest)
	}
	return model.PageFrom(from, size), nil
}

func (s *BookingService) publish(ctx context.Context, typ string, b *model.Booking, ownerID uint64) {
	ev := queue.BookingEvent{
		Type:       typ,
		BookingID:  b.ID,
		ItemID:     b.ItemID,
		BookerID:   b.BookerID,
		OwnerID:    ownerID,
		Status:     string(b.Status),
		Start:      b.Start.UTC(),
		End:        b.End.UTC(),
		OccurredAt: s.now().UTC(),
	}
	if err := s.events.PublishBookingEvent(ctx, ev); err != nil {
		s.log.WithError(err).WithField("booking_id", b.ID).Warn("publish booking event failed")
	}
}

func (s *BookingService) lookupBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: booking %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %d: %w", id, err)
	}
	return b, nil
}

func (s *BookingService) lookupItem(ctx context.Context, id uint64) (*model.Item, error) {
	return lookupItem(ctx, s.items, id)
}

func (s *BookingService) lookupUser(ctx context.Context, id uint64) (*model.User, error) {
	return lookupUser(ctx, s.users, id)
}

func lookupItem(ctx context.Context, items ItemDirectory, id uint64) (*model.Item, error) {
	it, err := items.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get item %d: %w", id, err)
	}
	return it, nil
}

func lookupUser(ctx context.Context, users UserDirectory, id uint64) (*model.User, error) {
	u, err := users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}
