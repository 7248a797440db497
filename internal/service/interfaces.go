// Package service holds the business rules of shareit: the booking engine
// and the thin directory services around it.  Storage and messaging are
// injected through the interfaces below.
package service

import (
	"context"
	"time"

	"github.com/Artem9968/shareit/internal/model"
	"github.com/Artem9968/shareit/internal/queue"
)

// BookingStore persists bookings and answers bucketed, paginated queries.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	ListByBooker(ctx context.Context, bookerID uint64, f model.BookingFilter, p model.Page) ([]model.Booking, error)
	ListByItems(ctx context.Context, itemIDs []uint64, f model.BookingFilter, p model.Page) ([]model.Booking, error)
	UpdateStatusIfCurrent(ctx context.Context, id uint64, from, to model.Status) (bool, error)
	FindLastFinished(ctx context.Context, itemID, bookerID uint64, before time.Time) (*model.Booking, error)
	FindLastAndNext(ctx context.Context, itemID uint64, at time.Time) (*model.Booking, *model.Booking, error)
}

// UserDirectory resolves accounts by id.
type UserDirectory interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// ItemDirectory resolves items and the items owned by a user.
type ItemDirectory interface {
	GetByID(ctx context.Context, id uint64) (*model.Item, error)
	ListIDsByOwner(ctx context.Context, ownerID uint64) ([]uint64, error)
}

type UserStore interface {
	UserDirectory
	Create(ctx context.Context, u *model.User) error
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context) ([]model.User, error)
}

type ItemStore interface {
	ItemDirectory
	Create(ctx context.Context, it *model.Item) error
	Update(ctx context.Context, it *model.Item) error
	ListByOwner(ctx context.Context, ownerID uint64) ([]model.Item, error)
	ListByRequest(ctx context.Context, requestID uint64) ([]model.Item, error)
	Search(ctx context.Context, text string, p model.Page) ([]model.Item, error)
}

type CommentStore interface {
	Create(ctx context.Context, c *model.Comment) error
	ListByItem(ctx context.Context, itemID uint64) ([]model.Comment, error)
}

type RequestStore interface {
	Create(ctx context.Context, r *model.ItemRequest) error
	GetByID(ctx context.Context, id uint64) (*model.ItemRequest, error)
	ListByRequestor(ctx context.Context, requestorID uint64) ([]model.ItemRequest, error)
}

// EventPublisher hands booking events to the broker.
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, ev queue.BookingEvent) error
}
