package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Artem9968/shareit/internal/model"
	"github.com/Artem9968/shareit/internal/repository"
)

// ItemInput describes a new item.  Available is a pointer so that a
// missing flag can be told apart from false.
type ItemInput struct {
	Name        string
	Description string
	Available   *bool
	RequestID   *uint64
}

// ItemPatch holds the fields of a partial item update; nil fields are kept.
type ItemPatch struct {
	Name        *string
	Description *string
	Available   *bool
}

// CommentDetail is a comment together with its author's display name.
type CommentDetail struct {
	model.Comment
	AuthorName string
}

// ItemDetail is the view of an item.  LastBooking and NextBooking are only
// filled in for the owner.
type ItemDetail struct {
	model.Item
	Comments    []CommentDetail
	LastBooking *model.Booking
	NextBooking *model.Booking
}

// ItemService manages the catalog and comments on items.
type ItemService struct {
	items    ItemStore
	users    UserDirectory
	bookings BookingStore
	comments CommentStore
	requests RequestStore
	now      func() time.Time
}

func NewItemService(items ItemStore, users UserDirectory, bookings BookingStore, comments CommentStore, requests RequestStore) *ItemService {
	return &ItemService{
		items:    items,
		users:    users,
		bookings: bookings,
		comments: comments,
		requests: requests,
		now:      time.Now,
	}
}

// Create lists a new item owned by ownerID.
func (s *ItemService) Create(ctx context.Context, ownerID uint64, in ItemInput) (*model.Item, error) {
	if _, err := lookupUser(ctx, s.users, ownerID); err != nil {
		return nil, err
	}
	name, desc := strings.TrimSpace(in.Name), strings.TrimSpace(in.Description)
	switch {
	case name == "":
		return nil, fmt.Errorf("%w: item name must not be blank", ErrInvalidRequest)
	case desc == "":
		return nil, fmt.Errorf("%w: item description must not be blank", ErrInvalidRequest)
	case in.Available == nil:
		return nil, fmt.Errorf("%w: item availability must be set", ErrInvalidRequest)
	}
	if in.RequestID != nil {
		if _, err := s.requests.GetByID(ctx, *in.RequestID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: item request %d", ErrNotFound, *in.RequestID)
			}
			return nil, fmt.Errorf("get item request %d: %w", *in.RequestID, err)
		}
	}
	it := &model.Item{
		OwnerID:     ownerID,
		Name:        name,
		Description: desc,
		Available:   *in.Available,
		RequestID:   in.RequestID,
	}
	if err := s.items.Create(ctx, it); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return it, nil
}

// Update applies p to itemID.  Anyone but the owner is told the item does
// not exist.
func (s *ItemService) Update(ctx context.Context, ownerID, itemID uint64, p ItemPatch) (*model.Item, error) {
	it, err := lookupItem(ctx, s.items, itemID)
	if err != nil {
		return nil, err
	}
	if it.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: item %d of user %d", ErrNotFound, itemID, ownerID)
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		it.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) != "" {
		it.Description = strings.TrimSpace(*p.Description)
	}
	if p.Available != nil {
		it.Available = *p.Available
	}
	if err := s.items.Update(ctx, it); err != nil {
		return nil, fmt.Errorf("update item %d: %w", itemID, err)
	}
	return it, nil
}

// Get returns the item with its comments.  The owner also sees the
// surrounding bookings.
func (s *ItemService) Get(ctx context.Context, itemID, requesterID uint64) (*ItemDetail, error) {
	it, err := lookupItem(ctx, s.items, itemID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, *it, requesterID, s.now())
}

// ListByOwner returns every item of ownerID with its details, ordered by id.
func (s *ItemService) ListByOwner(ctx context.Context, ownerID uint64) ([]ItemDetail, error) {
	if _, err := lookupUser(ctx, s.users, ownerID); err != nil {
		return nil, err
	}
	items, err := s.items.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list items of owner %d: %w", ownerID, err)
	}
	now := s.now()
	out := make([]ItemDetail, 0, len(items))
	for _, it := range items {
		d, err := s.detail(ctx, it, ownerID, now)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

func (s *ItemService) detail(ctx context.Context, it model.Item, requesterID uint64, now time.Time) (*ItemDetail, error) {
	d := &ItemDetail{Item: it, Comments: []CommentDetail{}}
	comments, err := s.comments.ListByItem(ctx, it.ID)
	if err != nil {
		return nil, fmt.Errorf("list comments of item %d: %w", it.ID, err)
	}
	for _, c := range comments {
		cd := CommentDetail{Comment: c}
		if u, err := s.users.GetByID(ctx, c.AuthorID); err == nil {
			cd.AuthorName = u.Name
		}
		d.Comments = append(d.Comments, cd)
	}
	if it.OwnerID == requesterID {
		d.LastBooking, d.NextBooking, err = s.bookings.FindLastAndNext(ctx, it.ID, now)
		if err != nil {
			return nil, fmt.Errorf("find bookings around item %d: %w", it.ID, err)
		}
	}
	return d, nil
}

// Search returns one page of available items matching text.  Blank text
// matches nothing.
func (s *ItemService) Search(ctx context.Context, text string, from, size int) ([]model.Item, error) {
	page, err := pageOf(from, size)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return []model.Item{}, nil
	}
	out, err := s.items.Search(ctx, text, page)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	return out, nil
}

// AddComment stores a comment by authorID on itemID.  Only users with a
// booking of the item that has already ended may comment.
func (s *ItemService) AddComment(ctx context.Context, itemID, authorID uint64, text string) (*CommentDetail, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: comment text must not be blank", ErrInvalidRequest)
	}
	author, err := lookupUser(ctx, s.users, authorID)
	if err != nil {
		return nil, err
	}
	if _, err := lookupItem(ctx, s.items, itemID); err != nil {
		return nil, err
	}
	now := s.now()
	if _, err := s.bookings.FindLastFinished(ctx, itemID, authorID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %d has no finished booking of item %d", ErrInvalidRequest, authorID, itemID)
		}
		return nil, fmt.Errorf("find finished booking: %w", err)
	}
	c := &model.Comment{ItemID: itemID, AuthorID: authorID, Text: text, Created: now.UTC()}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return &CommentDetail{Comment: *c, AuthorName: author.Name}, nil
}
