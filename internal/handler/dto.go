package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Artem9968/shareit/internal/model"
	"github.com/Artem9968/shareit/internal/service"
)

// localLayout is the zone-less timestamp older clients send.  Such values
// are read as UTC.
const localLayout = "2006-01-02T15:04:05"

// isoTime accepts RFC 3339 or zone-less local timestamps.
type isoTime struct{ time.Time }

func (t *isoTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.ParseInLocation(localLayout, s, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q", s)
	}
	t.Time = parsed
	return nil
}

// Request bodies.

type createBookingRequest struct {
	ItemID uint64   `json:"itemId" validate:"required"`
	Start  *isoTime `json:"start" validate:"required"`
	End    *isoTime `json:"end" validate:"required"`
}

type createUserRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type updateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" validate:"omitempty,email"`
}

type createItemRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Available   *bool   `json:"available" validate:"required"`
	RequestID   *uint64 `json:"requestId"`
}

type updateItemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

type createCommentRequest struct {
	Text string `json:"text" validate:"required"`
}

type createItemRequestRequest struct {
	Description string `json:"description" validate:"required"`
}

// Response payloads.

type userRef struct {
	ID   uint64 `json:"id"`
	Name string `json:"name,omitempty"`
}

type itemRef struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Available   *bool  `json:"available,omitempty"`
}

type bookingResponse struct {
	ID     uint64    `json:"id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Status string    `json:"status"`
	Item   itemRef   `json:"item"`
	Booker userRef   `json:"booker"`
}

type bookingShort struct {
	ID       uint64    `json:"id"`
	BookerID uint64    `json:"bookerId"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

type userResponse struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type commentResponse struct {
	ID         uint64    `json:"id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"authorName"`
	Created    time.Time `json:"created"`
}

type itemResponse struct {
	ID          uint64            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Available   bool              `json:"available"`
	RequestID   *uint64           `json:"requestId,omitempty"`
	LastBooking *bookingShort     `json:"lastBooking"`
	NextBooking *bookingShort     `json:"nextBooking"`
	Comments    []commentResponse `json:"comments"`
}

type itemRequestResponse struct {
	ID          uint64    `json:"id"`
	Description string    `json:"description"`
	Created     time.Time `json:"created"`
}

// requestAnswer is an item offered for a request.
type requestAnswer struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	OwnerID uint64 `json:"ownerId"`
}

type itemRequestDetailResponse struct {
	itemRequestResponse
	Items []requestAnswer `json:"items"`
}

// toBookingResponse resolves the item and booker of b.  A failed lookup
// leaves only the id of that part.
func toBookingResponse(ctx context.Context, b model.Booking, users service.UserDirectory, items service.ItemDirectory) bookingResponse {
	out := bookingResponse{
		ID:     b.ID,
		Start:  b.Start.UTC(),
		End:    b.End.UTC(),
		Status: string(b.Status),
		Item:   itemRef{ID: b.ItemID},
		Booker: userRef{ID: b.BookerID},
	}
	if it, err := items.GetByID(ctx, b.ItemID); err == nil {
		avail := it.Available
		out.Item = itemRef{ID: it.ID, Name: it.Name, Description: it.Description, Available: &avail}
	}
	if u, err := users.GetByID(ctx, b.BookerID); err == nil {
		out.Booker = userRef{ID: u.ID, Name: u.Name}
	}
	return out
}

func toBookingResponses(ctx context.Context, bs []model.Booking, users service.UserDirectory, items service.ItemDirectory) []bookingResponse {
	out := make([]bookingResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBookingResponse(ctx, b, users, items))
	}
	return out
}

func toBookingShort(b *model.Booking) *bookingShort {
	if b == nil {
		return nil
	}
	return &bookingShort{ID: b.ID, BookerID: b.BookerID, Start: b.Start.UTC(), End: b.End.UTC()}
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

func toCommentResponse(c service.CommentDetail) commentResponse {
	return commentResponse{ID: c.ID, Text: c.Text, AuthorName: c.AuthorName, Created: c.Created.UTC()}
}

func toItemResponse(it model.Item) itemResponse {
	return itemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		Available:   it.Available,
		RequestID:   it.RequestID,
		Comments:    []commentResponse{},
	}
}

func toItemDetailResponse(d service.ItemDetail) itemResponse {
	out := toItemResponse(d.Item)
	out.LastBooking = toBookingShort(d.LastBooking)
	out.NextBooking = toBookingShort(d.NextBooking)
	for _, c := range d.Comments {
		out.Comments = append(out.Comments, toCommentResponse(c))
	}
	return out
}

func toItemRequestResponse(r model.ItemRequest) itemRequestResponse {
	return itemRequestResponse{ID: r.ID, Description: r.Description, Created: r.Created.UTC()}
}

func toItemRequestDetailResponse(d service.RequestDetail) itemRequestDetailResponse {
	out := itemRequestDetailResponse{itemRequestResponse: toItemRequestResponse(d.ItemRequest), Items: []requestAnswer{}}
	for _, it := range d.Items {
		out.Items = append(out.Items, requestAnswer{ID: it.ID, Name: it.Name, OwnerID: it.OwnerID})
	}
	return out
}
