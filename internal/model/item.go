package model

import "time"

// Item is something a user lists for others to borrow.
type Item struct {
	ID          uint64  // items.id
	OwnerID     uint64  // items.owner_id
	Name        string  // items.name
	Description string  // items.description
	Available   bool    // items.is_available
	RequestID   *uint64 // items.request_id (nullable), set when listed in answer to a request
}

// Comment is feedback left on an item by a past booker.
type Comment struct {
	ID       uint64    // comments.id
	ItemID   uint64    // comments.item_id
	AuthorID uint64    // comments.author_id
	Text     string    // comments.text
	Created  time.Time // comments.created_at
}

// ItemRequest records that a user is looking for an item that is not in
// the catalog yet.
type ItemRequest struct {
	ID          uint64    // item_requests.id
	RequestorID uint64    // item_requests.requestor_id
	Description string    // item_requests.description
	Created     time.Time // item_requests.created_at
}
