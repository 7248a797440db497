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

// RequestService records items users are looking for.
type RequestService struct {
	requests RequestStore
	users    UserDirectory
	items    ItemStore
	now      func() time.Time
}

func NewRequestService(requests RequestStore, users UserDirectory, items ItemStore) *RequestService {
	return &RequestService{requests: requests, users: users, items: items, now: time.Now}
}

// RequestDetail is a request with the items offered in answer to it.
type RequestDetail struct {
	model.ItemRequest
	Items []model.Item
}

func (s *RequestService) Create(ctx context.Context, requestorID uint64, description string) (*model.ItemRequest, error) {
	if _, err := lookupUser(ctx, s.users, requestorID); err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: request description must not be blank", ErrInvalidRequest)
	}
	r := &model.ItemRequest{RequestorID: requestorID, Description: description, Created: s.now().UTC()}
	if err := s.requests.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("create item request: %w", err)
	}
	return r, nil
}

// Get returns request id with its answers.  Any existing user may look at
// any request.
func (s *RequestService) Get(ctx context.Context, id, userID uint64) (*RequestDetail, error) {
	if _, err := lookupUser(ctx, s.users, userID); err != nil {
		return nil, err
	}
	r, err := s.requests.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: item request %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get item request %d: %w", id, err)
	}
	items, err := s.items.ListByRequest(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list items for request %d: %w", id, err)
	}
	return &RequestDetail{ItemRequest: *r, Items: items}, nil
}

// List returns requestorID's own requests, newest first.
func (s *RequestService) List(ctx context.Context, requestorID uint64) ([]model.ItemRequest, error) {
	if _, err := lookupUser(ctx, s.users, requestorID); err != nil {
		return nil, err
	}
	out, err := s.requests.ListByRequestor(ctx, requestorID)
	if err != nil {
		return nil, fmt.Errorf("list item requests of user %d: %w", requestorID, err)
	}
	return out, nil
}
