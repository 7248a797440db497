package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Artem9968/shareit/internal/model"
	"github.com/Artem9968/shareit/internal/repository"
)

// UserService registers and resolves marketplace accounts.  Items,
// bookings and requests are consulted before an account is deleted.
type UserService struct {
	users    UserStore
	items    ItemDirectory
	bookings BookingStore
	requests RequestStore
}

func NewUserService(users UserStore, items ItemDirectory, bookings BookingStore, requests RequestStore) *UserService {
	return &UserService{users: users, items: items, bookings: bookings, requests: requests}
}

// UserPatch carries the fields of a partial update.  Nil or blank fields
// keep their value.
type UserPatch struct {
	Name  *string
	Email *string
}

// Create registers a user.  Emails are unique ignoring case.
func (s *UserService) Create(ctx context.Context, name, email string) (*model.User, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" {
		return nil, fmt.Errorf("%w: user name must not be blank", ErrInvalidRequest)
	}
	if err := checkEmail(email); err != nil {
		return nil, err
	}
	u := &model.User{Name: name, Email: email}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, userWriteError("create user", u, err)
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id uint64) (*model.User, error) {
	return lookupUser(ctx, s.users, id)
}

// List returns every user ordered by id.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	out, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

// Update applies p to user id.  Taking another user's email is a conflict.
func (s *UserService) Update(ctx context.Context, id uint64, p UserPatch) (*model.User, error) {
	u, err := lookupUser(ctx, s.users, id)
	if err != nil {
		return nil, err
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		u.Name = strings.TrimSpace(*p.Name)
	}
	if p.Email != nil && strings.TrimSpace(*p.Email) != "" {
		email := strings.TrimSpace(*p.Email)
		if err := checkEmail(email); err != nil {
			return nil, err
		}
		u.Email = email
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, userWriteError(fmt.Sprintf("update user %d", id), u, err)
	}
	return u, nil
}

// Delete removes user id.  A user who still owns items, has made bookings
// or has open requests cannot be deleted.
func (s *UserService) Delete(ctx context.Context, id uint64) error {
	if _, err := lookupUser(ctx, s.users, id); err != nil {
		return err
	}
	inUse, err := s.referenced(ctx, id)
	if err != nil {
		return err
	}
	if inUse != "" {
		return fmt.Errorf("%w: user %d still has %s", ErrConflict, id, inUse)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("%w: user %d", ErrNotFound, id)
		case errors.Is(err, repository.ErrConflict):
			return fmt.Errorf("%w: user %d is still referenced", ErrConflict, id)
		}
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}

// referenced names the first kind of record that still points at user id,
// or returns "" when there is none.
func (s *UserService) referenced(ctx context.Context, id uint64) (string, error) {
	items, err := s.items.ListIDsByOwner(ctx, id)
	if err != nil {
		return "", fmt.Errorf("list items of user %d: %w", id, err)
	}
	if len(items) > 0 {
		return "items", nil
	}
	all := model.BookingFilter{State: model.StateAll}
	bookings, err := s.bookings.ListByBooker(ctx, id, all, model.Page{Limit: 1})
	if err != nil {
		return "", fmt.Errorf("list bookings of user %d: %w", id, err)
	}
	if len(bookings) > 0 {
		return "bookings", nil
	}
	requests, err := s.requests.ListByRequestor(ctx, id)
	if err != nil {
		return "", fmt.Errorf("list item requests of user %d: %w", id, err)
	}
	if len(requests) > 0 {
		return "item requests", nil
	}
	return "", nil
}

func checkEmail(email string) error {
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: user email must contain '@'", ErrInvalidRequest)
	}
	return nil
}

func userWriteError(op string, u *model.User, err error) error {
	switch {
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: email %s is already registered", ErrConflict, u.Email)
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: user %d", ErrNotFound, u.ID)
	}
	return fmt.Errorf("%s: %w", op, err)
}
