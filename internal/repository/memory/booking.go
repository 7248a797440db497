// Package memory provides map-backed implementations of the repositories.
// They are safe for concurrent use and are meant for tests and for running
// the service without a database (STORAGE=memory).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Artem9968/shareit/internal/model"
	"github.com/Artem9968/shareit/internal/repository"
)

// BookingRepo keeps bookings in a map guarded by a RWMutex.  Status
// transitions happen under the write lock.
type BookingRepo struct {
	mu   sync.RWMutex
	seq  uint64
	rows map[uint64]model.Booking
	now  func() time.Time
}

func NewBookingRepo() *BookingRepo {
	return &BookingRepo{rows: make(map[uint64]model.Booking), now: time.Now}
}

func (r *BookingRepo) Create(_ context.Context, b *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	b.ID = r.seq
	b.CreatedAt = r.now().UTC()
	r.rows[b.ID] = *b
	return nil
}

func (r *BookingRepo) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &b, nil
}

func (r *BookingRepo) ListByBooker(_ context.Context, bookerID uint64, f model.BookingFilter, p model.Page) ([]model.Booking, error) {
	return r.list(func(b model.Booking) bool { return b.BookerID == bookerID }, f, p), nil
}

func (r *BookingRepo) ListByItems(_ context.Context, itemIDs []uint64, f model.BookingFilter, p model.Page) ([]model.Booking, error) {
	set := make(map[uint64]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		set[id] = struct{}{}
	}
	return r.list(func(b model.Booking) bool {
		_, ok := set[b.ItemID]
		return ok
	}, f, p), nil
}

func (r *BookingRepo) list(scope func(model.Booking) bool, f model.BookingFilter, p model.Page) []model.Booking {
	r.mu.RLock()
	matched := make([]model.Booking, 0)
	for _, b := range r.rows {
		if scope(b) && f.State.Matches(b, f.Now) {
			matched = append(matched, b)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Start.Equal(matched[j].Start) {
			return matched[i].Start.After(matched[j].Start)
		}
		return matched[i].ID > matched[j].ID
	})
	return paginate(matched, p)
}

func (r *BookingRepo) UpdateStatusIfCurrent(_ context.Context, id uint64, from, to model.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	r.rows[id] = b
	return true, nil
}

func (r *BookingRepo) FindLastFinished(_ context.Context, itemID, bookerID uint64, before time.Time) (*model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *model.Booking
	for _, b := range r.rows {
		if b.ItemID != itemID || b.BookerID != bookerID || !b.End.Before(before) {
			continue
		}
		if best == nil || b.End.After(best.End) || (b.End.Equal(best.End) && b.ID > best.ID) {
			cp := b
			best = &cp
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	return best, nil
}

func (r *BookingRepo) FindLastAndNext(_ context.Context, itemID uint64, at time.Time) (*model.Booking, *model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var last, next *model.Booking
	for _, b := range r.rows {
		if b.ItemID != itemID || b.Status == model.StatusRejected || b.Status == model.StatusCanceled {
			continue
		}
		cp := b
		if b.Start.Before(at) {
			if last == nil || b.Start.After(last.Start) || (b.Start.Equal(last.Start) && b.ID > last.ID) {
				last = &cp
			}
			continue
		}
		if next == nil || b.Start.Before(next.Start) || (b.Start.Equal(next.Start) && b.ID < next.ID) {
			next = &cp
		}
	}
	return last, next, nil
}

func paginate[T any](rows []T, p model.Page) []T {
	if p.Offset >= len(rows) {
		return []T{}
	}
	end := len(rows)
	if p.Limit < end-p.Offset {
		end = p.Offset + p.Limit
	}
	return rows[p.Offset:end]
}
