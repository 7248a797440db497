package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Artem9968/shareit/internal/model"
)

// BookingRepo persists bookings in the bookings table.  Listing queries are
// ordered by start time descending with the id as a tie breaker so that
// consecutive pages never overlap.  All timestamps are written in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `b.id, b.item_id, b.booker_id, b.start_at, b.end_at, b.status, b.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(s rowScanner) (model.Booking, error) {
	var (
		b      model.Booking
		status string
	)
	if err := s.Scan(&b.ID, &b.ItemID, &b.BookerID, &b.Start, &b.End, &status, &b.CreatedAt); err != nil {
		return model.Booking{}, err
	}
	b.Status = model.Status(status)
	if !b.Status.Valid() {
		return model.Booking{}, fmt.Errorf("booking %d has unknown status %q", b.ID, status)
	}
	return b, nil
}

// Create inserts b and fills in the generated ID and creation time.  The
// insert and the read back run in one transaction.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking insert: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `INSERT INTO bookings (item_id, booker_id, start_at, end_at, status) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.ItemID, b.BookerID, b.Start.UTC(), b.End.UTC(), string(b.Status))
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	b.ID = uint64(id)

	const sel = `SELECT created_at FROM bookings WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt); err != nil {
		return fmt.Errorf("read back booking %d: %w", b.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking insert: %w", err)
	}
	committed = true
	return nil
}

// GetByID returns the booking with the given id or ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// ListByBooker returns one page of the bookings made by bookerID that fall
// into the filter's bucket.
func (r *BookingRepo) ListByBooker(ctx context.Context, bookerID uint64, f model.BookingFilter, p model.Page) ([]model.Booking, error) {
	return r.list(ctx, "b.booker_id = ?", []any{bookerID}, f, p)
}

// ListByItems returns one page of the bookings of any of itemIDs that fall
// into the filter's bucket.  An empty id set yields an empty result without
// touching the database.
func (r *BookingRepo) ListByItems(ctx context.Context, itemIDs []uint64, f model.BookingFilter, p model.Page) ([]model.Booking, error) {
	if len(itemIDs) == 0 {
		return []model.Booking{}, nil
	}
	placeholders := make([]string, 0, len(itemIDs))
	args := make([]any, 0, len(itemIDs))
	for _, id := range itemIDs {
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	return r.list(ctx, "b.item_id IN ("+strings.Join(placeholders, ",")+")", args, f, p)
}

func (r *BookingRepo) list(ctx context.Context, scope string, args []any, f model.BookingFilter, p model.Page) ([]model.Booking, error) {
	where := []string{scope}
	if pred, predArgs := statePredicate(f); pred != "" {
		where = append(where, pred)
		args = append(args, predArgs...)
	}
	q := `SELECT ` + bookingColumns + ` FROM bookings b WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY b.start_at DESC, b.id DESC LIMIT ? OFFSET ?`
	args = append(args, p.Limit, p.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	out := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return out, nil
}

// statePredicate renders the SQL condition for a bucket.  StateAll has no
// condition.
func statePredicate(f model.BookingFilter) (string, []any) {
	now := f.Now.UTC()
	switch f.State {
	case model.StateAll:
		return "", nil
	case model.StateCurrent:
		return "b.start_at < ? AND b.end_at > ?", []any{now, now}
	case model.StatePast:
		return "b.start_at < ? AND b.end_at < ?", []any{now, now}
	case model.StateFuture:
		return "b.start_at > ?", []any{now}
	case model.StateWaiting:
		return "b.status = ?", []any{string(model.StatusWaiting)}
	case model.StateRejected:
		return "b.status = ?", []any{string(model.StatusRejected)}
	}
	return "", nil
}

// UpdateStatusIfCurrent moves booking id from status from to status to in a
// single conditional update.  It reports false when the booking is missing
// or no longer in status from, so two concurrent callers can never both
// succeed.
func (r *BookingRepo) UpdateStatusIfCurrent(ctx context.Context, id uint64, from, to model.Status) (bool, error) {
	const q = `UPDATE bookings SET status = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, string(to), id, string(from))
	if err != nil {
		return false, fmt.Errorf("update booking %d status: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update booking %d status: %w", id, err)
	}
	return n == 1, nil
}

// FindLastFinished returns the booking of itemID by bookerID with the
// latest end that is still before the given instant.
func (r *BookingRepo) FindLastFinished(ctx context.Context, itemID, bookerID uint64, before time.Time) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings b
	           WHERE b.item_id = ? AND b.booker_id = ? AND b.end_at < ?
	           ORDER BY b.end_at DESC, b.id DESC LIMIT 1`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, itemID, bookerID, before.UTC()))
	if err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// FindLastAndNext returns the latest booking of itemID that started before
// at and the earliest one starting at or after it.  Rejected and canceled
// bookings are ignored.  Either result may be nil.
func (r *BookingRepo) FindLastAndNext(ctx context.Context, itemID uint64, at time.Time) (*model.Booking, *model.Booking, error) {
	const lastQ = `SELECT ` + bookingColumns + ` FROM bookings b
	               WHERE b.item_id = ? AND b.start_at < ? AND b.status NOT IN (?, ?)
	               ORDER BY b.start_at DESC, b.id DESC LIMIT 1`
	const nextQ = `SELECT ` + bookingColumns + ` FROM bookings b
	               WHERE b.item_id = ? AND b.start_at >= ? AND b.status NOT IN (?, ?)
	               ORDER BY b.start_at ASC, b.id ASC LIMIT 1`
	at = at.UTC()
	last, err := r.optionalBooking(ctx, lastQ, itemID, at, string(model.StatusRejected), string(model.StatusCanceled))
	if err != nil {
		return nil, nil, err
	}
	next, err := r.optionalBooking(ctx, nextQ, itemID, at, string(model.StatusRejected), string(model.StatusCanceled))
	if err != nil {
		return nil, nil, err
	}
	return last, next, nil
}

func (r *BookingRepo) optionalBooking(ctx context.Context, q string, args ...any) (*model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find booking: %w", err)
	}
	return &b, nil
}
