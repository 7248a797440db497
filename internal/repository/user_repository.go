package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Artem9968/shareit/internal/model"
)

// userRecord mirrors the 'users' table.
type userRecord struct {
	ID        uint64    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

func (u userRecord) toModel() *model.User {
	return &model.User{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts u with a normalized email and sets its ID.  A duplicate
// email yields ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email) VALUES (?, ?)",
		u.Name, u.Email)
	if err != nil {
		return duplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	u.CreatedAt = time.Now().UTC()
	return nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var rec userRecord
	err := r.DB.GetContext(ctx, &rec,
		"SELECT id, name, email, created_at FROM users WHERE id = ? LIMIT 1", id)
	if err != nil {
		return nil, notFound(err)
	}
	return rec.toModel(), nil
}

// List returns every user ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	var recs []userRecord
	if err := r.DB.SelectContext(ctx, &recs, "SELECT id, name, email, created_at FROM users ORDER BY id"); err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(recs))
	for _, rec := range recs {
		out = append(out, *rec.toModel())
	}
	return out, nil
}

// Update overwrites name and email of an existing user.  Taking another
// user's email yields ErrConflict.
func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET name = ?, email = ? WHERE id = ?", u.Name, u.Email, u.ID)
	if err != nil {
		return duplicate(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, u.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a user.  A user still referenced by items, bookings,
// comments or requests yields ErrConflict.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return referenced(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
