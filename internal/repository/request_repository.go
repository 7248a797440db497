package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Artem9968/shareit/internal/model"
)

type requestRecord struct {
	ID          uint64    `db:"id"`
	RequestorID uint64    `db:"requestor_id"`
	Description string    `db:"description"`
	Created     time.Time `db:"created_at"`
}

// RequestRepo stores item requests: descriptions of items a user would
// like to borrow but cannot find.
type RequestRepo struct{ DB *sqlx.DB }

func NewRequestRepo(db *sqlx.DB) *RequestRepo { return &RequestRepo{DB: db} }

func (r *RequestRepo) Create(ctx context.Context, req *model.ItemRequest) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO item_requests (requestor_id, description, created_at) VALUES (?, ?, ?)",
		req.RequestorID, req.Description, req.Created.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = uint64(id)
	return nil
}

func (r *RequestRepo) GetByID(ctx context.Context, id uint64) (*model.ItemRequest, error) {
	var rec requestRecord
	if err := r.DB.GetContext(ctx, &rec,
		"SELECT id, requestor_id, description, created_at FROM item_requests WHERE id = ?", id); err != nil {
		return nil, notFound(err)
	}
	req := model.ItemRequest(rec)
	return &req, nil
}

// ListByRequestor returns requestorID's requests, newest first.
func (r *RequestRepo) ListByRequestor(ctx context.Context, requestorID uint64) ([]model.ItemRequest, error) {
	var recs []requestRecord
	if err := r.DB.SelectContext(ctx, &recs,
		"SELECT id, requestor_id, description, created_at FROM item_requests WHERE requestor_id = ? ORDER BY created_at DESC, id DESC",
		requestorID); err != nil {
		return nil, err
	}
	out := make([]model.ItemRequest, 0, len(recs))
	for _, rec := range recs {
		out = append(out, model.ItemRequest(rec))
	}
	return out, nil
}
