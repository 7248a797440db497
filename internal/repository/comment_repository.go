package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Artem9968/shareit/internal/model"
)

type commentRecord struct {
	ID       uint64    `db:"id"`
	ItemID   uint64    `db:"item_id"`
	AuthorID uint64    `db:"author_id"`
	Text     string    `db:"text"`
	Created  time.Time `db:"created_at"`
}

// CommentRepo stores comments on items.
type CommentRepo struct{ DB *sqlx.DB }

func NewCommentRepo(db *sqlx.DB) *CommentRepo { return &CommentRepo{DB: db} }

// Create inserts c and sets its ID.  Created is taken from the caller.
func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO comments (item_id, author_id, text, created_at) VALUES (?, ?, ?, ?)",
		c.ItemID, c.AuthorID, c.Text, c.Created.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)
	return nil
}

// ListByItem returns the comments of itemID, oldest first.
func (r *CommentRepo) ListByItem(ctx context.Context, itemID uint64) ([]model.Comment, error) {
	var recs []commentRecord
	if err := r.DB.SelectContext(ctx, &recs,
		"SELECT id, item_id, author_id, text, created_at FROM comments WHERE item_id = ? ORDER BY created_at, id",
		itemID); err != nil {
		return nil, err
	}
	out := make([]model.Comment, 0, len(recs))
	for _, rec := range recs {
		out = append(out, model.Comment(rec))
	}
	return out, nil
}
