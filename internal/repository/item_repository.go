package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Artem9968/shareit/internal/model"
)

// itemRecord mirrors the 'items' table.
type itemRecord struct {
	ID          uint64        `db:"id"`
	OwnerID     uint64        `db:"owner_id"`
	Name        string        `db:"name"`
	Description string        `db:"description"`
	Available   bool          `db:"is_available"`
	RequestID   sql.NullInt64 `db:"request_id"`
}

func (i itemRecord) toModel() model.Item {
	it := model.Item{
		ID:          i.ID,
		OwnerID:     i.OwnerID,
		Name:        i.Name,
		Description: i.Description,
		Available:   i.Available,
	}
	if i.RequestID.Valid {
		rid := uint64(i.RequestID.Int64)
		it.RequestID = &rid
	}
	return it
}

const itemColumns = `id, owner_id, name, description, is_available, request_id`

// ItemRepo is the item directory backed by MySQL.
type ItemRepo struct{ DB *sqlx.DB }

func NewItemRepo(db *sqlx.DB) *ItemRepo { return &ItemRepo{DB: db} }

// Create inserts it and sets its ID.
func (r *ItemRepo) Create(ctx context.Context, it *model.Item) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO items (owner_id, name, description, is_available, request_id) VALUES (?, ?, ?, ?, ?)",
		it.OwnerID, it.Name, it.Description, it.Available, it.RequestID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	it.ID = uint64(id)
	return nil
}

// Update overwrites the mutable columns of an existing item.
func (r *ItemRepo) Update(ctx context.Context, it *model.Item) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE items SET name = ?, description = ?, is_available = ? WHERE id = ?",
		it.Name, it.Description, it.Available, it.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// MySQL reports zero affected rows when nothing changed, so tell
		// a missing row apart from a no-op update.
		if _, err := r.GetByID(ctx, it.ID); err != nil {
			return err
		}
	}
	return nil
}

// GetByID fetches an item by id.
func (r *ItemRepo) GetByID(ctx context.Context, id uint64) (*model.Item, error) {
	var rec itemRecord
	if err := r.DB.GetContext(ctx, &rec, "SELECT "+itemColumns+" FROM items WHERE id = ?", id); err != nil {
		return nil, notFound(err)
	}
	it := rec.toModel()
	return &it, nil
}

// ListByOwner returns all items of ownerID ordered by id.
func (r *ItemRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]model.Item, error) {
	var recs []itemRecord
	if err := r.DB.SelectContext(ctx, &recs,
		"SELECT "+itemColumns+" FROM items WHERE owner_id = ? ORDER BY id", ownerID); err != nil {
		return nil, err
	}
	out := make([]model.Item, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toModel())
	}
	return out, nil
}

// ListIDsByOwner returns only the ids of ownerID's items.
func (r *ItemRepo) ListIDsByOwner(ctx context.Context, ownerID uint64) ([]uint64, error) {
	ids := []uint64{}
	if err := r.DB.SelectContext(ctx, &ids, "SELECT id FROM items WHERE owner_id = ? ORDER BY id", ownerID); err != nil {
		return nil, err
	}
	return ids, nil
}

// ListByRequest returns the items offered in answer to requestID.
func (r *ItemRepo) ListByRequest(ctx context.Context, requestID uint64) ([]model.Item, error) {
	var recs []itemRecord
	if err := r.DB.SelectContext(ctx, &recs,
		"SELECT "+itemColumns+" FROM items WHERE request_id = ? ORDER BY id", requestID); err != nil {
		return nil, err
	}
	out := make([]model.Item, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toModel())
	}
	return out, nil
}

// Search returns available items whose name or description contains text,
// ignoring case.
func (r *ItemRepo) Search(ctx context.Context, text string, p model.Page) ([]model.Item, error) {
	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
	var recs []itemRecord
	if err := r.DB.SelectContext(ctx, &recs,
		"SELECT "+itemColumns+` FROM items
		 WHERE is_available = TRUE AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)
		 ORDER BY id LIMIT ? OFFSET ?`,
		pattern, pattern, p.Limit, p.Offset); err != nil {
		return nil, err
	}
	out := make([]model.Item, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toModel())
	}
	return out, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
