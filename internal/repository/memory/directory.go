package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Artem9968/shareit/internal/model"
	"github.com/Artem9968/shareit/internal/repository"
)

type UserRepo struct {
	mu   sync.RWMutex
	seq  uint64
	rows map[uint64]model.User
}

func NewUserRepo() *UserRepo { return &UserRepo{rows: make(map[uint64]model.User)} }

func (r *UserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for _, existing := range r.rows {
		if existing.Email == u.Email {
			return repository.ErrConflict
		}
	}
	r.seq++
	u.ID = r.seq
	u.CreatedAt = time.Now().UTC()
	r.rows[u.ID] = *u
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id uint64) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

// List returns every user ordered by id.
func (r *UserRepo) List(_ context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.User, 0, len(r.rows))
	for _, u := range r.rows {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *UserRepo) Update(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	old, ok := r.rows[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	for id, existing := range r.rows {
		if id != u.ID && existing.Email == u.Email {
			return repository.ErrConflict
		}
	}
	u.CreatedAt = old.CreatedAt
	r.rows[u.ID] = *u
	return nil
}

func (r *UserRepo) Delete(_ context.Context, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

type ItemRepo struct {
	mu   sync.RWMutex
	seq  uint64
	rows map[uint64]model.Item
}

func NewItemRepo() *ItemRepo { return &ItemRepo{rows: make(map[uint64]model.Item)} }

func (r *ItemRepo) Create(_ context.Context, it *model.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	it.ID = r.seq
	r.rows[it.ID] = *it
	return nil
}

func (r *ItemRepo) Update(_ context.Context, it *model.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[it.ID]; !ok {
		return repository.ErrNotFound
	}
	r.rows[it.ID] = *it
	return nil
}

func (r *ItemRepo) GetByID(_ context.Context, id uint64) (*model.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &it, nil
}

func (r *ItemRepo) ListByOwner(_ context.Context, ownerID uint64) ([]model.Item, error) {
	return r.sorted(func(it model.Item) bool { return it.OwnerID == ownerID }), nil
}

func (r *ItemRepo) ListIDsByOwner(ctx context.Context, ownerID uint64) ([]uint64, error) {
	items, _ := r.ListByOwner(ctx, ownerID)
	ids := make([]uint64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids, nil
}

func (r *ItemRepo) ListByRequest(_ context.Context, requestID uint64) ([]model.Item, error) {
	return r.sorted(func(it model.Item) bool { return it.RequestID != nil && *it.RequestID == requestID }), nil
}

func (r *ItemRepo) Search(_ context.Context, text string, p model.Page) ([]model.Item, error) {
	needle := strings.ToLower(text)
	found := r.sorted(func(it model.Item) bool {
		return it.Available &&
			(strings.Contains(strings.ToLower(it.Name), needle) ||
				strings.Contains(strings.ToLower(it.Description), needle))
	})
	return paginate(found, p), nil
}

func (r *ItemRepo) sorted(keep func(model.Item) bool) []model.Item {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Item, 0)
	for _, it := range r.rows {
		if keep(it) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type CommentRepo struct {
	mu   sync.RWMutex
	seq  uint64
	rows []model.Comment
}

func NewCommentRepo() *CommentRepo { return &CommentRepo{} }

func (r *CommentRepo) Create(_ context.Context, c *model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	c.ID = r.seq
	r.rows = append(r.rows, *c)
	return nil
}

func (r *CommentRepo) ListByItem(_ context.Context, itemID uint64) ([]model.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Comment, 0)
	for _, c := range r.rows {
		if c.ItemID == itemID {
			out = append(out, c)
		}
	}
	return out, nil
}

type RequestRepo struct {
	mu   sync.RWMutex
	seq  uint64
	rows map[uint64]model.ItemRequest
}

func NewRequestRepo() *RequestRepo { return &RequestRepo{rows: make(map[uint64]model.ItemRequest)} }

func (r *RequestRepo) Create(_ context.Context, req *model.ItemRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	req.ID = r.seq
	r.rows[req.ID] = *req
	return nil
}

func (r *RequestRepo) GetByID(_ context.Context, id uint64) (*model.ItemRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &req, nil
}

func (r *RequestRepo) ListByRequestor(_ context.Context, requestorID uint64) ([]model.ItemRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.ItemRequest, 0)
	for _, req := range r.rows {
		if req.RequestorID == requestorID {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.After(out[j].Created)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
