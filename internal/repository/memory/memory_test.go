package memory

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Artem9968/shareit/internal/model"
	"github.com/Artem9968/shareit/internal/repository"
)

func TestUserEmailUnique(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo()

	require.NoError(t, r.Create(ctx, &model.User{Name: "Ann", Email: "ann@example.com"}))
	err := r.Create(ctx, &model.User{Name: "Ann 2", Email: "ANN@example.com "})
	require.ErrorIs(t, err, repository.ErrConflict)

	_, err = r.GetByID(ctx, 2)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestItemSearch(t *testing.T) {
	ctx := context.Background()
	r := NewItemRepo()
	for _, it := range []model.Item{
		{OwnerID: 1, Name: "Drill", Description: "Cordless", Available: true},
		{OwnerID: 1, Name: "Saw", Description: "Sharp, not a DRILL", Available: true},
		{OwnerID: 2, Name: "Old drill", Description: "broken", Available: false},
	} {
		it := it
		require.NoError(t, r.Create(ctx, &it))
	}

	got, err := r.Search(ctx, "drill", model.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].ID)
	assert.Equal(t, uint64(2), got[1].ID)

	paged, err := r.Search(ctx, "drill", model.Page{Offset: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, paged, 1)

	ids, err := r.ListIDsByOwner(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, ids)

	err = r.Update(ctx, &model.Item{ID: 42})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBookingStatusCAS(t *testing.T) {
	ctx := context.Background()
	r := NewBookingRepo()
	b := &model.Booking{ItemID: 1, BookerID: 2, Status: model.StatusWaiting}
	require.NoError(t, r.Create(ctx, b))

	ok, err := r.UpdateStatusIfCurrent(ctx, b.ID, model.StatusWaiting, model.StatusRejected)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.UpdateStatusIfCurrent(ctx, b.ID, model.StatusWaiting, model.StatusApproved)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, _ = r.UpdateStatusIfCurrent(ctx, 99, model.StatusWaiting, model.StatusApproved)
	assert.False(t, ok)

	got, err := r.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, got.Status)
}

func TestBookingFindLastFinished(t *testing.T) {
	ctx := context.Background()
	r := NewBookingRepo()
	now := time.Date(2030, 1, 10, 0, 0, 0, 0, time.UTC)
	for _, end := range []time.Time{now.Add(-48 * time.Hour), now.Add(-time.Hour), now.Add(time.Hour)} {
		require.NoError(t, r.Create(ctx, &model.Booking{ItemID: 1, BookerID: 2, Start: end.Add(-time.Hour), End: end, Status: model.StatusApproved}))
	}

	got, err := r.FindLastFinished(ctx, 1, 2, now)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), got.ID)

	_, err = r.FindLastFinished(ctx, 1, 3, now)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRequestsNewestFirst(t *testing.T) {
	ctx := context.Background()
	r := NewRequestRepo()
	t0 := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, r.Create(ctx, &model.ItemRequest{RequestorID: 1, Description: "a", Created: t0}))
	require.NoError(t, r.Create(ctx, &model.ItemRequest{RequestorID: 1, Description: "b", Created: t0.Add(time.Minute)}))
	require.NoError(t, r.Create(ctx, &model.ItemRequest{RequestorID: 2, Description: "c", Created: t0}))

	got, err := r.ListByRequestor(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Description)
}

func TestPaginate(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, paginate(rows, model.Page{Offset: 2, Limit: 2}))
	assert.Equal(t, []int{5}, paginate(rows, model.Page{Offset: 4, Limit: 2}))
	assert.Empty(t, paginate(rows, model.Page{Offset: 5, Limit: 2}))
	assert.Equal(t, []int{2, 3, 4, 5}, paginate(rows, model.Page{Offset: 1, Limit: math.MaxInt}))
}

func TestUserUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepo()
	ann := &model.User{Name: "Ann", Email: "ann@example.com"}
	bob := &model.User{Name: "Bob", Email: "bob@example.com"}
	require.NoError(t, r.Create(ctx, ann))
	require.NoError(t, r.Create(ctx, bob))

	require.ErrorIs(t, r.Update(ctx, &model.User{ID: bob.ID, Name: "Bob", Email: " ANN@example.com"}), repository.ErrConflict)
	require.NoError(t, r.Update(ctx, &model.User{ID: bob.ID, Name: "Robert", Email: "bob@example.com"}))
	require.ErrorIs(t, r.Update(ctx, &model.User{ID: 99, Email: "x@example.com"}), repository.ErrNotFound)

	got, err := r.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "Robert", got.Name)
	assert.Equal(t, bob.CreatedAt, got.CreatedAt)

	require.NoError(t, r.Delete(ctx, ann.ID))
	require.ErrorIs(t, r.Delete(ctx, ann.ID), repository.ErrNotFound)
	all, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, bob.ID, all[0].ID)
}
