package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Artem9968/shareit/internal/model"
)

func newSqlx(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	db, mock := newSqlx(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users (name, email) VALUES (?, ?)")).
		WithArgs("Ann", "ann@example.com").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repo.Create(context.Background(), &model.User{Name: "Ann", Email: " Ann@Example.com "})
	require.ErrorIs(t, err, ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateAndGet(t *testing.T) {
	db, mock := newSqlx(t)
	repo := NewUserRepo(db)
	created := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(4, 1))
	mock.ExpectQuery("SELECT id, name, email, created_at FROM users WHERE id = ?").
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at"}).
			AddRow(4, "Ann", "ann@example.com", created))
	mock.ExpectQuery("FROM users WHERE id = ?").WithArgs(uint64(5)).WillReturnError(sql.ErrNoRows)

	u := &model.User{Name: "Ann", Email: "ann@example.com"}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, uint64(4), u.ID)

	got, err := repo.GetByID(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)
	assert.Equal(t, created, got.CreatedAt)

	_, err = repo.GetByID(context.Background(), 5)
	require.ErrorIs(t, err, ErrNotFound)
}

var itemCols = []string{"id", "owner_id", "name", "description", "is_available", "request_id"}

func TestItemSearchEscapesPattern(t *testing.T) {
	db, mock := newSqlx(t)
	repo := NewItemRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE is_available = TRUE AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)")).
		WithArgs(`%50\%\_off%`, `%50\%\_off%`, 10, 0).
		WillReturnError(sql.ErrConnDone)
	_, err := repo.Search(context.Background(), "50%_OFF", model.Page{Limit: 10})
	require.Error(t, err)

	mock.ExpectQuery("LIKE").
		WithArgs("%drill%", "%drill%", 10, 10).
		WillReturnRows(sqlmock.NewRows(itemCols).
			AddRow(1, 2, "Drill", "Cordless", true, nil).
			AddRow(3, 2, "Drill bits", "Set", true, 9))
	got, err := repo.Search(context.Background(), "Drill", model.Page{Offset: 10, Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Nil(t, got[0].RequestID)
	require.NotNil(t, got[1].RequestID)
	assert.Equal(t, uint64(9), *got[1].RequestID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\%b\_c\\d`, escapeLike(`a%b_c\d`))
}

func TestItemUpdateMissing(t *testing.T) {
	db, mock := newSqlx(t)
	repo := NewItemRepo(db)

	mock.ExpectExec("UPDATE items SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM items WHERE id = ?").WithArgs(uint64(8)).WillReturnError(sql.ErrNoRows)

	err := repo.Update(context.Background(), &model.Item{ID: 8, Name: "x"})
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestItemUpdateUnchangedRow(t *testing.T) {
	db, mock := newSqlx(t)
	repo := NewItemRepo(db)

	mock.ExpectExec("UPDATE items SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM items WHERE id = ?").WithArgs(uint64(8)).
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(8, 1, "x", "y", true, nil))

	require.NoError(t, repo.Update(context.Background(), &model.Item{ID: 8, Name: "x", Description: "y", Available: true}))
}

func TestItemListIDsByOwner(t *testing.T) {
	db, mock := newSqlx(t)
	repo := NewItemRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM items WHERE owner_id = ? ORDER BY id")).
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(5))

	ids, err := repo.ListIDsByOwner(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 5}, ids)
}

func TestCommentAndRequestLists(t *testing.T) {
	db, mock := newSqlx(t)
	created := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM comments WHERE item_id = \\? ORDER BY created_at, id").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "item_id", "author_id", "text", "created_at"}).
			AddRow(1, 1, 2, "nice", created))
	mock.ExpectQuery("FROM item_requests WHERE requestor_id = \\? ORDER BY created_at DESC, id DESC").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "requestor_id", "description", "created_at"}).
			AddRow(3, 2, "ladder", created))

	comments, err := NewCommentRepo(db).ListByItem(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "nice", comments[0].Text)

	reqs, err := NewRequestRepo(db).ListByRequestor(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "ladder", reqs[0].Description)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdate(t *testing.T) {
	db, mock := newSqlx(t)
	repo := NewUserRepo(db)
	q := regexp.QuoteMeta("UPDATE users SET name = ?, email = ? WHERE id = ?")

	mock.ExpectExec(q).WithArgs("Ann", "ann@example.com", uint64(1)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	err := repo.Update(context.Background(), &model.User{ID: 1, Name: "Ann", Email: "ANN@example.com"})
	require.ErrorIs(t, err, ErrConflict)

	mock.ExpectExec(q).WithArgs("Ann", "ann@example.com", uint64(9)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM users WHERE id = ?").WithArgs(uint64(9)).WillReturnError(sql.ErrNoRows)
	err = repo.Update(context.Background(), &model.User{ID: 9, Name: "Ann", Email: "ann@example.com"})
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDelete(t *testing.T) {
	db, mock := newSqlx(t)
	repo := NewUserRepo(db)
	q := regexp.QuoteMeta("DELETE FROM users WHERE id = ?")

	mock.ExpectExec(q).WithArgs(uint64(1)).
		WillReturnError(&mysql.MySQLError{Number: 1451, Message: "Cannot delete or update a parent row"})
	mock.ExpectExec(q).WithArgs(uint64(2)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q).WithArgs(uint64(3)).WillReturnResult(sqlmock.NewResult(0, 1))

	require.ErrorIs(t, repo.Delete(context.Background(), 1), ErrConflict)
	require.ErrorIs(t, repo.Delete(context.Background(), 2), ErrNotFound)
	require.NoError(t, repo.Delete(context.Background(), 3))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserList(t *testing.T) {
	db, mock := newSqlx(t)
	created := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "created_at"}).
			AddRow(1, "Ann", "ann@example.com", created).
			AddRow(2, "Bob", "bob@example.com", created))

	got, err := NewUserRepo(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Bob", got[1].Name)
}

func TestItemListByRequest(t *testing.T) {
	db, mock := newSqlx(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM items WHERE request_id = ? ORDER BY id")).
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows(itemCols).AddRow(8, 2, "Ladder", "3m", true, 4))

	got, err := NewItemRepo(db).ListByRequest(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.NotNil(t, got[0].RequestID)
	assert.Equal(t, uint64(4), *got[0].RequestID)
}
