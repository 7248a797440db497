package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Artem9968/shareit/internal/config"
)

func TestDSN(t *testing.T) {
	c := config.DBConfig{User: "app", Host: "db", Port: "3306", Name: "shareit"}
	assert.Equal(t, "app@tcp(db:3306)/shareit?charset=utf8mb4&parseTime=true&loc=UTC", DSN(c))

	c.Pass = "secret"
	assert.Equal(t, "app:secret@tcp(db:3306)/shareit?charset=utf8mb4&parseTime=true&loc=UTC", DSN(c))
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"users", "item_requests", "items", "bookings", "comments"} {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS " + table + " ").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, Migrate(context.Background(), db))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnError(errors.New("access denied"))
	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}
