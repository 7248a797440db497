// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as the
// service package to distinguish between different failure scenarios
// without depending on a particular storage driver.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by key matches no row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert or update would violate a unique
// constraint, such as registering an email twice.
var ErrConflict = errors.New("conflict")

// MySQL server error numbers for unique key violations and for deleting a
// row that other rows still reference.
const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
)

// notFound maps sql.ErrNoRows to ErrNotFound and passes other errors through.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// duplicate maps a MySQL duplicate-key error to ErrConflict.
func duplicate(err error) error { return mysqlConflict(err, mysqlDuplicateEntry) }

// referenced maps a foreign key violation on delete to ErrConflict.
func referenced(err error) error { return mysqlConflict(err, mysqlRowIsReferenced) }

func mysqlConflict(err error, number uint16) error {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == number {
		return ErrConflict
	}
	return err
}
