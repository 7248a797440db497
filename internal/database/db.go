// Package database opens the MySQL connection and creates the schema.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/Artem9968/shareit/internal/config"
)

// Open connects to MySQL and verifies the connection.
func Open(c config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", DSN(c))
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// DSN renders the driver connection string.  parseTime maps DATETIME to
// time.Time and loc=UTC keeps stored instants in UTC.
func DSN(c config.DBConfig) string {
	auth := c.User
	if c.Pass != "" {
		auth = fmt.Sprintf("%s:%s", c.User, c.Pass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, c.Host, c.Port, c.Name)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		email VARCHAR(512) NOT NULL,
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS item_requests (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		requestor_id BIGINT UNSIGNED NOT NULL,
		description VARCHAR(1000) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		KEY idx_requests_requestor (requestor_id, created_at),
		CONSTRAINT fk_requests_user FOREIGN KEY (requestor_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS items (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		owner_id BIGINT UNSIGNED NOT NULL,
		name VARCHAR(255) NOT NULL,
		description VARCHAR(1000) NOT NULL,
		is_available BOOLEAN NOT NULL,
		request_id BIGINT UNSIGNED NULL,
		KEY idx_items_owner (owner_id),
		CONSTRAINT fk_items_owner FOREIGN KEY (owner_id) REFERENCES users (id),
		CONSTRAINT fk_items_request FOREIGN KEY (request_id) REFERENCES item_requests (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		item_id BIGINT UNSIGNED NOT NULL,
		booker_id BIGINT UNSIGNED NOT NULL,
		start_at DATETIME(6) NOT NULL,
		end_at DATETIME(6) NOT NULL,
		status ENUM('WAITING','APPROVED','REJECTED','CANCELED') NOT NULL DEFAULT 'WAITING',
		created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		KEY idx_bookings_booker_start (booker_id, start_at),
		KEY idx_bookings_item_start (item_id, start_at),
		KEY idx_bookings_item_booker_end (item_id, booker_id, end_at),
		CONSTRAINT fk_bookings_item FOREIGN KEY (item_id) REFERENCES items (id),
		CONSTRAINT fk_bookings_booker FOREIGN KEY (booker_id) REFERENCES users (id),
		CONSTRAINT chk_bookings_interval CHECK (start_at < end_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS comments (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		item_id BIGINT UNSIGNED NOT NULL,
		author_id BIGINT UNSIGNED NOT NULL,
		text VARCHAR(2000) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		KEY idx_comments_item (item_id, created_at),
		CONSTRAINT fk_comments_item FOREIGN KEY (item_id) REFERENCES items (id),
		CONSTRAINT fk_comments_author FOREIGN KEY (author_id) REFERENCES users (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing tables.  It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
