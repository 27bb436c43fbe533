package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order by Migrate.  Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		username      VARCHAR(64)  NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		first_name    VARCHAR(100) NOT NULL DEFAULT '',
		last_name     VARCHAR(100) NOT NULL DEFAULT '',
		created_at    DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_username (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS concerts (
		id    BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS concert_dates (
		concert_id BIGINT UNSIGNED NOT NULL,
		date_time  DATETIME        NOT NULL,
		PRIMARY KEY (concert_id, date_time),
		CONSTRAINT fk_concert_dates_concert FOREIGN KEY (concert_id) REFERENCES concerts (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS credit_cards (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id    BIGINT UNSIGNED NOT NULL,
		card_type  VARCHAR(16)  NOT NULL,
		name       VARCHAR(255) NOT NULL,
		last4      CHAR(4)      NOT NULL,
		expires_on DATE         NOT NULL,
		created_at DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_credit_cards_user (user_id),
		CONSTRAINT fk_credit_cards_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		hold_id      CHAR(36)        NOT NULL,
		user_id      BIGINT UNSIGNED NOT NULL,
		concert_id   BIGINT UNSIGNED NOT NULL,
		date_time    DATETIME        NOT NULL,
		price_band   VARCHAR(16)     NOT NULL,
		confirmed_at DATETIME        NOT NULL,
		UNIQUE KEY uq_bookings_hold (hold_id),
		KEY idx_bookings_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS booking_seats (
		booking_id  BIGINT UNSIGNED NOT NULL,
		concert_id  BIGINT UNSIGNED NOT NULL,
		date_time   DATETIME        NOT NULL,
		seat_row    VARCHAR(8)      NOT NULL,
		seat_number INT             NOT NULL,
		PRIMARY KEY (booking_id, seat_row, seat_number),
		UNIQUE KEY uq_booking_seats_seat (concert_id, date_time, seat_row, seat_number),
		CONSTRAINT fk_booking_seats_booking FOREIGN KEY (booking_id) REFERENCES bookings (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates missing tables.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	return nil
}
