package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func InitializeDBSchema(db *sqlx.DB) error {
	_, err := db.ExecContext(context.Background(), `
CREATE TABLE IF NOT EXISTS shows (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	movie_title VARCHAR(255) NOT NULL,
	price_cents BIGINT NOT NULL,
	starts_at TIMESTAMP WITH TIME ZONE NOT NULL,
	seat_rows INTEGER NOT NULL,
	seats_per_row INTEGER NOT NULL
);`)
	if err != nil {
		return fmt.Errorf("failed to create shows table: %w", err)
	}

	// The primary key is the one-holder-per-seat invariant: a second claim on
	// the same (show_id, seat) conflicts at write time no matter how the
	// requests interleave.
	_, err = db.ExecContext(context.Background(), `
CREATE TABLE IF NOT EXISTS show_seats (
	show_id UUID NOT NULL REFERENCES shows (id),
	seat VARCHAR(8) NOT NULL,
	booking_id UUID NOT NULL,
	user_id TEXT NOT NULL,
	held_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	PRIMARY KEY (show_id, seat)
);`)
	if err != nil {
		return fmt.Errorf("failed to create show_seats table: %w", err)
	}

	_, err = db.ExecContext(context.Background(), `
CREATE TABLE IF NOT EXISTS bookings (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id TEXT NOT NULL,
	show_id UUID NOT NULL REFERENCES shows (id),
	seats TEXT[] NOT NULL,
	amount_cents BIGINT NOT NULL,
	payment_status VARCHAR(16) NOT NULL DEFAULT 'unpaid',
	payment_link TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
);`)
	if err != nil {
		return fmt.Errorf("failed to create bookings table: %w", err)
	}

	_, err = db.ExecContext(context.Background(), `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL
);`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	_, err = db.ExecContext(context.Background(), `
CREATE TABLE IF NOT EXISTS release_jobs (
	booking_id UUID PRIMARY KEY,
	run_at TIMESTAMP WITH TIME ZONE NOT NULL
);
CREATE INDEX IF NOT EXISTS release_jobs_run_at_idx ON release_jobs (run_at);`)
	if err != nil {
		return fmt.Errorf("failed to create release_jobs table: %w", err)
	}

	_, err = db.ExecContext(context.Background(), `
CREATE TABLE IF NOT EXISTS orphaned_payments (
	booking_id UUID NOT NULL,
	session_id TEXT NOT NULL,
	received_at TIMESTAMP WITH TIME ZONE NOT NULL,
	recorded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
	PRIMARY KEY (booking_id, session_id)
);`)
	if err != nil {
		return fmt.Errorf("failed to create orphaned_payments table: %w", err)
	}

	return nil
}
