package repository

import (
	"context"
	"fmt"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// SeatsRepo owns the show_seats table. All seat mutation goes through Claim
// and ReleaseByBooking; nothing else writes to the table.
type SeatsRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewSeatsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *SeatsRepo {
	return &SeatsRepo{db: db, getter: getter}
}

func (r *SeatsRepo) conn(ctx context.Context) trmsqlx.Tr {
	return r.getter.DefaultTrOrDB(ctx, r.db)
}

// Claim attempts to take every seat in the list for the booking and returns
// the labels it actually took. A seat already present in show_seats is
// skipped by ON CONFLICT, so a shorter result than the request means another
// booking holds part of the selection; the caller is expected to roll back
// its transaction in that case.
func (r *SeatsRepo) Claim(ctx context.Context, showID, bookingID uuid.UUID, userID string, seats []string) ([]string, error) {
	query := `
	   INSERT INTO show_seats (show_id, seat, booking_id, user_id)
	   SELECT $1, unnest($2::text[]), $3, $4
	   ON CONFLICT DO NOTHING
	   RETURNING seat`

	rows, err := r.conn(ctx).QueryxContext(ctx, query, showID, pq.Array(seats), bookingID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim seats: %w", err)
	}
	defer rows.Close()

	var claimed []string
	for rows.Next() {
		var seat string
		if err := rows.Scan(&seat); err != nil {
			return nil, fmt.Errorf("failed to scan claimed seat: %w", err)
		}
		claimed = append(claimed, seat)
	}

	return claimed, rows.Err()
}

// ReleaseByBooking frees every seat held by the booking. Releasing a booking
// that holds nothing is a no-op.
func (r *SeatsRepo) ReleaseByBooking(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	res, err := r.conn(ctx).ExecContext(ctx,
		`DELETE FROM show_seats WHERE booking_id = $1`, bookingID)
	if err != nil {
		return 0, fmt.Errorf("failed to release seats: %w", err)
	}
	return res.RowsAffected()
}

func (r *SeatsRepo) OccupiedSeats(ctx context.Context, showID uuid.UUID) ([]string, error) {
	var seats []string
	err := sqlx.SelectContext(ctx, r.conn(ctx), &seats,
		`SELECT seat FROM show_seats WHERE show_id = $1 ORDER BY seat`, showID)
	if err != nil {
		return nil, fmt.Errorf("failed to list occupied seats: %w", err)
	}
	return seats, nil
}

// HolderIDs returns the distinct users holding at least one seat of the show.
func (r *SeatsRepo) HolderIDs(ctx context.Context, showID uuid.UUID) ([]string, error) {
	var ids []string
	err := sqlx.SelectContext(ctx, r.conn(ctx), &ids,
		`SELECT DISTINCT user_id FROM show_seats WHERE show_id = $1`, showID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seat holders: %w", err)
	}
	return ids, nil
}
