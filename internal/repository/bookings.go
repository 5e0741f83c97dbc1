package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	domain "quickshow/internal/domain/bookings"
)

type BookingsRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewBookingsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *BookingsRepo {
	return &BookingsRepo{db: db, getter: getter}
}

func (r *BookingsRepo) conn(ctx context.Context) trmsqlx.Tr {
	return r.getter.DefaultTrOrDB(ctx, r.db)
}

func (r *BookingsRepo) CreateBooking(ctx context.Context, booking domain.Booking) (uuid.UUID, error) {
	var id uuid.UUID

	query := `
	   INSERT INTO bookings (
	      user_id, show_id, seats, amount_cents, payment_status
	   ) VALUES (
	      $1, $2, $3, $4, $5
	   ) RETURNING id`

	err := r.conn(ctx).QueryRowxContext(ctx, query,
		booking.UserID,
		booking.ShowID,
		pq.Array(booking.Seats),
		booking.AmountCents,
		domain.PaymentStatusUnpaid,
	).Scan(&id)

	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create booking: %w", err)
	}

	return id, nil
}

func (r *BookingsRepo) GetBooking(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	return r.getBooking(ctx, id, false)
}

// GetBookingForUpdate locks the booking row for the rest of the transaction.
// The release worker takes this lock before deciding, so a concurrent payment
// mark either lands before the decision or finds the booking gone.
func (r *BookingsRepo) GetBookingForUpdate(ctx context.Context, id uuid.UUID) (domain.Booking, error) {
	return r.getBooking(ctx, id, true)
}

func (r *BookingsRepo) getBooking(ctx context.Context, id uuid.UUID, forUpdate bool) (domain.Booking, error) {
	query := `
	   SELECT
	      id, user_id, show_id, seats, amount_cents, payment_status, payment_link, created_at
	   FROM bookings
	   WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var booking domain.Booking
	var seats pq.StringArray
	err := r.conn(ctx).QueryRowxContext(ctx, query, id).
		Scan(&booking.Id, &booking.UserID, &booking.ShowID, &seats,
			&booking.AmountCents, &booking.PaymentStatus, &booking.PaymentLink, &booking.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, domain.ErrBookingNotFound
	}
	if err != nil {
		return domain.Booking{}, fmt.Errorf("failed to get booking: %w", err)
	}

	booking.Seats = seats
	return booking, nil
}

// MarkPaid transitions the booking from unpaid to paid. It reports
// ErrBookingNotFound when the row is gone and ErrAlreadyPaid when the
// transition already happened, so webhook redeliveries stay idempotent.
func (r *BookingsRepo) MarkPaid(ctx context.Context, id uuid.UUID) error {
	res, err := r.conn(ctx).ExecContext(ctx, `
	   UPDATE bookings
	   SET payment_status = $2
	   WHERE id = $1 AND payment_status = $3`,
		id, domain.PaymentStatusPaid, domain.PaymentStatusUnpaid)
	if err != nil {
		return fmt.Errorf("failed to mark booking paid: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check marked rows: %w", err)
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	err = r.conn(ctx).QueryRowxContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check booking existence: %w", err)
	}
	if !exists {
		return domain.ErrBookingNotFound
	}
	return domain.ErrAlreadyPaid
}

func (r *BookingsRepo) SetPaymentLink(ctx context.Context, id uuid.UUID, link string) error {
	_, err := r.conn(ctx).ExecContext(ctx,
		`UPDATE bookings SET payment_link = $2 WHERE id = $1`, id, link)
	if err != nil {
		return fmt.Errorf("failed to set payment link: %w", err)
	}
	return nil
}

func (r *BookingsRepo) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	return nil
}
