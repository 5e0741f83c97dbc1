package repository

import (
	"context"
	"fmt"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type OrphanedPayment struct {
	BookingID  uuid.UUID `db:"booking_id"`
	SessionID  string    `db:"session_id"`
	ReceivedAt time.Time `db:"received_at"`
	RecordedAt time.Time `db:"recorded_at"`
}

// OrphanedPaymentsRepo records payments that completed after their booking
// was released, for manual reconciliation.
type OrphanedPaymentsRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewOrphanedPaymentsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *OrphanedPaymentsRepo {
	return &OrphanedPaymentsRepo{db: db, getter: getter}
}

func (r *OrphanedPaymentsRepo) conn(ctx context.Context) trmsqlx.Tr {
	return r.getter.DefaultTrOrDB(ctx, r.db)
}

func (r *OrphanedPaymentsRepo) Record(ctx context.Context, p OrphanedPayment) error {
	_, err := r.conn(ctx).ExecContext(ctx, `
	   INSERT INTO orphaned_payments (booking_id, session_id, received_at)
	   VALUES ($1, $2, $3)
	   ON CONFLICT DO NOTHING`,
		p.BookingID, p.SessionID, p.ReceivedAt)
	if err != nil {
		return fmt.Errorf("failed to record orphaned payment: %w", err)
	}
	return nil
}

func (r *OrphanedPaymentsRepo) List(ctx context.Context) ([]OrphanedPayment, error) {
	var out []OrphanedPayment
	err := sqlx.SelectContext(ctx, r.conn(ctx), &out,
		`SELECT booking_id, session_id, received_at, recorded_at FROM orphaned_payments ORDER BY recorded_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list orphaned payments: %w", err)
	}
	return out, nil
}
