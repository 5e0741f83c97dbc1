package repository

import (
	"context"
	"fmt"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ReleaseJobsRepo is the time-indexed queue of deferred seat releases. A job
// row is written in the same transaction as the seat claim and deleted in the
// same transaction as its effect, which makes the deferred release durable
// and exactly-once-effective across restarts.
type ReleaseJobsRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewReleaseJobsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *ReleaseJobsRepo {
	return &ReleaseJobsRepo{db: db, getter: getter}
}

func (r *ReleaseJobsRepo) conn(ctx context.Context) trmsqlx.Tr {
	return r.getter.DefaultTrOrDB(ctx, r.db)
}

func (r *ReleaseJobsRepo) Schedule(ctx context.Context, bookingID uuid.UUID, runAt time.Time) error {
	_, err := r.conn(ctx).ExecContext(ctx, `
	   INSERT INTO release_jobs (booking_id, run_at)
	   VALUES ($1, $2)
	   ON CONFLICT (booking_id) DO NOTHING`,
		bookingID, runAt)
	if err != nil {
		return fmt.Errorf("failed to schedule release job: %w", err)
	}
	return nil
}

// ClaimDue locks up to limit due jobs for this transaction. SKIP LOCKED lets
// concurrent worker instances drain the queue without stepping on each other.
func (r *ReleaseJobsRepo) ClaimDue(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.conn(ctx).QueryxContext(ctx, `
	   SELECT booking_id FROM release_jobs
	   WHERE run_at <= $1
	   ORDER BY run_at
	   LIMIT $2
	   FOR UPDATE SKIP LOCKED`,
		now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to claim due release jobs: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan release job: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func (r *ReleaseJobsRepo) Delete(ctx context.Context, bookingID uuid.UUID) error {
	_, err := r.conn(ctx).ExecContext(ctx,
		`DELETE FROM release_jobs WHERE booking_id = $1`, bookingID)
	if err != nil {
		return fmt.Errorf("failed to delete release job: %w", err)
	}
	return nil
}
