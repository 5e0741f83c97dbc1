package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	domain "quickshow/internal/domain/shows"
)

type ShowsRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewShowsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *ShowsRepo {
	return &ShowsRepo{db: db, getter: getter}
}

func (r *ShowsRepo) conn(ctx context.Context) trmsqlx.Tr {
	return r.getter.DefaultTrOrDB(ctx, r.db)
}

func (r *ShowsRepo) CreateShow(ctx context.Context, show domain.Show) (uuid.UUID, error) {
	var id uuid.UUID

	query := `
	   INSERT INTO shows (
	      movie_title, price_cents, starts_at, seat_rows, seats_per_row
	   ) VALUES (
	      $1, $2, $3, $4, $5
	   ) RETURNING id`

	err := r.conn(ctx).QueryRowxContext(ctx, query,
		show.MovieTitle,
		show.PriceCents,
		show.StartsAt,
		show.SeatRows,
		show.SeatsPerRow,
	).Scan(&id)

	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create show: %w", err)
	}

	return id, nil
}

func (r *ShowsRepo) GetShow(ctx context.Context, id uuid.UUID) (domain.Show, error) {
	var show domain.Show

	query := `
	   SELECT
	      id, movie_title, price_cents, starts_at, seat_rows, seats_per_row
	   FROM shows
	   WHERE id = $1`

	err := r.conn(ctx).QueryRowxContext(ctx, query, id).
		Scan(&show.Id, &show.MovieTitle, &show.PriceCents, &show.StartsAt, &show.SeatRows, &show.SeatsPerRow)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Show{}, domain.ErrShowNotFound
	}
	if err != nil {
		return domain.Show{}, fmt.Errorf("failed to get show: %w", err)
	}

	return show, nil
}

// ListStartingBetween returns shows whose start time falls inside [from, to].
// Used by the reminder job.
func (r *ShowsRepo) ListStartingBetween(ctx context.Context, from, to time.Time) ([]domain.Show, error) {
	query := `
	   SELECT
	      id, movie_title, price_cents, starts_at, seat_rows, seats_per_row
	   FROM shows
	   WHERE starts_at >= $1 AND starts_at <= $2
	   ORDER BY starts_at`

	rows, err := r.conn(ctx).QueryxContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list shows: %w", err)
	}
	defer rows.Close()

	var out []domain.Show
	for rows.Next() {
		var show domain.Show
		if err := rows.Scan(&show.Id, &show.MovieTitle, &show.PriceCents, &show.StartsAt, &show.SeatRows, &show.SeatsPerRow); err != nil {
			return nil, fmt.Errorf("failed to scan show: %w", err)
		}
		out = append(out, show)
	}

	return out, rows.Err()
}
