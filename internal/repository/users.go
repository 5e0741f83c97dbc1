package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	domain "quickshow/internal/domain/users"
)

type UsersRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewUsersRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *UsersRepo {
	return &UsersRepo{db: db, getter: getter}
}

func (r *UsersRepo) conn(ctx context.Context) trmsqlx.Tr {
	return r.getter.DefaultTrOrDB(ctx, r.db)
}

// UpsertUser covers both user.created and user.updated from the identity
// provider; deliveries may arrive out of order.
func (r *UsersRepo) UpsertUser(ctx context.Context, user domain.User) error {
	_, err := r.conn(ctx).ExecContext(ctx, `
	   INSERT INTO users (id, name, email)
	   VALUES ($1, $2, $3)
	   ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email`,
		user.Id, user.Name, user.Email)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (r *UsersRepo) DeleteUser(ctx context.Context, id string) error {
	_, err := r.conn(ctx).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (r *UsersRepo) GetUser(ctx context.Context, id string) (domain.User, error) {
	var user domain.User
	err := r.conn(ctx).QueryRowxContext(ctx,
		`SELECT id, name, email FROM users WHERE id = $1`, id).
		Scan(&user.Id, &user.Name, &user.Email)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (r *UsersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := sqlx.SelectContext(ctx, r.conn(ctx), &users,
		`SELECT id, name, email FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (r *UsersRepo) ListUsersByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var users []domain.User
	err := sqlx.SelectContext(ctx, r.conn(ctx), &users,
		`SELECT id, name, email FROM users WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list users by ids: %w", err)
	}
	return users, nil
}
