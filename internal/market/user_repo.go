package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userCols = `id, email, username, reputation_score, verified, banned_at, created_at, updated_at`

type UserRepo struct{ DB *pgxpool.Pool }

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.ReputationScore,
		&u.Verified, &u.BannedAt, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (*User, error) {
	return scanUser(r.DB.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

// EnsureUser inserts the actor on first sight, deriving the username from
// the email local part; subsequent calls only touch updated_at. Safe to call
// on every authenticated request.
func (r *UserRepo) EnsureUser(ctx context.Context, id, email string) (*User, error) {
	return scanUser(r.DB.QueryRow(ctx, `
		INSERT INTO users (id, email, username)
		VALUES ($1, $2, split_part($2, '@', 1))
		ON CONFLICT (id) DO UPDATE SET updated_at = now()
		RETURNING `+userCols,
		id, email))
}
