package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-hosting-bot/internal/domain/ports/repository"
)

var _ repository.ModerationRepository = (*PostgresModerationRepo)(nil)

// PostgresModerationRepo persists the ban set so a restart keeps bans.
type PostgresModerationRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresModerationRepo(pool *pgxpool.Pool) *PostgresModerationRepo {
	return &PostgresModerationRepo{pool: pool}
}

func (r *PostgresModerationRepo) Ban(ctx context.Context, tx repository.Tx, tgID int64) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, `INSERT INTO banned_users (telegram_id, banned_at) VALUES ($1, now()) ON CONFLICT (telegram_id) DO NOTHING;`, tgID)
	return err
}

func (r *PostgresModerationRepo) Unban(ctx context.Context, tx repository.Tx, tgID int64) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, `DELETE FROM banned_users WHERE telegram_id=$1;`, tgID)
	return err
}

func (r *PostgresModerationRepo) IsBanned(ctx context.Context, tx repository.Tx, tgID int64) (bool, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}
	var banned bool
	if err := ex.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM banned_users WHERE telegram_id=$1);`, tgID).Scan(&banned); err != nil {
		return false, fmt.Errorf("is banned: %w", err)
	}
	return banned, nil
}

func (r *PostgresModerationRepo) CountBanned(ctx context.Context, tx repository.Tx) (int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM banned_users;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count banned: %w", err)
	}
	return n, nil
}
