package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-hosting-bot/internal/domain/ports/repository"
)

var _ repository.DailyUsageRepository = (*PostgresUsageRepo)(nil)

// PostgresUsageRepo records which users were seen on which calendar day.
// The (day, telegram_id) pair is unique, so MarkSeen is idempotent.
type PostgresUsageRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUsageRepo(pool *pgxpool.Pool) *PostgresUsageRepo {
	return &PostgresUsageRepo{pool: pool}
}

func (r *PostgresUsageRepo) MarkSeen(ctx context.Context, tx repository.Tx, day time.Time, tgID int64) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx,
		`INSERT INTO daily_usage (day, telegram_id) VALUES ($1, $2) ON CONFLICT (day, telegram_id) DO NOTHING;`,
		day.UTC().Truncate(24*time.Hour), tgID)
	return err
}

func (r *PostgresUsageRepo) CountForDay(ctx context.Context, tx repository.Tx, day time.Time) (int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx,
		`SELECT COUNT(*) FROM daily_usage WHERE day=$1;`,
		day.UTC().Truncate(24*time.Hour)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count daily usage: %w", err)
	}
	return n, nil
}
