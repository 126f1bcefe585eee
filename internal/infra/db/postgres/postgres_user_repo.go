package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-hosting-bot/internal/domain"
	"telegram-hosting-bot/internal/domain/model"
	"telegram-hosting-bot/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

const userColumns = `id, telegram_id, username, registered_at, last_active_at, is_admin,
       file_count, referrals, base_limit, referral_reward`

func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (
  id, telegram_id, username, registered_at, last_active_at, is_admin,
  file_count, referrals, base_limit, referral_reward
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
) ON CONFLICT (id) DO UPDATE SET
  telegram_id=$2, username=$3, last_active_at=$5, is_admin=$6,
  file_count=$7, referrals=$8, base_limit=$9, referral_reward=$10;
`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	referrals := u.Stats.Referrals
	if referrals == nil {
		referrals = []int64{}
	}
	_, err = ex.Exec(ctx, q, u.ID, u.TelegramID, u.Username, u.RegisteredAt, u.LastActiveAt, u.IsAdmin,
		u.Stats.FileCount, referrals, u.Stats.BaseLimit, u.Stats.ReferralReward)
	return err
}

func (r *PostgresUserRepo) MarkActive(ctx context.Context, tx repository.Tx, tgID int64, at time.Time) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, `UPDATE users SET last_active_at=$2 WHERE telegram_id=$1;`, tgID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	q := fmt.Sprintf(`SELECT %s FROM users WHERE telegram_id=$1;`, userColumns)
	return r.findOne(ctx, tx, q, tgID)
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	q := fmt.Sprintf(`SELECT %s FROM users WHERE id=$1;`, userColumns)
	return r.findOne(ctx, tx, q, id)
}

func (r *PostgresUserRepo) findOne(ctx context.Context, tx repository.Tx, q string, arg interface{}) (*model.User, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var u model.User
	row := ex.QueryRow(ctx, q, arg)
	if err := row.Scan(&u.ID, &u.TelegramID, &u.Username, &u.RegisteredAt, &u.LastActiveAt, &u.IsAdmin,
		&u.Stats.FileCount, &u.Stats.Referrals, &u.Stats.BaseLimit, &u.Stats.ReferralReward); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PostgresUserRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	q := fmt.Sprintf(`SELECT %s FROM users ORDER BY registered_at;`, userColumns)
	args := []interface{}{}
	if limit > 0 {
		q = fmt.Sprintf(`SELECT %s FROM users ORDER BY registered_at OFFSET $1 LIMIT $2;`, userColumns)
		args = append(args, offset, limit)
	}
	rows, err := ex.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.TelegramID, &u.Username, &u.RegisteredAt, &u.LastActiveAt, &u.IsAdmin,
			&u.Stats.FileCount, &u.Stats.Referrals, &u.Stats.BaseLimit, &u.Stats.ReferralReward); err != nil {
			return nil, err
		}
		out = append(out, &u)
	}
	return out, rows.Err()
}

func (r *PostgresUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COUNT(*) FROM users;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *PostgresUserRepo) SumFileCounts(ctx context.Context, tx repository.Tx) (int, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return 0, err
	}
	var n int
	if err := ex.QueryRow(ctx, `SELECT COALESCE(SUM(file_count),0) FROM users;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sum file counts: %w", err)
	}
	return n, nil
}

func (r *PostgresUserRepo) SetBaseLimitAll(ctx context.Context, tx repository.Tx, limit int) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, `UPDATE users SET base_limit=$1;`, limit)
	return err
}

func (r *PostgresUserRepo) SetReferralRewardAll(ctx context.Context, tx repository.Tx, reward int) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, `UPDATE users SET referral_reward=$1;`, reward)
	return err
}
