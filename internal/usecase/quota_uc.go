package usecase

import (
	"context"
	"errors"
	"fmt"

	"telegram-hosting-bot/internal/domain"
	"telegram-hosting-bot/internal/domain/model"
	"telegram-hosting-bot/internal/domain/ports/repository"
	"telegram-hosting-bot/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ QuotaUseCase = (*quotaUC)(nil)

// QuotaUseCase owns the upload ledger: how many slots a user has and how
// many are consumed.
type QuotaUseCase interface {
	// Stats never fails on unknown users; absence yields zero-valued
	// defaults with the configured base limit.
	Stats(ctx context.Context, tgID int64) (*model.UserStats, error)
	CanUpload(ctx context.Context, tgID int64) (bool, error)
	// AdjustFileCount applies delta (+1 on stored upload, -1 on delete)
	// inside a serializable transaction. +1 re-checks the allowance, so
	// concurrent uploads past the limit fail with ErrQuotaExceeded.
	AdjustFileCount(ctx context.Context, tgID int64, delta int) error
	// AddSlots raises one user's base limit by n.
	AddSlots(ctx context.Context, tgID int64, n int) (*model.UserStats, error)
	// SetDefaultBaseLimit / SetDefaultReferralReward rewrite the field on
	// every user record.
	SetDefaultBaseLimit(ctx context.Context, v int) error
	SetDefaultReferralReward(ctx context.Context, v int) error
}

type quotaUC struct {
	users            repository.UserRepository
	tm               repository.TransactionManager
	defaultBaseLimit int
	defaultReward    int
	log              *zerolog.Logger
}

func NewQuotaUseCase(users repository.UserRepository, tm repository.TransactionManager, defaultBaseLimit, defaultReward int, logger *zerolog.Logger) *quotaUC {
	return &quotaUC{
		users:            users,
		tm:               tm,
		defaultBaseLimit: defaultBaseLimit,
		defaultReward:    defaultReward,
		log:              logger,
	}
}

func (q *quotaUC) Stats(ctx context.Context, tgID int64) (*model.UserStats, error) {
	defer logging.TraceDuration(q.log, "QuotaUC.Stats")()
	user, err := q.users.FindByTelegramID(ctx, repository.NoTX, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &model.UserStats{
				BaseLimit:      q.defaultBaseLimit,
				ReferralReward: q.defaultReward,
			}, nil
		}
		return nil, fmt.Errorf("load stats: %w", err)
	}
	stats := user.Stats
	return &stats, nil
}

func (q *quotaUC) CanUpload(ctx context.Context, tgID int64) (bool, error) {
	stats, err := q.Stats(ctx, tgID)
	if err != nil {
		return false, err
	}
	return stats.FileCount < stats.AllowedSlots(), nil
}

func (q *quotaUC) AdjustFileCount(ctx context.Context, tgID int64, delta int) error {
	defer logging.TraceDuration(q.log, "QuotaUC.AdjustFileCount")()
	if delta != 1 && delta != -1 {
		return domain.ErrInvalidArgument
	}

	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	return q.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		user, err := q.users.FindByTelegramID(ctx, tx, tgID)
		if err != nil {
			return err
		}
		next := user.Stats.FileCount + delta
		if next < 0 {
			return domain.ErrInvalidArgument
		}
		if delta > 0 && next > user.Stats.AllowedSlots() {
			return domain.ErrQuotaExceeded
		}
		user.Stats.FileCount = next
		return q.users.Save(ctx, tx, user)
	})
}

func (q *quotaUC) AddSlots(ctx context.Context, tgID int64, n int) (*model.UserStats, error) {
	defer logging.TraceDuration(q.log, "QuotaUC.AddSlots")()
	if n <= 0 {
		return nil, domain.ErrInvalidArgument
	}

	var stats model.UserStats
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := q.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		user, err := q.users.FindByTelegramID(ctx, tx, tgID)
		if err != nil {
			return err
		}
		user.Stats.BaseLimit += n
		if err := q.users.Save(ctx, tx, user); err != nil {
			return err
		}
		stats = user.Stats
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (q *quotaUC) SetDefaultBaseLimit(ctx context.Context, v int) error {
	defer logging.TraceDuration(q.log, "QuotaUC.SetDefaultBaseLimit")()
	if v < 1 {
		return domain.ErrInvalidArgument
	}
	return q.users.SetBaseLimitAll(ctx, repository.NoTX, v)
}

func (q *quotaUC) SetDefaultReferralReward(ctx context.Context, v int) error {
	defer logging.TraceDuration(q.log, "QuotaUC.SetDefaultReferralReward")()
	if v < 1 {
		return domain.ErrInvalidArgument
	}
	return q.users.SetReferralRewardAll(ctx, repository.NoTX, v)
}
