package usecase

import (
	"context"
	"time"

	"telegram-hosting-bot/internal/domain/ports/repository"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ UsageUseCase = (*usageUC)(nil)

// UsageUseCase tracks distinct users seen per calendar day.
type UsageUseCase interface {
	// MarkSeen is idempotent per (day, user). Callers treat failures as
	// non-fatal; the counter is informational.
	MarkSeen(ctx context.Context, tgID int64) error
	CountToday(ctx context.Context) (int, error)
}

type usageUC struct {
	usage repository.DailyUsageRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewUsageUseCase(usage repository.DailyUsageRepository, tm repository.TransactionManager, logger *zerolog.Logger) *usageUC {
	return &usageUC{usage: usage, tm: tm, log: logger}
}

func (u *usageUC) MarkSeen(ctx context.Context, tgID int64) error {
	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		return u.usage.MarkSeen(ctx, tx, time.Now(), tgID)
	})
}

func (u *usageUC) CountToday(ctx context.Context) (int, error) {
	return u.usage.CountForDay(ctx, repository.NoTX, time.Now())
}
