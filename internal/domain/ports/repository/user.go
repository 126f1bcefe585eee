package repository

import (
	"context"
	"time"

	"telegram-hosting-bot/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByTelegramID(ctx context.Context, tx Tx, tgID int64) (*model.User, error)
	// MarkActive updates last_active_at only. It must never write any
	// other field: it runs outside a transaction on every inbound
	// message and would otherwise race the quota ledger.
	MarkActive(ctx context.Context, tx Tx, tgID int64, at time.Time) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	// List returns all users when limit is 0.
	List(ctx context.Context, tx Tx, offset, limit int) ([]*model.User, error)
	CountUsers(ctx context.Context, tx Tx) (int, error)
	SumFileCounts(ctx context.Context, tx Tx) (int, error)
	// SetBaseLimitAll / SetReferralRewardAll rewrite the field on every
	// user record (admin broadcast overrides).
	SetBaseLimitAll(ctx context.Context, tx Tx, limit int) error
	SetReferralRewardAll(ctx context.Context, tx Tx, reward int) error
}
