package repository

import (
	"context"
	"time"
)

// DailyUsageRepository counts distinct users seen per calendar day.
// MarkSeen is idempotent: one user counts once per day.
type DailyUsageRepository interface {
	MarkSeen(ctx context.Context, tx Tx, day time.Time, tgID int64) error
	CountForDay(ctx context.Context, tx Tx, day time.Time) (int, error)
}
