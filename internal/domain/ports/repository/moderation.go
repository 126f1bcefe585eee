package repository

import "context"

// ModerationRepository is the persisted ban set. A process restart must not
// silently unban anyone, so this lives in durable storage.
type ModerationRepository interface {
	Ban(ctx context.Context, tx Tx, tgID int64) error
	Unban(ctx context.Context, tx Tx, tgID int64) error
	IsBanned(ctx context.Context, tx Tx, tgID int64) (bool, error)
	CountBanned(ctx context.Context, tx Tx) (int, error)
}
