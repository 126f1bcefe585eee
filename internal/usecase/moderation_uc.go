package usecase

import (
	"context"

	"telegram-hosting-bot/internal/domain/ports/repository"
	"telegram-hosting-bot/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ ModerationUseCase = (*moderationUC)(nil)

// ModerationUseCase is the ban set gate consulted by every user-facing flow.
type ModerationUseCase interface {
	Ban(ctx context.Context, tgID int64) error
	Unban(ctx context.Context, tgID int64) error
	IsBanned(ctx context.Context, tgID int64) (bool, error)
	CountBanned(ctx context.Context) (int, error)
}

type moderationUC struct {
	bans repository.ModerationRepository
	log  *zerolog.Logger
}

func NewModerationUseCase(bans repository.ModerationRepository, logger *zerolog.Logger) *moderationUC {
	return &moderationUC{bans: bans, log: logger}
}

func (m *moderationUC) Ban(ctx context.Context, tgID int64) error {
	defer logging.TraceDuration(m.log, "ModerationUC.Ban")()
	if err := m.bans.Ban(ctx, repository.NoTX, tgID); err != nil {
		return err
	}
	m.log.Info().Int64("tg_id", tgID).Msg("user banned")
	return nil
}

func (m *moderationUC) Unban(ctx context.Context, tgID int64) error {
	defer logging.TraceDuration(m.log, "ModerationUC.Unban")()
	if err := m.bans.Unban(ctx, repository.NoTX, tgID); err != nil {
		return err
	}
	m.log.Info().Int64("tg_id", tgID).Msg("user unbanned")
	return nil
}

func (m *moderationUC) IsBanned(ctx context.Context, tgID int64) (bool, error) {
	return m.bans.IsBanned(ctx, repository.NoTX, tgID)
}

func (m *moderationUC) CountBanned(ctx context.Context) (int, error) {
	return m.bans.CountBanned(ctx, repository.NoTX)
}
