package usecase

import (
	"context"

	"telegram-hosting-bot/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// Totals is the operator-facing summary served to the admin console and
// the stats API.
type Totals struct {
	Users       int `json:"users"`
	Banned      int `json:"banned"`
	FilesStored int `json:"files_stored"`
	ActiveToday int `json:"active_today"`
}

type StatsUseCase interface {
	Totals(ctx context.Context) (*Totals, error)
}

type statsUC struct {
	users repository.UserRepository
	bans  repository.ModerationRepository
	usage UsageUseCase

	log *zerolog.Logger
}

func NewStatsUseCase(users repository.UserRepository, bans repository.ModerationRepository, usage UsageUseCase, logger *zerolog.Logger) *statsUC {
	return &statsUC{users: users, bans: bans, usage: usage, log: logger}
}

func (s *statsUC) Totals(ctx context.Context) (*Totals, error) {
	users, err := s.users.CountUsers(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	banned, err := s.bans.CountBanned(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	files, err := s.users.SumFileCounts(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	active, err := s.usage.CountToday(ctx)
	if err != nil {
		return nil, err
	}
	return &Totals{
		Users:       users,
		Banned:      banned,
		FilesStored: files,
		ActiveToday: active,
	}, nil
}
