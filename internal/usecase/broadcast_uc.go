package usecase

import (
	"context"
	"time"

	"telegram-hosting-bot/internal/domain/model"
	"telegram-hosting-bot/internal/domain/ports/adapter"
	"telegram-hosting-bot/internal/domain/ports/repository"
	"telegram-hosting-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ BroadcastUseCase = (*broadcastUC)(nil)

// BroadcastUseCase fans one admin-authored message out to every known user.
type BroadcastUseCase interface {
	// Run walks the recipient list sequentially with a fixed inter-send
	// delay (the throughput cap Telegram's rate limit asks for). A failed
	// send is logged and counted, never aborts the sweep. The report
	// partitions recipients exactly: Sent+Failed+Skipped == total.
	Run(ctx context.Context, msg model.OutboundMessage) (model.BroadcastReport, error)
}

type broadcastUC struct {
	users        repository.UserRepository
	bot          adapter.BotAdapter
	sendInterval time.Duration
	log          *zerolog.Logger
}

func NewBroadcastUseCase(users repository.UserRepository, bot adapter.BotAdapter, sendInterval time.Duration, logger *zerolog.Logger) *broadcastUC {
	if sendInterval <= 0 {
		sendInterval = 100 * time.Millisecond
	}
	return &broadcastUC{
		users:        users,
		bot:          bot,
		sendInterval: sendInterval,
		log:          logger,
	}
}

func (uc *broadcastUC) Run(ctx context.Context, msg model.OutboundMessage) (model.BroadcastReport, error) {
	var report model.BroadcastReport

	recipients, err := uc.users.List(ctx, repository.NoTX, 0, 0)
	if err != nil {
		uc.log.Error().Err(err).Msg("Failed to fetch users for broadcast")
		return report, err
	}

	modality := msg.Modality()
	uc.log.Info().Int("recipients", len(recipients)).Int("modality", int(modality)).Msg("Starting broadcast sweep")

	throttle := time.NewTicker(uc.sendInterval)
	defer throttle.Stop()

	for _, user := range recipients {
		if modality == model.ModalityUnsupported {
			report.Skipped++
			metrics.IncBroadcast("skipped")
			continue
		}

		select {
		case <-ctx.Done():
			return report, ctx.Err()
		case <-throttle.C:
		}

		if err := uc.deliver(ctx, user.TelegramID, msg, modality); err != nil {
			uc.log.Warn().Err(err).Int64("tg_id", user.TelegramID).Msg("Broadcast send failed")
			report.Failed++
			metrics.IncBroadcast("failed")
			continue
		}
		report.Sent++
		metrics.IncBroadcast("sent")
	}

	uc.log.Info().Int("sent", report.Sent).Int("failed", report.Failed).Int("skipped", report.Skipped).Msg("Broadcast sweep finished")
	return report, nil
}

func (uc *broadcastUC) deliver(ctx context.Context, tgID int64, msg model.OutboundMessage, modality model.Modality) error {
	switch modality {
	case model.ModalityPhoto:
		return uc.bot.SendPhoto(ctx, tgID, msg.PhotoID, msg.Caption)
	case model.ModalityVideo:
		return uc.bot.SendVideo(ctx, tgID, msg.VideoID, msg.Caption)
	default:
		return uc.bot.SendMessage(ctx, tgID, msg.Text)
	}
}
