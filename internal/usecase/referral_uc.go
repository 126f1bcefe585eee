package usecase

import (
	"context"
	"fmt"

	"telegram-hosting-bot/internal/domain"
	"telegram-hosting-bot/internal/domain/model"
	"telegram-hosting-bot/internal/domain/ports/adapter"
	"telegram-hosting-bot/internal/domain/ports/repository"
	"telegram-hosting-bot/internal/infra/logging"
	"telegram-hosting-bot/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ ReferralUseCase = (*referralUC)(nil)

// ReferralUseCase records referrer→referee edges and credits the referrer.
type ReferralUseCase interface {
	// Attribute appends refereeID to the referrer's list. It is called at
	// the referee's first contact only. A second call for the same pair is
	// a no-op; a referee equal to the referrer is rejected.
	Attribute(ctx context.Context, referrerID, refereeID int64) error
}

type referralUC struct {
	users repository.UserRepository
	tm    repository.TransactionManager
	bot   adapter.BotAdapter
	// congratsAnimation is a Telegram file id sent alongside the credit
	// notification; empty disables the animation.
	congratsAnimation string
	log               *zerolog.Logger
}

func NewReferralUseCase(users repository.UserRepository, tm repository.TransactionManager, bot adapter.BotAdapter, congratsAnimation string, logger *zerolog.Logger) *referralUC {
	return &referralUC{
		users:             users,
		tm:                tm,
		bot:               bot,
		congratsAnimation: congratsAnimation,
		log:               logger,
	}
}

func (r *referralUC) Attribute(ctx context.Context, referrerID, refereeID int64) error {
	defer logging.TraceDuration(r.log, "ReferralUC.Attribute")()
	if referrerID == refereeID {
		return domain.ErrSelfReferral
	}

	var stats model.UserStats
	attributed := false
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err := r.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		referrer, err := r.users.FindByTelegramID(ctx, tx, referrerID)
		if err != nil {
			return err
		}
		if referrer.Stats.HasReferred(refereeID) {
			// duplicate start event, credit stays as-is
			return nil
		}
		referrer.Stats.Referrals = append(referrer.Stats.Referrals, refereeID)
		if err := r.users.Save(ctx, tx, referrer); err != nil {
			return err
		}
		stats = referrer.Stats
		attributed = true
		return nil
	})
	if err != nil {
		return fmt.Errorf("attribute referral: %w", err)
	}
	if !attributed {
		return nil
	}
	metrics.IncReferral()

	// Best-effort notification: the credit is already durable, a failed
	// send must not roll it back.
	r.notify(ctx, referrerID, stats)
	return nil
}

func (r *referralUC) notify(ctx context.Context, referrerID int64, stats model.UserStats) {
	text := fmt.Sprintf("🎉 Someone joined with your link! You now have %d upload slots (%d used).",
		stats.AllowedSlots(), stats.FileCount)
	if err := r.bot.SendMessage(ctx, referrerID, text); err != nil {
		r.log.Warn().Err(err).Int64("tg_id", referrerID).Msg("referral notification failed")
		return
	}
	if r.congratsAnimation == "" {
		return
	}
	if err := r.bot.SendAnimation(ctx, referrerID, r.congratsAnimation); err != nil {
		r.log.Warn().Err(err).Int64("tg_id", referrerID).Msg("referral animation failed")
	}
}
