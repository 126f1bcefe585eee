package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"telegram-hosting-bot/internal/domain"
	"telegram-hosting-bot/internal/domain/model"
	"telegram-hosting-bot/internal/domain/ports/adapter"
	"telegram-hosting-bot/internal/domain/ports/repository"
	"telegram-hosting-bot/internal/infra/logging"
	"telegram-hosting-bot/internal/usecase"

	"github.com/rs/zerolog"
)

// BotFacade composes usecases into high-level bot commands.
// Keep the facade methods returning strings so the Telegram adapter just
// forwards them to the chat. The facade also owns the admin conversation
// state machine: menu actions arm a step, the admin's next free-form
// message consumes it.
type BotFacade struct {
	UserUC       usecase.UserUseCase
	QuotaUC      usecase.QuotaUseCase
	ReferralUC   usecase.ReferralUseCase
	ModerationUC usecase.ModerationUseCase
	FileUC       usecase.FileUseCase
	BroadcastUC  usecase.BroadcastUseCase
	StatsUC      usecase.StatsUseCase

	states      repository.StateRepository
	bot         adapter.BotAdapter
	botUsername string
	log         *zerolog.Logger
}

func NewBotFacade(
	userUC usecase.UserUseCase,
	quotaUC usecase.QuotaUseCase,
	referralUC usecase.ReferralUseCase,
	moderationUC usecase.ModerationUseCase,
	fileUC usecase.FileUseCase,
	broadcastUC usecase.BroadcastUseCase,
	statsUC usecase.StatsUseCase,
	states repository.StateRepository,
	bot adapter.BotAdapter,
	botUsername string,
	logger *zerolog.Logger,
) *BotFacade {
	return &BotFacade{
		UserUC:       userUC,
		QuotaUC:      quotaUC,
		ReferralUC:   referralUC,
		ModerationUC: moderationUC,
		FileUC:       fileUC,
		BroadcastUC:  broadcastUC,
		StatsUC:      statsUC,
		states:       states,
		bot:          bot,
		botUsername:  botUsername,
		log:          logger,
	}
}

// ReferralLink builds the deep link a user shares to earn slots.
func (b *BotFacade) ReferralLink(tgID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=%d", b.botUsername, tgID)
}

// HandleStart registers or fetches the user. On the very first contact a
// start payload is taken as the referrer's id and attributed; attribution
// failures are logged but never break the welcome.
func (b *BotFacade) HandleStart(ctx context.Context, tgID int64, username, payload string) (string, error) {
	user, created, err := b.UserUC.RegisterOrFetch(ctx, tgID, username)
	if err != nil {
		return "", fmt.Errorf("register/fetch user: %w", err)
	}

	if created && strings.TrimSpace(payload) != "" {
		referrerID, perr := strconv.ParseInt(strings.TrimSpace(payload), 10, 64)
		if perr != nil {
			b.log.Debug().Str("payload", payload).Msg("ignoring malformed start payload")
		} else if aerr := b.ReferralUC.Attribute(ctx, referrerID, tgID); aerr != nil {
			b.log.Warn().Err(aerr).Int64("referrer", referrerID).Int64("referee", tgID).Msg("referral attribution failed")
		}
	}

	stats := user.Stats
	return fmt.Sprintf(
		"Hello %s!\nYou can host small HTML or ZIP files here.\nSlots: %d/%d used.\nInvite friends to earn more: %s",
		username, stats.FileCount, stats.AllowedSlots(), b.ReferralLink(tgID)), nil
}

// HandleStatus renders the user's quota and referral summary.
func (b *BotFacade) HandleStatus(ctx context.Context, tgID int64) (string, error) {
	banned, err := b.ModerationUC.IsBanned(ctx, tgID)
	if err != nil {
		return "", err
	}
	if banned {
		return "", domain.ErrBanned
	}
	stats, err := b.QuotaUC.Stats(ctx, tgID)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("📊 Your hosting status:\n\n")
	sb.WriteString(fmt.Sprintf("📁 Files: %d of %d slots used\n", stats.FileCount, stats.AllowedSlots()))
	sb.WriteString(fmt.Sprintf("👥 Referrals: %d (+%d slot(s) each)\n", len(stats.Referrals), stats.ReferralReward))
	sb.WriteString(fmt.Sprintf("\nInvite link: %s", b.ReferralLink(tgID)))
	return sb.String(), nil
}

// HandleUpload stores one document and reports the public link.
func (b *BotFacade) HandleUpload(ctx context.Context, tgID int64, fileName string, content []byte) (string, error) {
	stored, err := b.FileUC.Upload(ctx, tgID, fileName, content)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("✅ Stored %s\nYour link: %s", stored.Name, stored.URL), nil
}

// HandleDelete removes one stored file by name.
func (b *BotFacade) HandleDelete(ctx context.Context, tgID int64, fileName string) (string, error) {
	if err := b.FileUC.Delete(ctx, tgID, fileName); err != nil {
		return "", err
	}
	return fmt.Sprintf("🗑 Deleted %s. The slot is free again.", fileName), nil
}

// HandleAdminStats builds the admin-facing formatted stats string.
func (b *BotFacade) HandleAdminStats(ctx context.Context) (string, error) {
	totals, err := b.StatsUC.Totals(ctx)
	if err != nil {
		return "", fmt.Errorf("get totals: %w", err)
	}
	var sb strings.Builder
	sb.WriteString("📊 System Statistics:\n\n")
	sb.WriteString(fmt.Sprintf("👥 Users: %d\n", totals.Users))
	sb.WriteString(fmt.Sprintf("🚫 Banned: %d\n", totals.Banned))
	sb.WriteString(fmt.Sprintf("📁 Files stored: %d\n", totals.FilesStored))
	sb.WriteString(fmt.Sprintf("📅 Active today: %d\n", totals.ActiveToday))
	return sb.String(), nil
}

// adminPrompts maps a conversation step to the prompt shown when arming it.
var adminPrompts = map[string]string{
	usecase.StepAwaitingAddSlots:       "Send: <telegram id> <slots to add>",
	usecase.StepAwaitingBanTarget:      "Send the telegram id to ban.",
	usecase.StepAwaitingUnbanTarget:    "Send the telegram id to unban.",
	usecase.StepAwaitingDefaultSlots:   "Send the new default slot count (>= 1). Applies to every user.",
	usecase.StepAwaitingReferralReward: "Send the new referral reward (>= 1). Applies to every user.",
	usecase.StepAwaitingBroadcast:      "Send the message to broadcast (text, photo or video).",
}

// ArmAdminAction sets the conversation step for adminID and returns the
// prompt to display. Arming supersedes any prior unconsumed step.
func (b *BotFacade) ArmAdminAction(ctx context.Context, adminID int64, step string) (string, error) {
	prompt, ok := adminPrompts[step]
	if !ok {
		return "", domain.ErrInvalidArgument
	}
	if err := b.states.SetState(ctx, adminID, &repository.ConversationState{Step: step}); err != nil {
		return "", fmt.Errorf("arm admin action: %w", err)
	}
	return prompt, nil
}

// HandleAdminFreeForm consumes a pending conversation step with the admin's
// next message. handled is false when no step was pending, so the caller
// can fall through to default routing. The step is cleared before the
// payload is validated: invalid input reports an error and the admin must
// re-arm from the menu.
func (b *BotFacade) HandleAdminFreeForm(ctx context.Context, adminID int64, msg model.OutboundMessage) (handled bool, reply string, err error) {
	state, err := b.states.GetState(ctx, adminID)
	if err != nil {
		return false, "", fmt.Errorf("read admin state: %w", err)
	}
	if state == nil {
		return false, "", nil
	}
	if err := b.states.ClearState(ctx, adminID); err != nil {
		return false, "", fmt.Errorf("clear admin state: %w", err)
	}

	log := logging.With(ctx, b.log)
	log.Debug().Str("step", state.Step).Msg("consuming admin conversation step")

	switch state.Step {
	case usecase.StepAwaitingAddSlots:
		return true, b.applyAddSlots(ctx, msg.Text), nil
	case usecase.StepAwaitingBanTarget:
		return true, b.applyBan(ctx, msg.Text, true), nil
	case usecase.StepAwaitingUnbanTarget:
		return true, b.applyBan(ctx, msg.Text, false), nil
	case usecase.StepAwaitingDefaultSlots:
		return true, b.applyDefault(ctx, msg.Text, b.QuotaUC.SetDefaultBaseLimit, "default slot count"), nil
	case usecase.StepAwaitingReferralReward:
		return true, b.applyDefault(ctx, msg.Text, b.QuotaUC.SetDefaultReferralReward, "referral reward"), nil
	case usecase.StepAwaitingBroadcast:
		return true, b.startBroadcast(ctx, adminID, msg), nil
	default:
		b.log.Warn().Str("step", state.Step).Msg("unknown admin conversation step")
		return true, "Unknown pending action, please use the menu again.", nil
	}
}

func (b *BotFacade) applyAddSlots(ctx context.Context, text string) string {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return "Format: <telegram id> <slots>. Use the menu to try again."
	}
	tgID, err1 := strconv.ParseInt(fields[0], 10, 64)
	n, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil || n <= 0 {
		return "Both values must be numbers, slots must be positive. Use the menu to try again."
	}
	stats, err := b.QuotaUC.AddSlots(ctx, tgID, n)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Sprintf("User %d is unknown.", tgID)
		}
		b.log.Error().Err(err).Int64("tg_id", tgID).Msg("add slots failed")
		return "Could not add slots, see logs."
	}
	return fmt.Sprintf("Done. User %d now has %d slots (%d used).", tgID, stats.AllowedSlots(), stats.FileCount)
}

func (b *BotFacade) applyBan(ctx context.Context, text string, ban bool) string {
	tgID, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return "That is not a telegram id. Use the menu to try again."
	}
	if ban {
		err = b.ModerationUC.Ban(ctx, tgID)
	} else {
		err = b.ModerationUC.Unban(ctx, tgID)
	}
	if err != nil {
		b.log.Error().Err(err).Int64("tg_id", tgID).Bool("ban", ban).Msg("moderation update failed")
		return "Could not update the ban list, see logs."
	}
	if ban {
		return fmt.Sprintf("User %d is banned.", tgID)
	}
	return fmt.Sprintf("User %d is unbanned.", tgID)
}

func (b *BotFacade) applyDefault(ctx context.Context, text string, set func(context.Context, int) error, what string) string {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || v < 1 {
		return fmt.Sprintf("The %s must be an integer >= 1. Use the menu to try again.", what)
	}
	if err := set(ctx, v); err != nil {
		b.log.Error().Err(err).Int("value", v).Str("what", what).Msg("default override failed")
		return "Could not apply the override, see logs."
	}
	return fmt.Sprintf("The %s is now %d for every user.", what, v)
}

func (b *BotFacade) startBroadcast(ctx context.Context, adminID int64, msg model.OutboundMessage) string {
	if msg.Modality() == model.ModalityUnsupported {
		return "Only text, photo or video can be broadcast. Use the menu to try again."
	}
	// The sweep takes ~100ms per recipient, so it runs detached; the
	// summary goes back to the admin when it finishes.
	go func() {
		report, err := b.BroadcastUC.Run(ctx, msg)
		if err != nil {
			b.log.Error().Err(err).Msg("broadcast run failed")
		}
		summary := fmt.Sprintf("📣 Broadcast finished.\nSent: %d\nFailed: %d\nSkipped: %d",
			report.Sent, report.Failed, report.Skipped)
		if serr := b.bot.SendMessage(ctx, adminID, summary); serr != nil {
			b.log.Warn().Err(serr).Int64("tg_id", adminID).Msg("broadcast summary send failed")
		}
	}()
	return "📣 Broadcast started. You will get a summary when it finishes."
}
