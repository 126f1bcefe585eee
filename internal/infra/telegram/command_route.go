package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"telegram-hosting-bot/internal/domain"
	"telegram-hosting-bot/internal/domain/model"
	"telegram-hosting-bot/internal/infra/logging"
	"telegram-hosting-bot/internal/infra/metrics"
	redisinfra "telegram-hosting-bot/internal/infra/redis"
)

// per-user inbound budget; anything above it gets a soft brush-off.
const (
	messageRateLimit  = 20
	messageRateWindow = time.Minute
)

// handleUpdate is the single entry point for everything the poll loop
// receives. Replies go straight back through the outbound methods.
func (r *RealBotAdapter) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	switch {
	case update.CallbackQuery != nil:
		return r.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		return r.handleMessage(ctx, update.Message)
	default:
		return nil
	}
}

func (r *RealBotAdapter) handleMessage(ctx context.Context, m *tgbotapi.Message) error {
	if m.From == nil || m.From.IsBot {
		return nil
	}
	tgID := m.From.ID
	ctx = logging.WithTgID(ctx, tgID)

	ok, err := r.limiter.Allow(ctx, redisinfra.UserCommandKey(tgID, "message"), messageRateLimit, messageRateWindow)
	if err != nil {
		r.log.Warn().Err(err).Int64("tg_id", tgID).Msg("rate limiter unavailable, letting message through")
	} else if !ok {
		return r.SendMessage(ctx, tgID, "Slow down a little, please. Try again in a minute.")
	}

	if err := r.facade.UserUC.Touch(ctx, tgID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		r.log.Debug().Err(err).Int64("tg_id", tgID).Msg("touch failed")
	}
	if err := r.usageUC.MarkSeen(ctx, tgID); err != nil {
		r.log.Debug().Err(err).Int64("tg_id", tgID).Msg("usage mark failed")
	}

	if m.IsCommand() {
		return r.handleCommand(ctx, m)
	}

	// A pending admin console step eats the next free-form message.
	if r.isAdmin(tgID) {
		handled, reply, err := r.facade.HandleAdminFreeForm(ctx, tgID, outboundFromMessage(m))
		if err != nil {
			r.log.Error().Err(err).Int64("tg_id", tgID).Msg("admin console step failed")
			return r.SendMessage(ctx, tgID, "Something went wrong, please use the menu again.")
		}
		if handled {
			return r.SendMessage(ctx, tgID, reply)
		}
	}

	if m.Document != nil {
		return r.handleDocument(ctx, tgID, m.Document)
	}

	return r.SendButtons(ctx, tgID, "Send me an .html or .zip document to host it, or pick an action:", r.mainMenuRows(tgID))
}

func (r *RealBotAdapter) handleCommand(ctx context.Context, m *tgbotapi.Message) error {
	tgID := m.From.ID
	switch m.Command() {
	case "start":
		reply, err := r.facade.HandleStart(ctx, tgID, m.From.UserName, m.CommandArguments())
		if err != nil {
			r.log.Error().Err(err).Int64("tg_id", tgID).Msg("start failed")
			return r.SendMessage(ctx, tgID, "Registration failed, please try again later.")
		}
		return r.SendButtons(ctx, tgID, reply, r.mainMenuRows(tgID))
	case "help":
		return r.SendMessage(ctx, tgID, helpText(r.isAdmin(tgID)))
	case "status":
		reply, err := r.facade.HandleStatus(ctx, tgID)
		if err != nil {
			return r.SendMessage(ctx, tgID, userFacingError(err))
		}
		return r.SendMessage(ctx, tgID, reply)
	case "files":
		return r.sendFileList(ctx, tgID)
	case "admin":
		if !r.isAdmin(tgID) {
			metrics.IncAdminCommand("admin_menu", "denied")
			return r.SendMessage(ctx, tgID, "You are not authorized to use this command.")
		}
		metrics.IncAdminCommand("admin_menu", "ok")
		return r.SendButtons(ctx, tgID, "Admin console:", adminMenuRows())
	case "stats":
		if !r.isAdmin(tgID) {
			metrics.IncAdminCommand("stats", "denied")
			return r.SendMessage(ctx, tgID, "You are not authorized to use this command.")
		}
		reply, err := r.facade.HandleAdminStats(ctx)
		if err != nil {
			metrics.IncAdminCommand("stats", "error")
			r.log.Error().Err(err).Msg("stats failed")
			return r.SendMessage(ctx, tgID, "Failed to get stats. Please try again later.")
		}
		metrics.IncAdminCommand("stats", "ok")
		return r.SendMessage(ctx, tgID, reply)
	default:
		return r.SendMessage(ctx, tgID, "Unknown command. Send /help for the list of commands.")
	}
}

func (r *RealBotAdapter) handleDocument(ctx context.Context, tgID int64, doc *tgbotapi.Document) error {
	if !model.AllowedFileName(doc.FileName) {
		return r.SendMessage(ctx, tgID, "Only .html and .zip files can be hosted.")
	}
	if doc.FileSize > maxUploadBytes {
		return r.SendMessage(ctx, tgID, "That file is too large to host.")
	}

	content, err := r.downloadDocument(ctx, doc.FileID)
	if err != nil {
		r.log.Error().Err(err).Int64("tg_id", tgID).Str("file", doc.FileName).Msg("document download failed")
		return r.SendMessage(ctx, tgID, "Could not fetch the document from Telegram, please resend it.")
	}
	if len(content) > maxUploadBytes {
		return r.SendMessage(ctx, tgID, "That file is too large to host.")
	}

	reply, err := r.facade.HandleUpload(ctx, tgID, doc.FileName, content)
	if err != nil {
		return r.SendMessage(ctx, tgID, userFacingError(err))
	}
	return r.SendMessage(ctx, tgID, reply)
}

// sendFileList renders the user's stored files with open/delete buttons.
func (r *RealBotAdapter) sendFileList(ctx context.Context, tgID int64) error {
	files, err := r.facade.FileUC.List(ctx, tgID)
	if err != nil {
		return r.SendMessage(ctx, tgID, userFacingError(err))
	}
	if len(files) == 0 {
		return r.SendMessage(ctx, tgID, "You have no hosted files yet. Send me an .html or .zip document.")
	}
	return r.SendButtons(ctx, tgID, fmt.Sprintf("Your hosted files (%d):", len(files)), fileRows(files))
}

func outboundFromMessage(m *tgbotapi.Message) model.OutboundMessage {
	out := model.OutboundMessage{Text: m.Text, Caption: m.Caption}
	if len(m.Photo) > 0 {
		// last entry is the largest resolution
		out.PhotoID = m.Photo[len(m.Photo)-1].FileID
	}
	if m.Video != nil {
		out.VideoID = m.Video.FileID
	}
	return out
}

// userFacingError maps domain sentinels to chat-friendly text.
func userFacingError(err error) string {
	switch {
	case errors.Is(err, domain.ErrBanned):
		return "🚫 You are banned from using this bot."
	case errors.Is(err, domain.ErrQuotaExceeded):
		return "You are out of free slots. Delete a file or invite friends to earn more."
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return "Only .html and .zip files can be hosted."
	case errors.Is(err, domain.ErrFileNotFound):
		return "There is no hosted file with that name."
	default:
		return "Something went wrong, please try again later."
	}
}

func helpText(admin bool) string {
	var sb strings.Builder
	sb.WriteString("Send me an .html or .zip document and I will host it.\n\n")
	sb.WriteString("/start - register and show the menu\n")
	sb.WriteString("/status - slots and referral summary\n")
	sb.WriteString("/files - list and delete hosted files\n")
	sb.WriteString("/help - this message\n")
	if admin {
		sb.WriteString("\nAdmin:\n/admin - admin console\n/stats - system statistics\n")
	}
	return sb.String()
}
