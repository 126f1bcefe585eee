package telegram

import (
	"context"
	"hash/fnv"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-hosting-bot/internal/domain/model"
	"telegram-hosting-bot/internal/domain/ports/adapter"
	"telegram-hosting-bot/internal/infra/logging"
	"telegram-hosting-bot/internal/infra/metrics"
	"telegram-hosting-bot/internal/usecase"
)

// Callback data prefixes. "cmd:" is user-facing navigation, "adm:" arms an
// admin console step, "del:" carries a short digest of the file name to
// delete (callback data is capped at 64 bytes, file names are not).
const (
	cbMenu     = "cmd:menu"
	cbStatus   = "cmd:status"
	cbFiles    = "cmd:files"
	cbReferral = "cmd:referral"

	cbAdminMenu  = "adm:menu"
	cbAdminStats = "adm:stats"
	cbDelPrefix  = "del:"
	cbAdmPrefix  = "adm:"
)

// admin callback data -> conversation step to arm
var adminSteps = map[string]string{
	"adm:addslots":  usecase.StepAwaitingAddSlots,
	"adm:ban":       usecase.StepAwaitingBanTarget,
	"adm:unban":     usecase.StepAwaitingUnbanTarget,
	"adm:defslots":  usecase.StepAwaitingDefaultSlots,
	"adm:reward":    usecase.StepAwaitingReferralReward,
	"adm:broadcast": usecase.StepAwaitingBroadcast,
}

func (r *RealBotAdapter) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.From == nil {
		return nil
	}
	tgID := cb.From.ID
	ctx = logging.WithTgID(ctx, tgID)

	// Ack immediately so the client stops the spinner.
	if _, err := r.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		r.log.Debug().Err(err).Msg("callback ack failed")
	}

	data := cb.Data
	switch {
	case data == cbMenu:
		return r.SendButtons(ctx, tgID, "Pick an action:", r.mainMenuRows(tgID))
	case data == cbStatus:
		reply, err := r.facade.HandleStatus(ctx, tgID)
		if err != nil {
			return r.SendMessage(ctx, tgID, userFacingError(err))
		}
		return r.SendMessage(ctx, tgID, reply)
	case data == cbFiles:
		return r.sendFileList(ctx, tgID)
	case data == cbReferral:
		return r.SendMessage(ctx, tgID,
			"Share this link, every friend who joins earns you extra slots:\n"+r.facade.ReferralLink(tgID))
	case strings.HasPrefix(data, cbDelPrefix):
		return r.handleDeleteCallback(ctx, tgID, strings.TrimPrefix(data, cbDelPrefix))
	case strings.HasPrefix(data, cbAdmPrefix):
		return r.handleAdminCallback(ctx, tgID, data)
	default:
		r.log.Debug().Str("data", data).Msg("unknown callback")
		return nil
	}
}

// handleDeleteCallback resolves the digest back to a file name by listing
// the user's current files. A stale button whose file is already gone just
// misses the lookup.
func (r *RealBotAdapter) handleDeleteCallback(ctx context.Context, tgID int64, id string) error {
	files, err := r.facade.FileUC.List(ctx, tgID)
	if err != nil {
		return r.SendMessage(ctx, tgID, userFacingError(err))
	}
	for _, f := range files {
		if fileCallbackID(f.Name) != id {
			continue
		}
		reply, err := r.facade.HandleDelete(ctx, tgID, f.Name)
		if err != nil {
			return r.SendMessage(ctx, tgID, userFacingError(err))
		}
		return r.SendMessage(ctx, tgID, reply)
	}
	return r.SendMessage(ctx, tgID, "That file is no longer listed. Use /files for a fresh list.")
}

func (r *RealBotAdapter) handleAdminCallback(ctx context.Context, tgID int64, data string) error {
	if !r.isAdmin(tgID) {
		metrics.IncAdminCommand(data, "denied")
		return r.SendMessage(ctx, tgID, "You are not authorized to do that.")
	}

	if data == cbAdminMenu {
		metrics.IncAdminCommand(data, "ok")
		return r.SendButtons(ctx, tgID, "Admin console:", adminMenuRows())
	}

	if data == cbAdminStats {
		reply, err := r.facade.HandleAdminStats(ctx)
		if err != nil {
			metrics.IncAdminCommand(data, "error")
			r.log.Error().Err(err).Msg("stats failed")
			return r.SendMessage(ctx, tgID, "Failed to get stats. Please try again later.")
		}
		metrics.IncAdminCommand(data, "ok")
		return r.SendMessage(ctx, tgID, reply)
	}

	step, ok := adminSteps[data]
	if !ok {
		metrics.IncAdminCommand(data, "unknown")
		return r.SendMessage(ctx, tgID, "Unknown admin action.")
	}
	prompt, err := r.facade.ArmAdminAction(ctx, tgID, step)
	if err != nil {
		metrics.IncAdminCommand(data, "error")
		r.log.Error().Err(err).Str("step", step).Msg("arming admin action failed")
		return r.SendMessage(ctx, tgID, "Could not start that action, please try again.")
	}
	metrics.IncAdminCommand(data, "ok")
	return r.SendMessage(ctx, tgID, prompt)
}

// --- menus ---

func (r *RealBotAdapter) mainMenuRows(tgID int64) [][]adapter.InlineButton {
	rows := [][]adapter.InlineButton{
		{
			{Text: "📊 Status", Data: cbStatus},
			{Text: "📁 My files", Data: cbFiles},
		},
		{
			{Text: "👥 Referral link", Data: cbReferral},
		},
	}
	if r.isAdmin(tgID) {
		rows = append(rows, []adapter.InlineButton{{Text: "🛠 Admin console", Data: cbAdminMenu}})
	}
	return rows
}

func adminMenuRows() [][]adapter.InlineButton {
	return [][]adapter.InlineButton{
		{
			{Text: "➕ Add slots", Data: "adm:addslots"},
			{Text: "📊 Stats", Data: cbAdminStats},
		},
		{
			{Text: "🚫 Ban", Data: "adm:ban"},
			{Text: "✅ Unban", Data: "adm:unban"},
		},
		{
			{Text: "⚙️ Default slots", Data: "adm:defslots"},
			{Text: "🎁 Referral reward", Data: "adm:reward"},
		},
		{
			{Text: "📣 Broadcast", Data: "adm:broadcast"},
		},
	}
}

func fileRows(files []model.StoredFile) [][]adapter.InlineButton {
	rows := make([][]adapter.InlineButton, 0, len(files))
	for _, f := range files {
		rows = append(rows, []adapter.InlineButton{
			{Text: f.Name, URL: f.URL},
			{Text: "🗑 Delete", Data: cbDelPrefix + fileCallbackID(f.Name)},
		})
	}
	return rows
}

// fileCallbackID digests a file name into a fixed-width token that always
// fits the callback-data limit.
func fileCallbackID(name string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return strconv.FormatUint(h.Sum64(), 16)
}
