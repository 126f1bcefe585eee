package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-hosting-bot/internal/application"
	"telegram-hosting-bot/internal/config"
	"telegram-hosting-bot/internal/domain/ports/adapter"
	redisinfra "telegram-hosting-bot/internal/infra/redis"
	"telegram-hosting-bot/internal/infra/worker"
	"telegram-hosting-bot/internal/usecase"
)

// maxUploadBytes caps documents we are willing to download. The Bot API
// refuses getFile beyond 20MB anyway, this keeps us well under it.
const maxUploadBytes = 10 << 20

// Compile-time check
var _ adapter.BotAdapter = (*RealBotAdapter)(nil)

// RealBotAdapter implements adapter.BotAdapter over tgbotapi and owns the
// inbound side: long polling, routing and the reply formatting that is
// transport-specific (inline keyboards, document downloads).
type RealBotAdapter struct {
	api     *tgbotapi.BotAPI
	cfg     *config.BotConfig
	facade  *application.BotFacade
	usageUC usecase.UsageUseCase
	limiter *redisinfra.RateLimiter
	pool    *worker.Pool
	http    *http.Client

	adminIDs      map[int64]struct{}
	log           *zerolog.Logger
	cancelPolling context.CancelFunc
}

// NewRealBotAdapter builds the adapter without a facade: the facade needs
// the adapter for outbound sends, so wiring is two-phase via AttachFacade.
func NewRealBotAdapter(cfg *config.BotConfig, usageUC usecase.UsageUseCase, limiter *redisinfra.RateLimiter, logger *zerolog.Logger) (*RealBotAdapter, error) {
	if cfg == nil {
		return nil, errors.New("bot config is nil")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	adminIDs := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		adminIDs[id] = struct{}{}
	}

	return &RealBotAdapter{
		api:      api,
		cfg:      cfg,
		usageUC:  usageUC,
		limiter:  limiter,
		pool:     worker.NewPool(cfg.Workers),
		http:     &http.Client{Timeout: 30 * time.Second},
		adminIDs: adminIDs,
		log:      logger,
	}, nil
}

// AttachFacade finishes wiring; must be called before StartPolling.
func (r *RealBotAdapter) AttachFacade(f *application.BotFacade) { r.facade = f }

// StartPolling consumes the Telegram update stream until ctx is canceled.
// Updates are fanned out to the worker pool so one slow handler (a document
// download, a serializable tx retry) never stalls the poll loop.
func (r *RealBotAdapter) StartPolling(ctx context.Context) error {
	if r.facade == nil {
		return errors.New("facade not attached")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := r.api.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	r.pool.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			r.api.StopReceivingUpdates()
			r.pool.Stop()
			return nil
		case update, ok := <-updates:
			if !ok {
				r.pool.Stop()
				return nil
			}
			upd := update
			if err := r.pool.Submit(func(ctx context.Context) error {
				return r.handleUpdate(ctx, upd)
			}); err != nil {
				r.log.Warn().Err(err).Msg("update dropped")
			}
		}
	}
}

// StopPolling stops the polling loop gracefully.
func (r *RealBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func (r *RealBotAdapter) isAdmin(tgID int64) bool {
	_, ok := r.adminIDs[tgID]
	return ok
}

// --- outbound (adapter.BotAdapter) ---

func (r *RealBotAdapter) SendMessage(ctx context.Context, tgID int64, text string) error {
	_, err := r.api.Send(tgbotapi.NewMessage(tgID, text))
	return err
}

func (r *RealBotAdapter) SendPhoto(ctx context.Context, tgID int64, fileID, caption string) error {
	msg := tgbotapi.NewPhoto(tgID, tgbotapi.FileID(fileID))
	msg.Caption = caption
	_, err := r.api.Send(msg)
	return err
}

func (r *RealBotAdapter) SendVideo(ctx context.Context, tgID int64, fileID, caption string) error {
	msg := tgbotapi.NewVideo(tgID, tgbotapi.FileID(fileID))
	msg.Caption = caption
	_, err := r.api.Send(msg)
	return err
}

func (r *RealBotAdapter) SendAnimation(ctx context.Context, tgID int64, fileID string) error {
	_, err := r.api.Send(tgbotapi.NewAnimation(tgID, tgbotapi.FileID(fileID)))
	return err
}

func (r *RealBotAdapter) SendButtons(ctx context.Context, tgID int64, text string, rows [][]adapter.InlineButton) error {
	msg := tgbotapi.NewMessage(tgID, text)
	msg.ReplyMarkup = buildKeyboard(rows)
	_, err := r.api.Send(msg)
	return err
}

func buildKeyboard(rows [][]adapter.InlineButton) tgbotapi.InlineKeyboardMarkup {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		kbRow := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		kbRows = append(kbRows, kbRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...)
}

// downloadDocument fetches an uploaded document by Telegram file id.
func (r *RealBotAdapter) downloadDocument(ctx context.Context, fileID string) ([]byte, error) {
	file, err := r.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(r.api.Token), nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxUploadBytes+1))
}
