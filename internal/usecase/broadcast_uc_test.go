//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-hosting-bot/internal/domain/model"
	"telegram-hosting-bot/internal/usecase"
)

func seedRecipients(t *testing.T, repo *MockUserRepo, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		seedUser(t, repo, int64(1000+i), 2, 1, 0)
	}
}

func TestBroadcastUseCase_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("report partitions recipients exactly", func(t *testing.T) {
		repo := NewMockUserRepo()
		seedRecipients(t, repo, 10)
		bot := NewMockBot()
		// Users 1003 and 1007 fail, the rest deliver.
		bot.SendMessageFunc = func(ctx context.Context, tgID int64, text string) error {
			if tgID == 1003 || tgID == 1007 {
				return errors.New("blocked the bot")
			}
			return nil
		}
		uc := usecase.NewBroadcastUseCase(repo, bot, time.Millisecond, newTestLogger())

		report, err := uc.Run(ctx, model.OutboundMessage{Text: "hello"})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if report.Sent != 8 || report.Failed != 2 || report.Skipped != 0 {
			t.Errorf("report = %+v, want 8/2/0", report)
		}
		if report.Total() != 10 {
			t.Errorf("Total = %d, want 10", report.Total())
		}
	})

	t.Run("unsupported modality skips every recipient", func(t *testing.T) {
		repo := NewMockUserRepo()
		seedRecipients(t, repo, 3)
		bot := NewMockBot()
		uc := usecase.NewBroadcastUseCase(repo, bot, time.Millisecond, newTestLogger())

		report, err := uc.Run(ctx, model.OutboundMessage{})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if report.Skipped != 3 || report.Sent != 0 || report.Failed != 0 {
			t.Errorf("report = %+v, want 0/0/3", report)
		}
		if len(bot.Messages()) != 0 {
			t.Error("unsupported message was delivered")
		}
	})

	t.Run("photo broadcast goes through the photo send", func(t *testing.T) {
		repo := NewMockUserRepo()
		seedRecipients(t, repo, 2)
		bot := NewMockBot()
		uc := usecase.NewBroadcastUseCase(repo, bot, time.Millisecond, newTestLogger())

		report, err := uc.Run(ctx, model.OutboundMessage{PhotoID: "photo-1", Caption: "look"})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if report.Sent != 2 {
			t.Errorf("Sent = %d, want 2", report.Sent)
		}
		for _, m := range bot.Messages() {
			if m.PhotoID != "photo-1" {
				t.Errorf("delivery was not a photo: %+v", m)
			}
		}
	})

	t.Run("canceled context stops the sweep", func(t *testing.T) {
		repo := NewMockUserRepo()
		seedRecipients(t, repo, 5)
		bot := NewMockBot()
		uc := usecase.NewBroadcastUseCase(repo, bot, 10*time.Millisecond, newTestLogger())

		cctx, cancel := context.WithCancel(ctx)
		var report model.BroadcastReport
		var runErr error
		done := make(chan struct{})
		go func() {
			defer close(done)
			report, runErr = uc.Run(cctx, model.OutboundMessage{Text: "hello"})
		}()
		cancel()
		<-done

		if !errors.Is(runErr, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", runErr)
		}
		if report.Total() > 5 {
			t.Errorf("report overcounts: %+v", report)
		}
	})
}
