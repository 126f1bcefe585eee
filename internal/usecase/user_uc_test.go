//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"telegram-hosting-bot/internal/domain"
	"telegram-hosting-bot/internal/domain/model"
	"telegram-hosting-bot/internal/domain/ports/repository"
	"telegram-hosting-bot/internal/usecase"
)

func TestUserUseCase_RegisterOrFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("registers a new user with configured defaults", func(t *testing.T) {
		repo := NewMockUserRepo()
		uc := usecase.NewUserUseCase(repo, NewMockTxManager(), 3, 2, newTestLogger())

		user, created, err := uc.RegisterOrFetch(ctx, 100, "newbie")
		if err != nil {
			t.Fatalf("RegisterOrFetch failed: %v", err)
		}
		if !created {
			t.Error("expected created=true on first contact")
		}
		if user.Stats.BaseLimit != 3 || user.Stats.ReferralReward != 2 {
			t.Errorf("defaults not applied: %+v", user.Stats)
		}

		saved, err := repo.FindByTelegramID(ctx, nil, 100)
		if err != nil {
			t.Fatalf("user not persisted: %v", err)
		}
		if saved.Username != "newbie" {
			t.Errorf("Username = %q", saved.Username)
		}
	})

	t.Run("fetches an existing user and refreshes activity", func(t *testing.T) {
		repo := NewMockUserRepo()
		uc := usecase.NewUserUseCase(repo, NewMockTxManager(), 2, 1, newTestLogger())

		original := &model.User{
			ID:           "user-123",
			TelegramID:   100,
			Username:     "old_name",
			LastActiveAt: time.Now().Add(-time.Hour),
			Stats:        model.UserStats{BaseLimit: 2, ReferralReward: 1},
		}
		_ = repo.Save(ctx, nil, original)

		user, created, err := uc.RegisterOrFetch(ctx, 100, "new_name")
		if err != nil {
			t.Fatalf("RegisterOrFetch failed: %v", err)
		}
		if created {
			t.Error("expected created=false for a known user")
		}
		if user.Username != "new_name" {
			t.Errorf("Username = %q, want new_name", user.Username)
		}
		if !user.LastActiveAt.After(original.LastActiveAt) {
			t.Error("LastActiveAt not refreshed")
		}
	})

	t.Run("touch never writes back the quota ledger", func(t *testing.T) {
		repo := NewMockUserRepo()
		tm := NewMockTxManager()
		uc := usecase.NewUserUseCase(repo, tm, 2, 1, newTestLogger())
		quota := usecase.NewQuotaUseCase(repo, tm, 2, 1, newTestLogger())

		before := time.Now().Add(-time.Hour)
		_ = repo.Save(ctx, nil, &model.User{
			ID:           "user-500",
			TelegramID:   500,
			LastActiveAt: before,
			Stats:        model.UserStats{BaseLimit: 2, ReferralReward: 1},
		})
		if err := quota.AdjustFileCount(ctx, 500, +1); err != nil {
			t.Fatalf("AdjustFileCount failed: %v", err)
		}

		// Emulate a racing reader holding a snapshot taken before the
		// increment committed. Touch must not go through any full-row
		// read-then-save path, so the stale snapshot must never reach
		// the store.
		stale := &model.User{ID: "user-500", TelegramID: 500, LastActiveAt: before,
			Stats: model.UserStats{BaseLimit: 2, ReferralReward: 1}}
		repo.FindByTelegramIDFunc = func(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
			return stale, nil
		}
		repo.SaveFunc = func(ctx context.Context, tx repository.Tx, u *model.User) error {
			t.Error("Touch rewrote the full user row")
			return nil
		}

		if err := uc.Touch(ctx, 500); err != nil {
			t.Fatalf("Touch failed: %v", err)
		}
		repo.FindByTelegramIDFunc = nil
		repo.SaveFunc = nil

		got, err := repo.FindByTelegramID(ctx, nil, 500)
		if err != nil {
			t.Fatalf("reload failed: %v", err)
		}
		if got.Stats.FileCount != 1 {
			t.Errorf("FileCount = %d, want 1 (committed increment erased)", got.Stats.FileCount)
		}
		if !got.LastActiveAt.After(before) {
			t.Error("LastActiveAt not refreshed")
		}
	})

	t.Run("touch on an unknown id reports not found", func(t *testing.T) {
		repo := NewMockUserRepo()
		uc := usecase.NewUserUseCase(repo, NewMockTxManager(), 2, 1, newTestLogger())

		if err := uc.Touch(ctx, 404); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("Touch = %v, want ErrNotFound", err)
		}
	})

	t.Run("propagates repository failure", func(t *testing.T) {
		repo := NewMockUserRepo()
		dbErr := errors.New("database is down")
		repo.FindByTelegramIDFunc = func(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
			return nil, dbErr
		}
		uc := usecase.NewUserUseCase(repo, NewMockTxManager(), 2, 1, newTestLogger())

		_, _, err := uc.RegisterOrFetch(ctx, 100, "anyone")
		if !errors.Is(err, dbErr) {
			t.Fatalf("expected wrapped repo error, got %v", err)
		}
	})
}
