//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"telegram-hosting-bot/internal/domain"
	"telegram-hosting-bot/internal/domain/model"
	"telegram-hosting-bot/internal/usecase"
)

func seedUser(t *testing.T, repo *MockUserRepo, tgID int64, baseLimit, reward, fileCount int, referrals ...int64) {
	t.Helper()
	u, err := model.NewUser("", tgID, "someone", baseLimit, reward)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	u.Stats.FileCount = fileCount
	u.Stats.Referrals = referrals
	if err := repo.Save(context.Background(), nil, u); err != nil {
		t.Fatalf("seed save: %v", err)
	}
}

func TestQuotaUseCase_Stats(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown user gets zeroed stats with configured defaults", func(t *testing.T) {
		uc := usecase.NewQuotaUseCase(NewMockUserRepo(), NewMockTxManager(), 2, 1, newTestLogger())

		stats, err := uc.Stats(ctx, 404)
		if err != nil {
			t.Fatalf("Stats failed: %v", err)
		}
		if stats.FileCount != 0 || stats.BaseLimit != 2 || stats.ReferralReward != 1 {
			t.Errorf("unexpected default stats: %+v", stats)
		}
		if got := stats.AllowedSlots(); got != 2 {
			t.Errorf("AllowedSlots = %d, want 2", got)
		}
	})

	t.Run("referrals raise the allowance", func(t *testing.T) {
		repo := NewMockUserRepo()
		seedUser(t, repo, 100, 2, 3, 1, 201, 202)
		uc := usecase.NewQuotaUseCase(repo, NewMockTxManager(), 2, 1, newTestLogger())

		stats, err := uc.Stats(ctx, 100)
		if err != nil {
			t.Fatalf("Stats failed: %v", err)
		}
		// 2 base + 2 referrals * 3 reward
		if got := stats.AllowedSlots(); got != 8 {
			t.Errorf("AllowedSlots = %d, want 8", got)
		}
	})
}

func TestQuotaUseCase_CanUpload(t *testing.T) {
	ctx := context.Background()
	repo := NewMockUserRepo()
	seedUser(t, repo, 100, 2, 1, 1)
	uc := usecase.NewQuotaUseCase(repo, NewMockTxManager(), 2, 1, newTestLogger())

	ok, err := uc.CanUpload(ctx, 100)
	if err != nil {
		t.Fatalf("CanUpload failed: %v", err)
	}
	if !ok {
		t.Error("expected upload to be allowed at 1/2")
	}

	seedUser(t, repo, 200, 2, 1, 2)
	ok, err = uc.CanUpload(ctx, 200)
	if err != nil {
		t.Fatalf("CanUpload failed: %v", err)
	}
	if ok {
		t.Error("expected upload to be denied at 2/2")
	}
}

func TestQuotaUseCase_AdjustFileCount(t *testing.T) {
	ctx := context.Background()

	t.Run("increment past the allowance fails", func(t *testing.T) {
		repo := NewMockUserRepo()
		seedUser(t, repo, 100, 1, 1, 1)
		uc := usecase.NewQuotaUseCase(repo, NewMockTxManager(), 1, 1, newTestLogger())

		err := uc.AdjustFileCount(ctx, 100, +1)
		if !errors.Is(err, domain.ErrQuotaExceeded) {
			t.Fatalf("expected ErrQuotaExceeded, got %v", err)
		}
	})

	t.Run("decrement below zero fails", func(t *testing.T) {
		repo := NewMockUserRepo()
		seedUser(t, repo, 100, 1, 1, 0)
		uc := usecase.NewQuotaUseCase(repo, NewMockTxManager(), 1, 1, newTestLogger())

		err := uc.AdjustFileCount(ctx, 100, -1)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("only delta of one is accepted", func(t *testing.T) {
		uc := usecase.NewQuotaUseCase(NewMockUserRepo(), NewMockTxManager(), 1, 1, newTestLogger())
		if err := uc.AdjustFileCount(ctx, 100, 3); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("concurrent increments never exceed the allowance", func(t *testing.T) {
		repo := NewMockUserRepo()
		seedUser(t, repo, 100, 1, 1, 0)
		uc := usecase.NewQuotaUseCase(repo, NewMockTxManager(), 1, 1, newTestLogger())

		const n = 8
		var wg sync.WaitGroup
		results := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- uc.AdjustFileCount(ctx, 100, +1)
			}()
		}
		wg.Wait()
		close(results)

		succeeded := 0
		for err := range results {
			if err == nil {
				succeeded++
			} else if !errors.Is(err, domain.ErrQuotaExceeded) {
				t.Errorf("unexpected error: %v", err)
			}
		}
		if succeeded != 1 {
			t.Errorf("%d increments succeeded with allowance 1, want 1", succeeded)
		}

		user, err := repo.FindByTelegramID(ctx, nil, 100)
		if err != nil {
			t.Fatalf("find user: %v", err)
		}
		if user.Stats.FileCount != 1 {
			t.Errorf("FileCount = %d, want 1", user.Stats.FileCount)
		}
	})
}

func TestQuotaUseCase_AddSlots(t *testing.T) {
	ctx := context.Background()

	t.Run("raises the base limit", func(t *testing.T) {
		repo := NewMockUserRepo()
		seedUser(t, repo, 100, 2, 1, 0)
		uc := usecase.NewQuotaUseCase(repo, NewMockTxManager(), 2, 1, newTestLogger())

		stats, err := uc.AddSlots(ctx, 100, 3)
		if err != nil {
			t.Fatalf("AddSlots failed: %v", err)
		}
		if stats.AllowedSlots() != 5 {
			t.Errorf("AllowedSlots = %d, want 5", stats.AllowedSlots())
		}
	})

	t.Run("unknown user propagates not found", func(t *testing.T) {
		uc := usecase.NewQuotaUseCase(NewMockUserRepo(), NewMockTxManager(), 2, 1, newTestLogger())
		_, err := uc.AddSlots(ctx, 404, 1)
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("non-positive grant is rejected", func(t *testing.T) {
		uc := usecase.NewQuotaUseCase(NewMockUserRepo(), NewMockTxManager(), 2, 1, newTestLogger())
		if _, err := uc.AddSlots(ctx, 100, 0); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestQuotaUseCase_DefaultOverrides(t *testing.T) {
	ctx := context.Background()
	repo := NewMockUserRepo()
	seedUser(t, repo, 100, 2, 1, 0)
	seedUser(t, repo, 200, 5, 1, 0)
	uc := usecase.NewQuotaUseCase(repo, NewMockTxManager(), 2, 1, newTestLogger())

	if err := uc.SetDefaultBaseLimit(ctx, 4); err != nil {
		t.Fatalf("SetDefaultBaseLimit failed: %v", err)
	}
	if err := uc.SetDefaultReferralReward(ctx, 2); err != nil {
		t.Fatalf("SetDefaultReferralReward failed: %v", err)
	}

	for _, tgID := range []int64{100, 200} {
		u, _ := repo.FindByTelegramID(ctx, nil, tgID)
		if u.Stats.BaseLimit != 4 || u.Stats.ReferralReward != 2 {
			t.Errorf("user %d not rewritten: %+v", tgID, u.Stats)
		}
	}

	if err := uc.SetDefaultBaseLimit(ctx, 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for zero limit, got %v", err)
	}
}
