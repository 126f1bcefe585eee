//go:build !integration

package model_test

import (
	"errors"
	"testing"

	"telegram-hosting-bot/internal/domain"
	"telegram-hosting-bot/internal/domain/model"
)

func TestUserStats_AllowedSlots(t *testing.T) {
	cases := []struct {
		name  string
		stats model.UserStats
		want  int
	}{
		{"no referrals", model.UserStats{BaseLimit: 2, ReferralReward: 1}, 2},
		{"one referral", model.UserStats{BaseLimit: 2, ReferralReward: 1, Referrals: []int64{10}}, 3},
		{"bigger reward", model.UserStats{BaseLimit: 2, ReferralReward: 3, Referrals: []int64{10, 20}}, 8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.stats.AllowedSlots(); got != tc.want {
				t.Errorf("AllowedSlots = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestUserStats_HasReferred(t *testing.T) {
	s := model.UserStats{Referrals: []int64{10, 20}}
	if !s.HasReferred(10) {
		t.Error("expected 10 to be referred")
	}
	if s.HasReferred(30) {
		t.Error("did not expect 30 to be referred")
	}
}

func TestNewUser_Validation(t *testing.T) {
	if _, err := model.NewUser("", 0, "x", 2, 1); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("zero telegram id accepted: %v", err)
	}
	if _, err := model.NewUser("", 100, "x", 0, 1); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("zero base limit accepted: %v", err)
	}
	u, err := model.NewUser("", 100, "x", 2, 1)
	if err != nil {
		t.Fatalf("NewUser failed: %v", err)
	}
	if u.ID == "" {
		t.Error("expected a generated id")
	}
}

func TestFileKey(t *testing.T) {
	if got := model.FileKey(42, "index.html"); got != "sites/42/index.html" {
		t.Errorf("FileKey = %q", got)
	}
	if got := model.FilePrefix(42); got != "sites/42/" {
		t.Errorf("FilePrefix = %q", got)
	}
}
