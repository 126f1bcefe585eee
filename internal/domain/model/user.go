package model

import (
	"time"

	"telegram-hosting-bot/internal/domain"

	"github.com/google/uuid"
)

// User is a domain entity representing a Telegram user in our system.
// Quota stats are embedded to ensure a single source of truth in-memory.
type User struct {
	ID           string
	TelegramID   int64
	Username     string
	RegisteredAt time.Time
	LastActiveAt time.Time
	IsAdmin      bool
	Stats        UserStats
}

// UserStats carries the upload ledger for one user. Referrals holds the
// Telegram ids this user referred, in attribution order.
type UserStats struct {
	FileCount      int
	Referrals      []int64
	BaseLimit      int
	ReferralReward int
}

// AllowedSlots is the total upload allowance: the base limit plus one
// reward per referral.
func (s UserStats) AllowedSlots() int {
	return s.BaseLimit + len(s.Referrals)*s.ReferralReward
}

// HasReferred reports whether refereeID was already attributed to this user.
func (s UserStats) HasReferred(refereeID int64) bool {
	for _, id := range s.Referrals {
		if id == refereeID {
			return true
		}
	}
	return false
}

func NewUser(id string, tgID int64, username string, baseLimit, referralReward int) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if baseLimit <= 0 || referralReward <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	u := &User{
		ID:           id,
		TelegramID:   tgID,
		Username:     username,
		RegisteredAt: time.Now(),
		LastActiveAt: time.Now(),
		IsAdmin:      false,
		Stats: UserStats{
			FileCount:      0,
			BaseLimit:      baseLimit,
			ReferralReward: referralReward,
		},
	}
	return u, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
func (u *User) Touch()       { u.LastActiveAt = time.Now() }
