package repository

import (
	"context"
)

// ConversationState holds an admin's progress in a multi-step console flow.
// Exactly one state is active per identity; setting a new state supersedes
// any unconsumed one.
type ConversationState struct {
	Step string            `json:"step"` // e.g., "awaiting_ban_target"
	Data map[string]string `json:"data"` // collected info, if any
}

// StateRepository is the port for managing conversational state.
type StateRepository interface {
	SetState(ctx context.Context, tgID int64, state *ConversationState) error
	// GetState returns nil without error when no state is pending.
	GetState(ctx context.Context, tgID int64) (*ConversationState, error)
	ClearState(ctx context.Context, tgID int64) error
}
