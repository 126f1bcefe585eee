//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"telegram-hosting-bot/internal/domain"
	"telegram-hosting-bot/internal/domain/model"
	"telegram-hosting-bot/internal/domain/ports/adapter"
	"telegram-hosting-bot/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// =============================
// Repositories
// =============================

// ---- In-memory UserRepository ----

type MockUserRepo struct {
	mu   sync.Mutex
	byID map[string]*model.User
	byTG map[int64]*model.User

	SaveFunc             func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByTelegramIDFunc func(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error)
	ListFunc             func(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{byID: map[string]*model.User{}, byTG: map[int64]*model.User{}}
}

func (r *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	cp.Stats.Referrals = append([]int64(nil), u.Stats.Referrals...)
	r.byID[cp.ID] = &cp
	r.byTG[cp.TelegramID] = &cp
	return nil
}

func (r *MockUserRepo) MarkActive(ctx context.Context, tx repository.Tx, tgID int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byTG[tgID]
	if !ok {
		return domain.ErrNotFound
	}
	u.LastActiveAt = at
	return nil
}

func (r *MockUserRepo) FindByTelegramID(ctx context.Context, tx repository.Tx, tgID int64) (*model.User, error) {
	if r.FindByTelegramIDFunc != nil {
		return r.FindByTelegramIDFunc(ctx, tx, tgID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byTG[tgID]; ok {
		cp := *u
		cp.Stats.Referrals = append([]int64(nil), u.Stats.Referrals...)
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockUserRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.User, error) {
	if r.ListFunc != nil {
		return r.ListFunc(ctx, tx, offset, limit)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.User, 0, len(r.byTG))
	for _, u := range r.byTG {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TelegramID < out[j].TelegramID })
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *MockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byTG), nil
}

func (r *MockUserRepo) SumFileCounts(ctx context.Context, tx repository.Tx) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, u := range r.byTG {
		total += u.Stats.FileCount
	}
	return total, nil
}

func (r *MockUserRepo) SetBaseLimitAll(ctx context.Context, tx repository.Tx, limit int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byTG {
		u.Stats.BaseLimit = limit
	}
	return nil
}

func (r *MockUserRepo) SetReferralRewardAll(ctx context.Context, tx repository.Tx, reward int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byTG {
		u.Stats.ReferralReward = reward
	}
	return nil
}

// ---- In-memory ModerationRepository ----

type MockModerationRepo struct {
	mu     sync.Mutex
	banned map[int64]struct{}

	IsBannedFunc func(ctx context.Context, tx repository.Tx, tgID int64) (bool, error)
}

var _ repository.ModerationRepository = (*MockModerationRepo)(nil)

func NewMockModerationRepo() *MockModerationRepo {
	return &MockModerationRepo{banned: map[int64]struct{}{}}
}

func (r *MockModerationRepo) Ban(ctx context.Context, tx repository.Tx, tgID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.banned[tgID] = struct{}{}
	return nil
}

func (r *MockModerationRepo) Unban(ctx context.Context, tx repository.Tx, tgID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.banned, tgID)
	return nil
}

func (r *MockModerationRepo) IsBanned(ctx context.Context, tx repository.Tx, tgID int64) (bool, error) {
	if r.IsBannedFunc != nil {
		return r.IsBannedFunc(ctx, tx, tgID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.banned[tgID]
	return ok, nil
}

func (r *MockModerationRepo) CountBanned(ctx context.Context, tx repository.Tx) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.banned), nil
}

// ---- In-memory DailyUsageRepository ----

type MockUsageRepo struct {
	mu   sync.Mutex
	seen map[string]map[int64]struct{}
}

var _ repository.DailyUsageRepository = (*MockUsageRepo)(nil)

func NewMockUsageRepo() *MockUsageRepo {
	return &MockUsageRepo{seen: map[string]map[int64]struct{}{}}
}

func dayKey(day time.Time) string { return day.UTC().Format("2006-01-02") }

func (r *MockUsageRepo) MarkSeen(ctx context.Context, tx repository.Tx, day time.Time, tgID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := dayKey(day)
	if r.seen[k] == nil {
		r.seen[k] = map[int64]struct{}{}
	}
	r.seen[k][tgID] = struct{}{}
	return nil
}

func (r *MockUsageRepo) CountForDay(ctx context.Context, tx repository.Tx, day time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen[dayKey(day)]), nil
}

// ---- In-memory StateRepository ----

type MockStateRepo struct {
	mu     sync.Mutex
	states map[int64]*repository.ConversationState

	GetStateFunc func(ctx context.Context, tgID int64) (*repository.ConversationState, error)
}

var _ repository.StateRepository = (*MockStateRepo)(nil)

func NewMockStateRepo() *MockStateRepo {
	return &MockStateRepo{states: map[int64]*repository.ConversationState{}}
}

func (r *MockStateRepo) SetState(ctx context.Context, tgID int64, state *repository.ConversationState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *state
	r.states[tgID] = &cp
	return nil
}

func (r *MockStateRepo) GetState(ctx context.Context, tgID int64) (*repository.ConversationState, error) {
	if r.GetStateFunc != nil {
		return r.GetStateFunc(ctx, tgID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.states[tgID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (r *MockStateRepo) ClearState(ctx context.Context, tgID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, tgID)
	return nil
}

// ---- TransactionManager ----

// MockTxManager serializes transaction bodies with a mutex, which stands in
// for the serializable isolation the real manager requests.
type MockTxManager struct {
	mu sync.Mutex

	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, repository.NoTX)
}

// =============================
// Adapters
// =============================

// ---- Mock BotAdapter ----

type SentMessage struct {
	TgID    int64
	Text    string
	PhotoID string
	VideoID string
	AnimID  string
}

type MockBot struct {
	mu   sync.Mutex
	Sent []SentMessage

	SendMessageFunc func(ctx context.Context, tgID int64, text string) error
	SendPhotoFunc   func(ctx context.Context, tgID int64, fileID, caption string) error
}

var _ adapter.BotAdapter = (*MockBot)(nil)

func NewMockBot() *MockBot { return &MockBot{} }

func (b *MockBot) record(m SentMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Sent = append(b.Sent, m)
}

func (b *MockBot) Messages() []SentMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]SentMessage(nil), b.Sent...)
}

func (b *MockBot) SendMessage(ctx context.Context, tgID int64, text string) error {
	if b.SendMessageFunc != nil {
		return b.SendMessageFunc(ctx, tgID, text)
	}
	b.record(SentMessage{TgID: tgID, Text: text})
	return nil
}

func (b *MockBot) SendPhoto(ctx context.Context, tgID int64, fileID, caption string) error {
	if b.SendPhotoFunc != nil {
		return b.SendPhotoFunc(ctx, tgID, fileID, caption)
	}
	b.record(SentMessage{TgID: tgID, PhotoID: fileID, Text: caption})
	return nil
}

func (b *MockBot) SendVideo(ctx context.Context, tgID int64, fileID, caption string) error {
	b.record(SentMessage{TgID: tgID, VideoID: fileID, Text: caption})
	return nil
}

func (b *MockBot) SendAnimation(ctx context.Context, tgID int64, fileID string) error {
	b.record(SentMessage{TgID: tgID, AnimID: fileID})
	return nil
}

func (b *MockBot) SendButtons(ctx context.Context, tgID int64, text string, rows [][]adapter.InlineButton) error {
	b.record(SentMessage{TgID: tgID, Text: text})
	return nil
}

// ---- In-memory BlobStore ----

type MockBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	PutFunc    func(ctx context.Context, key string, data []byte, contentType string) error
	ExistsFunc func(ctx context.Context, key string) (bool, error)
}

var _ adapter.BlobStore = (*MockBlobStore)(nil)

func NewMockBlobStore() *MockBlobStore {
	return &MockBlobStore{objects: map[string][]byte{}}
}

func (s *MockBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if s.PutFunc != nil {
		return s.PutFunc(ctx, key, data, contentType)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

func (s *MockBlobStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *MockBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	if s.ExistsFunc != nil {
		return s.ExistsFunc(ctx, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok, nil
}

func (s *MockBlobStore) ListPrefix(ctx context.Context, prefix string) ([]adapter.BlobObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []adapter.BlobObject
	for k, v := range s.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, adapter.BlobObject{Key: k, Size: int64(len(v))})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *MockBlobStore) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

func (s *MockBlobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
