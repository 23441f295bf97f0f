//go:build !integration

package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"eduai-backend/internal/domain"
	"eduai-backend/internal/domain/model"
	"eduai-backend/internal/domain/ports/adapter"
	"eduai-backend/internal/domain/ports/repository"
)

// -----------------------------
// In-memory counter repository
// -----------------------------

type memCounterRepo struct {
	mu      sync.Mutex
	total   map[string]int64 // userID:period
	premium map[string]int64

	countsErr error
	incErr    error
	incCalls  int
}

var _ repository.MessageCounterRepository = (*memCounterRepo)(nil)

func newMemCounterRepo() *memCounterRepo {
	return &memCounterRepo{total: map[string]int64{}, premium: map[string]int64{}}
}

func ckey(userID, period string) string { return userID + ":" + period }

func (m *memCounterRepo) Counts(_ context.Context, userID, period string) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countsErr != nil {
		return 0, 0, m.countsErr
	}
	return m.total[ckey(userID, period)], m.premium[ckey(userID, period)], nil
}

func (m *memCounterRepo) Increment(_ context.Context, userID, period string, premium bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incCalls++
	if m.incErr != nil {
		return m.incErr
	}
	m.total[ckey(userID, period)]++
	if premium {
		m.premium[ckey(userID, period)]++
	}
	return nil
}

func (m *memCounterRepo) set(userID, period string, total, premium int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total[ckey(userID, period)] = total
	m.premium[ckey(userID, period)] = premium
}

// -----------------------------
// In-memory usage repository
// -----------------------------

type memUsageRepo struct {
	mu       sync.Mutex
	records  map[string]*model.UsageRecord
	ceilings map[string]int64

	appendErr error
	sumErr    error
}

var _ repository.UsageRepository = (*memUsageRepo)(nil)

func newMemUsageRepo() *memUsageRepo {
	return &memUsageRepo{records: map[string]*model.UsageRecord{}, ceilings: map[string]int64{}}
}

func (m *memUsageRepo) Append(_ context.Context, rec *model.UsageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	if _, ok := m.records[rec.ID]; ok {
		return nil // duplicate id is an idempotent no-op
	}
	cp := *rec
	m.records[rec.ID] = &cp
	return nil
}

func (m *memUsageRepo) SumCostMicros(_ context.Context, userID string, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sumErr != nil {
		return 0, m.sumErr
	}
	var sum int64
	for _, r := range m.records {
		if r.UserID == userID && !r.CreatedAt.Before(since) {
			sum += r.CostMicros
		}
	}
	return sum, nil
}

func (m *memUsageRepo) ListByUser(_ context.Context, userID string, limit int) ([]*model.UsageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.UsageRecord
	for _, r := range m.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memUsageRepo) QuotaCeilingMicros(_ context.Context, userID string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.ceilings[userID]
	return c, ok, nil
}

func (m *memUsageRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// -----------------------------
// In-memory chat repository
// -----------------------------

type memChatRepo struct {
	mu    sync.Mutex
	chats map[string]*model.Chat
	// recency index: userID -> chatID -> score
	index map[string]map[string]int64

	saveErr error
	getErr  error
}

var _ repository.ChatRepository = (*memChatRepo)(nil)

func newMemChatRepo() *memChatRepo {
	return &memChatRepo{chats: map[string]*model.Chat{}, index: map[string]map[string]int64{}}
}

func (m *memChatRepo) GetChats(_ context.Context, userID string) ([]*model.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return []*model.Chat{}, nil // read path degrades to empty
	}
	idx := m.index[userID]
	ids := make([]string, 0, len(idx))
	for id := range idx {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return idx[ids[i]] > idx[ids[j]] })
	out := make([]*model.Chat, 0, len(ids))
	for _, id := range ids {
		if c, ok := m.chats[id]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memChatRepo) GetChat(_ context.Context, id, userID string) (*model.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if userID != "" && c.UserID != userID {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memChatRepo) SaveChat(_ context.Context, upd *model.ChatUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	c, ok := m.chats[upd.ID]
	if !ok {
		c = &model.Chat{ID: upd.ID, UserID: upd.UserID}
		m.chats[upd.ID] = c
	}
	c.Title = upd.Title
	c.Path = model.ChatPath(upd.ID)
	c.CreatedAt = upd.CreatedAt
	pane := c.Pane(upd.Side)
	pane.Messages = append([]model.ChatMessage(nil), upd.Messages...)
	pane.Model = upd.Model
	pane.SystemPrompt = upd.SystemPrompt

	if m.index[upd.UserID] == nil {
		m.index[upd.UserID] = map[string]int64{}
	}
	m.index[upd.UserID][upd.ID] = upd.CreatedAt.UnixMilli()
	return nil
}

func (m *memChatRepo) RemoveChat(_ context.Context, id, _, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chats, id)
	if idx := m.index[userID]; idx != nil {
		delete(idx, id)
	}
	return nil
}

// -----------------------------
// Stub model provider
// -----------------------------

type stubProvider struct {
	mu     sync.Mutex
	reply  string
	usage  adapter.Usage
	err    error
	calls  int
	lastIn adapter.ChatRequest
}

var _ adapter.ModelProvider = (*stubProvider)(nil)

func (s *stubProvider) Stream(_ context.Context, req adapter.ChatRequest, onDelta adapter.StreamHandler) (*adapter.Result, error) {
	s.mu.Lock()
	s.calls++
	s.lastIn = req
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if onDelta != nil {
		_ = onDelta(s.reply)
	}
	return &adapter.Result{Text: s.reply, Usage: s.usage}, nil
}

func (s *stubProvider) Models(context.Context) ([]string, error) { return nil, nil }

// -----------------------------
// In-memory outbox
// -----------------------------

type memOutbox struct {
	mu      sync.Mutex
	entries [][]byte
}

var _ repository.OutboxRepository = (*memOutbox)(nil)

func (m *memOutbox) Enqueue(_ context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, payload)
	return nil
}

func (m *memOutbox) Dequeue(_ context.Context) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return nil, false, nil
	}
	p := m.entries[0]
	m.entries = m.entries[1:]
	return p, true, nil
}

func (m *memOutbox) Requeue(_ context.Context, payload []byte) error {
	return m.Enqueue(context.Background(), payload)
}

func (m *memOutbox) Len(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.entries)), nil
}

// -----------------------------
// Fixed prompt estimator
// -----------------------------

type fixedEstimator struct{ tokens int }

func (f fixedEstimator) EstimatePrompt(string, []adapter.Message) int { return f.tokens }
