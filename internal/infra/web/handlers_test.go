//go:build !integration

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"eduai-backend/internal/domain"
	"eduai-backend/internal/domain/model"
	"eduai-backend/internal/domain/ports/adapter"
	"eduai-backend/internal/usecase"
)

// --- stubs over the usecase interfaces ---

type stubTutor struct {
	deltas []string
	res    *adapter.Result
	err    error
	gotReq *usecase.TutorRequest
}

func (s *stubTutor) StreamChat(_ context.Context, req *usecase.TutorRequest, onDelta adapter.StreamHandler) (*adapter.Result, error) {
	s.gotReq = req
	if s.err != nil {
		return nil, s.err
	}
	for _, d := range s.deltas {
		if onDelta != nil {
			_ = onDelta(d)
		}
	}
	return s.res, nil
}

type stubHistory struct {
	chats   []*model.Chat
	chat    *model.Chat
	getErr  error
	removed []string
}

func (s *stubHistory) GetChats(context.Context, string) ([]*model.Chat, error) {
	return s.chats, nil
}

func (s *stubHistory) GetChat(_ context.Context, id, _ string) (*model.Chat, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.chat, nil
}

func (s *stubHistory) SaveChat(context.Context, *model.ChatUpdate) error { return nil }

func (s *stubHistory) RemoveChat(_ context.Context, id, _ string) error {
	s.removed = append(s.removed, id)
	return nil
}

type stubQuota struct {
	recs []*model.UsageRecord
}

func (s *stubQuota) CheckQuota(context.Context, string, model.Tier, string, []adapter.Message) (bool, error) {
	return true, nil
}

func (s *stubQuota) SaveUsage(context.Context, *model.UsageRecord) error { return nil }

func (s *stubQuota) ListUsage(context.Context, string, int) ([]*model.UsageRecord, error) {
	return s.recs, nil
}

type testEnv struct {
	tutor   *stubTutor
	history *stubHistory
	quota   *stubQuota
	auth    *AuthManager
	handler http.Handler
}

func newTestEnv() *testEnv {
	e := &testEnv{
		tutor: &stubTutor{
			deltas: []string{"od", "govor"},
			res:    &adapter.Result{Text: "odgovor", Usage: adapter.Usage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3}},
		},
		history: &stubHistory{},
		quota:   &stubQuota{},
		auth:    NewAuthManager("test-secret", "eduai_session", time.Hour),
	}
	log := zerolog.Nop()
	srv := NewServer(e.tutor, e.history, e.quota, e.auth, nil, nil,
		"gpt-4o-mini", 5*time.Second, &log)
	e.handler = srv.Routes()
	return e
}

func (e *testEnv) request(t *testing.T, method, path string, body []byte, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	if authed {
		tok, err := e.auth.Mint("u1", model.TierFree)
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		r.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var eb errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &eb); err != nil {
		t.Fatalf("error body not JSON: %v (%s)", err, w.Body.String())
	}
	return eb
}

// --- tests ---

func TestAPIRequiresSession(t *testing.T) {
	t.Parallel()

	e := newTestEnv()
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/chat"},
		{http.MethodGet, "/api/v1/chats"},
		{http.MethodGet, "/api/v1/usage"},
	} {
		w := e.request(t, tc.method, tc.path, nil, false)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s without token: status %d", tc.method, tc.path, w.Code)
		}
		if eb := decodeError(t, w); eb.Status != http.StatusUnauthorized {
			t.Fatalf("error body: %+v", eb)
		}
	}
}

func TestChatStreamsPlainText(t *testing.T) {
	t.Parallel()

	e := newTestEnv()
	body, _ := json.Marshal(chatRequestBody{
		ID:         "c1",
		Model:      "gpt-4o",
		ChatAreaID: "right",
		Messages:   []model.ChatMessage{{Role: "user", Content: "Koliko je 2+2?"}},
	})
	w := e.request(t, http.MethodPost, "/api/v1/chat", body, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	if got := w.Body.String(); got != "odgovor" {
		t.Fatalf("streamed body = %q", got)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type = %q", ct)
	}

	req := e.tutor.gotReq
	if req.UserID != "u1" || req.Side != model.SideRight || req.Model != "gpt-4o" {
		t.Fatalf("request not mapped: %+v", req)
	}
}

func TestChatDefaultsModelAndSide(t *testing.T) {
	t.Parallel()

	e := newTestEnv()
	body, _ := json.Marshal(chatRequestBody{
		Messages: []model.ChatMessage{{Role: "user", Content: "x"}},
	})
	w := e.request(t, http.MethodPost, "/api/v1/chat", body, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	req := e.tutor.gotReq
	if req.Model != "gpt-4o-mini" || req.Side != model.SideLeft || req.ChatID == "" {
		t.Fatalf("defaults not applied: %+v", req)
	}
}

func TestChatRateLimitedBody(t *testing.T) {
	t.Parallel()

	e := newTestEnv()
	e.tutor.err = &usecase.RateLimitError{
		Reason: "Dosegnut je mjesečni limit poruka.",
		Kind:   domain.ErrTotalLimitReached,
	}
	body, _ := json.Marshal(chatRequestBody{Messages: []model.ChatMessage{{Content: "x"}}})
	w := e.request(t, http.MethodPost, "/api/v1/chat", body, true)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status %d", w.Code)
	}
	if eb := decodeError(t, w); eb.Error != "Dosegnut je mjesečni limit poruka." {
		t.Fatalf("denial message lost: %+v", eb)
	}
}

func TestChatQuotaExceededBody(t *testing.T) {
	t.Parallel()

	e := newTestEnv()
	e.tutor.err = domain.ErrQuotaExceeded
	body, _ := json.Marshal(chatRequestBody{Messages: []model.ChatMessage{{Content: "x"}}})
	w := e.request(t, http.MethodPost, "/api/v1/chat", body, true)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status %d", w.Code)
	}
	if eb := decodeError(t, w); eb.Error == "" || eb.Status != http.StatusTooManyRequests {
		t.Fatalf("error body: %+v", eb)
	}
}

func TestChatUpstreamFailureIs500(t *testing.T) {
	t.Parallel()

	e := newTestEnv()
	e.tutor.err = domain.ErrUpstream
	body, _ := json.Marshal(chatRequestBody{Messages: []model.ChatMessage{{Content: "x"}}})
	w := e.request(t, http.MethodPost, "/api/v1/chat", body, true)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", w.Code)
	}
}

func TestListChats(t *testing.T) {
	t.Parallel()

	e := newTestEnv()
	e.history.chats = []*model.Chat{
		{ID: "c2", UserID: "u1", Title: "Integrali", Path: "/c/c2", CreatedAt: time.Now()},
		{ID: "c1", UserID: "u1", Title: "Derivacije", Path: "/c/c1", CreatedAt: time.Now().Add(-time.Hour)},
	}
	w := e.request(t, http.MethodGet, "/api/v1/chats", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var items []chatListItem
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 || items[0].ID != "c2" || items[0].Path != "/c/c2" {
		t.Fatalf("items: %+v", items)
	}
}

func TestGetChatNotFound(t *testing.T) {
	t.Parallel()

	e := newTestEnv()
	e.history.getErr = domain.ErrNotFound
	w := e.request(t, http.MethodGet, "/api/v1/chats/c1", nil, true)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status %d", w.Code)
	}
}

func TestGetChatRendersBothSides(t *testing.T) {
	t.Parallel()

	e := newTestEnv()
	e.history.chat = &model.Chat{
		ID: "c1", UserID: "u1", Title: "t", Path: "/c/c1", CreatedAt: time.Now(),
		Left:  model.SidePane{Messages: []model.ChatMessage{{Role: "user", Content: "l"}}, Model: "gpt-4o"},
		Right: model.SidePane{Messages: []model.ChatMessage{{Role: "user", Content: "r"}}, Model: "gemini-2.5-flash"},
	}
	w := e.request(t, http.MethodGet, "/api/v1/chats/c1", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var v chatView
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Left.Model != "gpt-4o" || v.Right.Model != "gemini-2.5-flash" {
		t.Fatalf("sides: %+v", v)
	}
}

func TestRemoveChat(t *testing.T) {
	t.Parallel()

	e := newTestEnv()
	w := e.request(t, http.MethodDelete, "/api/v1/chats/c9", nil, true)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status %d", w.Code)
	}
	if len(e.history.removed) != 1 || e.history.removed[0] != "c9" {
		t.Fatalf("removed: %v", e.history.removed)
	}
}

func TestUsageEndpoint(t *testing.T) {
	t.Parallel()

	e := newTestEnv()
	rec := model.NewUsageRecord("u1", "gpt-4o", 10, 5, 15)
	rec.CostMicros = 42
	e.quota.recs = []*model.UsageRecord{rec}

	w := e.request(t, http.MethodGet, "/api/v1/usage", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var items []usageItem
	if err := json.Unmarshal(w.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].CostMicros != 42 || items[0].Model != "gpt-4o" {
		t.Fatalf("items: %+v", items)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	e := newTestEnv()
	w := e.request(t, http.MethodGet, "/healthz", nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
}
