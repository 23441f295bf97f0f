//go:build integration

package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"eduai-backend/internal/config"
	"eduai-backend/internal/domain"
	"eduai-backend/internal/domain/model"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := NewClient(ctx, &config.RedisConfig{URL: addr, DB: 15})
	if err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestChatRepo_SaveGetRoundtrip(t *testing.T) {
	ctx := context.Background()
	repo := NewChatRepo(testClient(t), nil)

	chatID := uuid.NewString()
	userID := uuid.NewString()
	upd := &model.ChatUpdate{
		ID:     chatID,
		UserID: userID,
		Side:   model.SideLeft,
		Messages: []model.ChatMessage{
			{Role: "user", Content: "Koliko je 2+2?"},
			{Role: "assistant", Content: "4"},
		},
		Model:     "gpt-4o-mini",
		Title:     "Koliko je 2+2?",
		CreatedAt: time.Now(),
	}
	if err := repo.SaveChat(ctx, upd); err != nil {
		t.Fatalf("SaveChat: %v", err)
	}

	got, err := repo.GetChat(ctx, chatID, userID)
	if err != nil {
		t.Fatalf("GetChat: %v", err)
	}
	if got.ID != chatID || got.Path != "/c/"+chatID || got.Title != "Koliko je 2+2?" {
		t.Fatalf("identity fields: %+v", got)
	}
	if len(got.Left.Messages) != 2 || got.Left.Messages[1].Content != "4" {
		t.Fatalf("messages: %+v", got.Left.Messages)
	}

	if _, err := repo.GetChat(ctx, chatID, "someone-else"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("owner mismatch must report not-found, got %v", err)
	}

	if err := repo.RemoveChat(ctx, chatID, "/c/"+chatID, userID); err != nil {
		t.Fatalf("RemoveChat: %v", err)
	}
	if _, err := repo.GetChat(ctx, chatID, userID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("removed chat still readable")
	}
}

func TestChatRepo_SideScopedMerge(t *testing.T) {
	ctx := context.Background()
	repo := NewChatRepo(testClient(t), nil)

	chatID := uuid.NewString()
	userID := uuid.NewString()
	t.Cleanup(func() { _ = repo.RemoveChat(ctx, chatID, "/c/"+chatID, userID) })

	if err := repo.SaveChat(ctx, &model.ChatUpdate{
		ID: chatID, UserID: userID, Side: model.SideRight,
		Messages:     []model.ChatMessage{{Role: "user", Content: "desno"}},
		Model:        "gemini-2.5-flash",
		SystemPrompt: "budi sažet",
		CreatedAt:    time.Now(),
	}); err != nil {
		t.Fatalf("SaveChat right: %v", err)
	}
	if err := repo.SaveChat(ctx, &model.ChatUpdate{
		ID: chatID, UserID: userID, Side: model.SideLeft,
		Messages:  []model.ChatMessage{{Role: "user", Content: "lijevo"}},
		Model:     "gpt-4o",
		CreatedAt: time.Now(),
	}); err != nil {
		t.Fatalf("SaveChat left: %v", err)
	}

	got, err := repo.GetChat(ctx, chatID, userID)
	if err != nil {
		t.Fatalf("GetChat: %v", err)
	}
	if got.Right.Model != "gemini-2.5-flash" || got.Right.SystemPrompt != "budi sažet" {
		t.Fatalf("left write clobbered right: %+v", got.Right)
	}
	if got.Left.Model != "gpt-4o" {
		t.Fatalf("left pane: %+v", got.Left)
	}
}

func TestChatRepo_ListOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewChatRepo(testClient(t), nil)

	userID := uuid.NewString()
	base := time.Now()
	var ids []string
	for i := 0; i < 3; i++ {
		id := uuid.NewString()
		ids = append(ids, id)
		if err := repo.SaveChat(ctx, &model.ChatUpdate{
			ID: id, UserID: userID, Side: model.SideLeft,
			Messages:  []model.ChatMessage{{Role: "user", Content: "m"}},
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("SaveChat: %v", err)
		}
	}
	t.Cleanup(func() {
		for _, id := range ids {
			_ = repo.RemoveChat(ctx, id, "/c/"+id, userID)
		}
	})

	chats, err := repo.GetChats(ctx, userID)
	if err != nil {
		t.Fatalf("GetChats: %v", err)
	}
	if len(chats) != 3 || chats[0].ID != ids[2] || chats[2].ID != ids[0] {
		t.Fatalf("recency order broken")
	}

	// re-save the oldest with a fresh score; it moves to the front
	if err := repo.SaveChat(ctx, &model.ChatUpdate{
		ID: ids[0], UserID: userID, Side: model.SideLeft,
		Messages:  []model.ChatMessage{{Role: "user", Content: "opet"}},
		CreatedAt: base.Add(time.Minute),
	}); err != nil {
		t.Fatalf("SaveChat: %v", err)
	}
	chats, _ = repo.GetChats(ctx, userID)
	if chats[0].ID != ids[0] {
		t.Fatalf("re-saved chat must move to the front")
	}
}

func TestCounterRepo_Increment(t *testing.T) {
	ctx := context.Background()
	repo := NewCounterRepo(testClient(t))

	userID := uuid.NewString()
	period := model.BillingPeriod(time.Now())

	total, premium, err := repo.Counts(ctx, userID, period)
	if err != nil || total != 0 || premium != 0 {
		t.Fatalf("fresh counts: %d %d %v", total, premium, err)
	}

	if err := repo.Increment(ctx, userID, period, false); err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if err := repo.Increment(ctx, userID, period, true); err != nil {
		t.Fatalf("Increment premium: %v", err)
	}

	total, premium, err = repo.Counts(ctx, userID, period)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if total != 2 || premium != 1 {
		t.Fatalf("counts after increments: total=%d premium=%d", total, premium)
	}
}

func TestOutboxQueue_FIFO(t *testing.T) {
	ctx := context.Background()
	q := NewOutboxQueue(testClient(t))

	// drain anything left over
	for {
		if _, ok, _ := q.Dequeue(ctx); !ok {
			break
		}
	}

	_ = q.Enqueue(ctx, []byte("a"))
	_ = q.Enqueue(ctx, []byte("b"))

	p, ok, err := q.Dequeue(ctx)
	if err != nil || !ok || string(p) != "a" {
		t.Fatalf("first dequeue: %q %v %v", p, ok, err)
	}
	// requeued entries sit at the pop end and retry before newer work
	_ = q.Requeue(ctx, []byte("a"))
	p, _, _ = q.Dequeue(ctx)
	if string(p) != "a" {
		t.Fatalf("requeued entry must come back first, got %q", p)
	}
	p, _, _ = q.Dequeue(ctx)
	if string(p) != "b" {
		t.Fatalf("remaining entry: %q", p)
	}
	if _, ok, _ := q.Dequeue(ctx); ok {
		t.Fatalf("queue must be empty")
	}
}
