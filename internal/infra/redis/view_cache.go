package redis

import (
	"context"
	"time"
)

// ViewCache holds rendered JSON of the chat list and detail views so the
// serving layer can answer without re-reading the chat hashes. Writes and
// removals invalidate the affected entries.
type ViewCache struct {
	client *Client
	ttl    time.Duration
}

func NewViewCache(client *Client, ttl time.Duration) *ViewCache {
	return &ViewCache{client: client, ttl: ttl}
}

func chatsViewKey(userID string) string { return "view:chats:" + userID }
func chatViewKey(chatID string) string  { return "view:chat:" + chatID }

func (v *ViewCache) GetChatsView(ctx context.Context, userID string) ([]byte, bool) {
	s, err := v.client.Get(ctx, chatsViewKey(userID))
	if err != nil {
		return nil, false
	}
	return []byte(s), true
}

func (v *ViewCache) StoreChatsView(ctx context.Context, userID string, body []byte) {
	_ = v.client.Set(ctx, chatsViewKey(userID), body, v.ttl)
}

func (v *ViewCache) GetChatView(ctx context.Context, chatID string) ([]byte, bool) {
	s, err := v.client.Get(ctx, chatViewKey(chatID))
	if err != nil {
		return nil, false
	}
	return []byte(s), true
}

func (v *ViewCache) StoreChatView(ctx context.Context, chatID string, body []byte) {
	_ = v.client.Set(ctx, chatViewKey(chatID), body, v.ttl)
}

// Invalidate drops the cached list view of the owner and the detail view of
// the chat. Best-effort: a failed delete only means a stale view until TTL.
func (v *ViewCache) Invalidate(ctx context.Context, userID, chatID string) {
	_ = v.client.Del(ctx, chatsViewKey(userID), chatViewKey(chatID))
}
