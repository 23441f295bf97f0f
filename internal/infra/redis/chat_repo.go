package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"eduai-backend/internal/domain"
	"eduai-backend/internal/domain/model"
	"eduai-backend/internal/domain/ports/repository"
	"eduai-backend/internal/infra/metrics"
)

var _ repository.ChatRepository = (*ChatRepo)(nil)

// ChatRepo stores each chat as a hash `chat:{id}` and keeps a per-user
// recency index in the sorted set `user:chat:{userID}`. Writes touch only
// the fields owned by the writing side, so concurrent left/right completions
// cannot clobber each other.
type ChatRepo struct {
	client *Client
	views  *ViewCache
}

func NewChatRepo(client *Client, views *ViewCache) *ChatRepo {
	return &ChatRepo{client: client, views: views}
}

func chatKey(id string) string          { return "chat:" + id }
func userChatsKey(userID string) string { return "user:chat:" + userID }

func (r *ChatRepo) GetChats(ctx context.Context, userID string) ([]*model.Chat, error) {
	if userID == "" {
		return []*model.Chat{}, nil
	}
	keys, err := r.client.cli.ZRevRange(ctx, userChatsKey(userID), 0, -1).Result()
	if err != nil {
		// Listing degrades to empty rather than failing the request.
		return []*model.Chat{}, nil
	}
	if len(keys) == 0 {
		return []*model.Chat{}, nil
	}

	pipe := r.client.cli.Pipeline()
	cmds := make([]*redis.StringStringMapCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.HGetAll(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return []*model.Chat{}, nil
	}

	out := make([]*model.Chat, 0, len(keys))
	for _, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		c, err := chatFromFields(fields)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *ChatRepo) GetChat(ctx context.Context, id, userID string) (*model.Chat, error) {
	start := time.Now()
	fields, err := r.client.cli.HGetAll(ctx, chatKey(id)).Result()
	metrics.ObserveStoreOp("redis", "get_chat", start, err)
	if err != nil {
		// Reads degrade to not-found rather than failing the request; the
		// store failure lands in the op metric.
		return nil, domain.ErrNotFound
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}
	c, err := chatFromFields(fields)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	// Fail closed on owner mismatch.
	if userID != "" && c.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (r *ChatRepo) SaveChat(ctx context.Context, upd *model.ChatUpdate) error {
	fields, err := fieldsForUpdate(upd)
	if err != nil {
		return err
	}

	// Record upsert and index entry go out as one atomic unit.
	start := time.Now()
	pipe := r.client.cli.TxPipeline()
	pipe.HSet(ctx, chatKey(upd.ID), fields)
	pipe.ZAdd(ctx, userChatsKey(upd.UserID), &redis.Z{
		Score:  float64(upd.CreatedAt.UnixMilli()),
		Member: chatKey(upd.ID),
	})
	_, err = pipe.Exec(ctx)
	metrics.ObserveStoreOp("redis", "save_chat", start, err)
	if err != nil {
		return fmt.Errorf("save chat: %w", err)
	}

	if r.views != nil {
		r.views.Invalidate(ctx, upd.UserID, upd.ID)
	}
	return nil
}

func (r *ChatRepo) RemoveChat(ctx context.Context, id, path, userID string) error {
	start := time.Now()
	pipe := r.client.cli.TxPipeline()
	pipe.Del(ctx, chatKey(id))
	pipe.ZRem(ctx, userChatsKey(userID), chatKey(id))
	_, err := pipe.Exec(ctx)
	metrics.ObserveStoreOp("redis", "remove_chat", start, err)
	if err != nil {
		return fmt.Errorf("remove chat: %w", err)
	}

	if r.views != nil {
		r.views.Invalidate(ctx, userID, id)
	}
	_ = path // path identifies the rendered route; the view key is derived from id
	return nil
}

// --- hash field mapping ---

func fieldsForUpdate(upd *model.ChatUpdate) (map[string]interface{}, error) {
	msgs, err := json.Marshal(upd.Messages)
	if err != nil {
		return nil, fmt.Errorf("encode messages: %w", err)
	}
	fields := map[string]interface{}{
		"id":        upd.ID,
		"userId":    upd.UserID,
		"title":     upd.Title,
		"path":      model.ChatPath(upd.ID),
		"createdAt": strconv.FormatInt(upd.CreatedAt.UnixMilli(), 10),
	}
	switch upd.Side {
	case model.SideRight:
		fields["rightMessages"] = string(msgs)
		fields["rightModel"] = upd.Model
		fields["rightSystemPrompt"] = upd.SystemPrompt
	default:
		fields["leftMessages"] = string(msgs)
		fields["leftModel"] = upd.Model
		fields["leftSystemPrompt"] = upd.SystemPrompt
	}
	return fields, nil
}

func chatFromFields(fields map[string]string) (*model.Chat, error) {
	c := &model.Chat{
		ID:     fields["id"],
		UserID: fields["userId"],
		Title:  fields["title"],
		Path:   fields["path"],
	}
	if ms := fields["createdAt"]; ms != "" {
		n, err := strconv.ParseInt(ms, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("createdAt: %w", err)
		}
		c.CreatedAt = time.UnixMilli(n)
	}
	c.Left.Model = fields["leftModel"]
	c.Left.SystemPrompt = fields["leftSystemPrompt"]
	c.Right.Model = fields["rightModel"]
	c.Right.SystemPrompt = fields["rightSystemPrompt"]
	if raw := fields["leftMessages"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &c.Left.Messages); err != nil {
			return nil, fmt.Errorf("leftMessages: %w", err)
		}
	}
	if raw := fields["rightMessages"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &c.Right.Messages); err != nil {
			return nil, fmt.Errorf("rightMessages: %w", err)
		}
	}
	return c, nil
}
