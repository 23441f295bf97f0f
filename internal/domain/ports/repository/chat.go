package repository

import (
	"context"

	"eduai-backend/internal/domain/model"
)

// ChatRepository persists chat aggregates and the per-user recency index.
type ChatRepository interface {
	// GetChats returns the user's chats most-recent-first. A missing user or
	// an unreachable store yields an empty slice, not an error.
	GetChats(ctx context.Context, userID string) ([]*model.Chat, error)

	// GetChat fails closed: a chat owned by someone else reports
	// domain.ErrNotFound even though the record exists.
	GetChat(ctx context.Context, id, userID string) (*model.Chat, error)

	// SaveChat applies a side-scoped merge: the common fields and the fields
	// of upd.Side are written together with the index entry as one atomic
	// unit; the other side's fields are untouched.
	SaveChat(ctx context.Context, upd *model.ChatUpdate) error

	// RemoveChat deletes the record, drops the index entry and invalidates
	// cached renderings of the list and detail views.
	RemoveChat(ctx context.Context, id, path, userID string) error
}
