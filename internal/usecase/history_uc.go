package usecase

import (
	"context"
	"time"

	"eduai-backend/internal/domain"
	"eduai-backend/internal/domain/model"
	"eduai-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ HistoryUseCase = (*historyUC)(nil)

type HistoryUseCase interface {
	GetChats(ctx context.Context, userID string) ([]*model.Chat, error)
	GetChat(ctx context.Context, id, userID string) (*model.Chat, error)
	SaveChat(ctx context.Context, upd *model.ChatUpdate) error
	RemoveChat(ctx context.Context, id, userID string) error
}

type historyUC struct {
	chats repository.ChatRepository
}

func NewHistoryUseCase(chats repository.ChatRepository) *historyUC {
	return &historyUC{chats: chats}
}

// GetChats is fail-open: a store failure degrades to an empty list at the
// repository, never an error page for the user.
func (h *historyUC) GetChats(ctx context.Context, userID string) ([]*model.Chat, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	return h.chats.GetChats(ctx, userID)
}

func (h *historyUC) GetChat(ctx context.Context, id, userID string) (*model.Chat, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	return h.chats.GetChat(ctx, id, userID)
}

func (h *historyUC) SaveChat(ctx context.Context, upd *model.ChatUpdate) error {
	if upd == nil || upd.ID == "" || upd.UserID == "" {
		return domain.ErrInvalidArgument
	}
	if _, ok := model.ParseChatSide(string(upd.Side)); !ok {
		return domain.ErrInvalidArgument
	}
	if upd.Title == "" {
		upd.Title = model.TitleFromMessages(upd.Messages)
	}
	if upd.CreatedAt.IsZero() {
		upd.CreatedAt = time.Now()
	}
	return h.chats.SaveChat(ctx, upd)
}

func (h *historyUC) RemoveChat(ctx context.Context, id, userID string) error {
	if userID == "" {
		return domain.ErrUnauthorized
	}
	if id == "" {
		return domain.ErrInvalidArgument
	}
	return h.chats.RemoveChat(ctx, id, model.ChatPath(id), userID)
}
