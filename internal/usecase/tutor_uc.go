package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"eduai-backend/internal/domain"
	"eduai-backend/internal/domain/model"
	"eduai-backend/internal/domain/ports/adapter"
	"eduai-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ TutorUseCase = (*tutorUC)(nil)

// RateLimitError carries the gate's user-facing denial reason. It unwraps to
// the domain sentinel of the ceiling that tripped.
type RateLimitError struct {
	Reason string
	Kind   error
}

func (e *RateLimitError) Error() string { return e.Reason }
func (e *RateLimitError) Unwrap() error { return e.Kind }

// TutorRequest is one chat turn: the conversation so far plus the new user
// message, targeted at one side of the chat.
type TutorRequest struct {
	ChatID   string
	UserID   string
	Tier     model.Tier
	Side     model.ChatSide
	Model    string
	System   string // user-supplied system prompt, appended to the family default
	Messages []model.ChatMessage
}

type TutorUseCase interface {
	// StreamChat gates the request, streams the model reply through onDelta
	// and, once the stream finishes, runs counters, usage and chat
	// persistence. Failures before completion leave no state behind.
	StreamChat(ctx context.Context, req *TutorRequest, onDelta adapter.StreamHandler) (*adapter.Result, error)
}

type tutorUC struct {
	limits   LimitsUseCase
	quota    QuotaUseCase
	history  HistoryUseCase
	provider adapter.ModelProvider
	outbox   repository.OutboxRepository
	log      zerolog.Logger

	streamTimeout time.Duration
	finishTimeout time.Duration
}

func NewTutorUseCase(
	limits LimitsUseCase,
	quota QuotaUseCase,
	history HistoryUseCase,
	provider adapter.ModelProvider,
	outbox repository.OutboxRepository,
	log zerolog.Logger,
) *tutorUC {
	return &tutorUC{
		limits:        limits,
		quota:         quota,
		history:       history,
		provider:      provider,
		outbox:        outbox,
		log:           log,
		streamTimeout: 5 * time.Minute,
		finishTimeout: 15 * time.Second,
	}
}

func (t *tutorUC) StreamChat(ctx context.Context, req *TutorRequest, onDelta adapter.StreamHandler) (*adapter.Result, error) {
	if req == nil || req.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if req.ChatID == "" || req.Model == "" || len(req.Messages) == 0 {
		return nil, domain.ErrInvalidArgument
	}
	side, ok := model.ParseChatSide(string(req.Side))
	if !ok {
		return nil, domain.ErrInvalidArgument
	}
	req.Side = side

	av, err := t.limits.CheckAvailability(ctx, req.UserID, req.Tier, req.Model)
	if err != nil {
		return nil, fmt.Errorf("availability gate: %w", err)
	}
	if !av.OK {
		// The tracker reports which ceiling tripped; a premium model can be
		// denied by the total ceiling.
		kind := av.Kind
		if kind == nil {
			kind = domain.ErrTotalLimitReached
		}
		return nil, &RateLimitError{Reason: av.Message, Kind: kind}
	}

	msgs := toAdapterMessages(req.Messages)
	within, err := t.quota.CheckQuota(ctx, req.UserID, req.Tier, req.Model, msgs)
	if err != nil {
		return nil, fmt.Errorf("quota gate: %w", err)
	}
	if !within {
		return nil, domain.ErrQuotaExceeded
	}

	chatReq := adapter.ChatRequest{
		Model:           req.Model,
		System:          systemPromptFor(req.Model, req.System),
		Messages:        msgs,
		ReasoningEffort: reasoningEffortFor(req.Model),
	}

	// The caller hanging up must not abort the upstream turn: accounting
	// still has to run once the provider finishes.
	upCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.streamTimeout)
	defer cancel()

	res, err := t.provider.Stream(upCtx, chatReq, onDelta)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	finCtx, finCancel := context.WithTimeout(context.WithoutCancel(ctx), t.finishTimeout)
	defer finCancel()
	t.finish(finCtx, req, res)

	return res, nil
}

// finish is step 6: counters, usage record, chat merge. It never fails the
// already-streamed response; accounting failures go to the outbox and chat
// write failures are logged.
func (t *tutorUC) finish(ctx context.Context, req *TutorRequest, res *adapter.Result) {
	incErr := t.limits.IncrementCount(ctx, req.UserID, req.Model)

	rec := model.NewUsageRecord(req.UserID, req.Model,
		res.Usage.PromptTokens, res.Usage.CompletionTokens, res.Usage.TotalTokens)
	usageErr := t.quota.SaveUsage(ctx, rec)

	if incErr != nil || usageErr != nil {
		t.log.Error().
			Str("user_id", req.UserID).
			Str("chat_id", req.ChatID).
			AnErr("increment", incErr).
			AnErr("usage", usageErr).
			Msg("completion accounting failed, enqueueing")
		task := &model.AccountingTask{
			Record:        *rec,
			Period:        model.BillingPeriod(time.Now()),
			Premium:       model.IsPremiumModel(req.Model),
			NeedIncrement: incErr != nil,
			NeedUsage:     usageErr != nil,
		}
		if payload, err := task.Encode(); err == nil {
			if err := t.outbox.Enqueue(ctx, payload); err != nil {
				t.log.Error().Err(err).Str("user_id", req.UserID).Msg("outbox enqueue failed")
			}
		}
	}

	upd := &model.ChatUpdate{
		ID:       req.ChatID,
		UserID:   req.UserID,
		Side:     req.Side,
		Messages: append(req.Messages, model.ChatMessage{Role: "assistant", Content: res.Text}),
		Model:    req.Model,
	}
	if req.System != "" {
		upd.SystemPrompt = req.System
	}
	if err := t.history.SaveChat(ctx, upd); err != nil {
		t.log.Error().Err(err).
			Str("user_id", req.UserID).
			Str("chat_id", req.ChatID).
			Msg("chat merge failed after completion")
	}
}

// systemPromptFor joins the family default with the user's custom prompt;
// some models reject a system role entirely.
func systemPromptFor(modelName, custom string) string {
	if model.SuppressSystemPrompt(modelName) {
		return ""
	}
	base := model.SystemPromptFor(model.FamilyFor(modelName))
	custom = strings.TrimSpace(custom)
	if custom == "" {
		return base
	}
	return base + "\n\n" + custom
}

func reasoningEffortFor(modelName string) string {
	if modelName == "o3-mini" {
		return "high"
	}
	return ""
}

// imageOnlyPrompt stands in for the user text when a turn carries images but
// no words; providers reject an empty text part.
const imageOnlyPrompt = "Analiziraj sliku."

func toAdapterMessages(msgs []model.ChatMessage) []adapter.Message {
	out := make([]adapter.Message, 0, len(msgs))
	for _, m := range msgs {
		am := adapter.Message{Role: m.Role, Content: m.Content}
		for _, a := range m.Attachments {
			if a.IsImage() {
				am.Images = append(am.Images, a.URL)
			}
		}
		if len(am.Images) > 0 && strings.TrimSpace(am.Content) == "" {
			am.Content = imageOnlyPrompt
		}
		out = append(out, am)
	}
	return out
}
