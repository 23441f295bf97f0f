package ai

import (
	"context"
	"strings"
	"time"

	"eduai-backend/internal/domain/ports/adapter"
)

var _ adapter.ModelProvider = (*NoopProvider)(nil)

// NoopProvider streams a canned reply for local/dev runs without provider
// keys.
type NoopProvider struct{}

func NewNoopProvider() *NoopProvider { return &NoopProvider{} }

func (n *NoopProvider) Models(ctx context.Context) ([]string, error) {
	return []string{"noop-model"}, nil
}

func (n *NoopProvider) Stream(ctx context.Context, req adapter.ChatRequest, onDelta adapter.StreamHandler) (*adapter.Result, error) {
	const reply = "This is a development reply. No model was called."
	words := strings.SplitAfter(reply, " ")
	res := &adapter.Result{}
	for _, w := range words {
		select {
		case <-time.After(20 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		res.Text += w
		if onDelta != nil {
			_ = onDelta(w)
		}
	}
	res.Usage = adapter.Usage{
		PromptTokens:     len(req.Messages),
		CompletionTokens: len(words),
		TotalTokens:      len(req.Messages) + len(words),
	}
	return res, nil
}
