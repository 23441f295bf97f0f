package ai

import (
	"context"

	"eduai-backend/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.ModelProvider = (*limitedProvider)(nil)

type limitedProvider struct {
	inner adapter.ModelProvider
	sem   chan struct{}
}

// NewLimitedProvider caps concurrent upstream calls with a semaphore.
func NewLimitedProvider(inner adapter.ModelProvider, maxConcurrent int) adapter.ModelProvider {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedProvider{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedProvider) Stream(ctx context.Context, req adapter.ChatRequest, onDelta adapter.StreamHandler) (*adapter.Result, error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-l.sem }()
	return l.inner.Stream(ctx, req, onDelta)
}

func (l *limitedProvider) Models(ctx context.Context) ([]string, error) {
	return l.inner.Models(ctx)
}
