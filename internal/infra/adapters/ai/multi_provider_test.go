//go:build !integration

package ai

import (
	"context"
	"errors"
	"sync"
	"testing"

	"eduai-backend/internal/domain/ports/adapter"
)

type recordingProvider struct {
	name   string
	models []string
	calls  int
}

func (r *recordingProvider) Stream(_ context.Context, req adapter.ChatRequest, onDelta adapter.StreamHandler) (*adapter.Result, error) {
	r.calls++
	return &adapter.Result{Text: r.name}, nil
}

func (r *recordingProvider) Models(context.Context) ([]string, error) {
	return r.models, nil
}

func TestMultiProviderRoutesByFamily(t *testing.T) {
	t.Parallel()

	openaiP := &recordingProvider{name: "openai"}
	geminiP := &recordingProvider{name: "gemini"}
	m := NewMultiProvider(openaiP, geminiP)

	cases := map[string]string{
		"gemini-2.5-pro":                      "gemini",
		"gemini-2.0-flash-thinking-exp-01-21": "gemini",
		"gpt-4o":                              "openai",
		"claude-sonnet-4-20250514":            "openai", // anthropic via the compatible gateway
		"deepseek-ai/DeepSeek-V3":             "openai",
		"a-model-nobody-priced":               "openai", // unknown family defaults
	}
	for modelName, want := range cases {
		res, err := m.Stream(context.Background(), adapter.ChatRequest{Model: modelName}, nil)
		if err != nil {
			t.Fatalf("Stream(%s): %v", modelName, err)
		}
		if res.Text != want {
			t.Errorf("model %s routed to %s, want %s", modelName, res.Text, want)
		}
	}
}

func TestMultiProviderFallsBackWhenRouteMissing(t *testing.T) {
	t.Parallel()

	openaiP := &recordingProvider{name: "openai"}
	m := NewMultiProvider(openaiP, nil)

	res, err := m.Stream(context.Background(), adapter.ChatRequest{Model: "gemini-2.5-pro"}, nil)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if res.Text != "openai" {
		t.Fatalf("missing gemini route must fall back, got %s", res.Text)
	}
}

func TestMultiProviderMergesModelLists(t *testing.T) {
	t.Parallel()

	m := NewMultiProvider(
		&recordingProvider{models: []string{"gpt-4o", "o3-mini"}},
		&recordingProvider{models: []string{"gemini-2.5-pro", "gpt-4o"}},
	)
	list, err := m.Models(context.Background())
	if err != nil {
		t.Fatalf("Models: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("merged list = %v", list)
	}
}

func TestLimitedProviderRespectsContext(t *testing.T) {
	t.Parallel()

	blocked := make(chan struct{})
	inner := &blockingProvider{release: blocked, started: make(chan struct{})}
	lp := NewLimitedProvider(inner, 1)

	// occupy the only slot
	go func() { _, _ = lp.Stream(context.Background(), adapter.ChatRequest{}, nil) }()
	<-inner.started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := lp.Stream(ctx, adapter.ChatRequest{}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	close(blocked)
}

type blockingProvider struct {
	release chan struct{}
	started chan struct{}
	once    sync.Once
}

func (b *blockingProvider) Stream(context.Context, adapter.ChatRequest, adapter.StreamHandler) (*adapter.Result, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return &adapter.Result{}, nil
}

func (b *blockingProvider) Models(context.Context) ([]string, error) { return nil, nil }
