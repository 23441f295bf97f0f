package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"eduai-backend/internal/domain/ports/adapter"
)

// Compile-time assurance this provider satisfies the port
var _ adapter.ModelProvider = (*OpenAIProvider)(nil)

// OpenAIProvider streams chat completions through the official SDK. A custom
// base URL also serves OpenAI-compatible gateways (Together, Fireworks).
type OpenAIProvider struct {
	client openai.Client
	models []string
}

func NewOpenAIProvider(apiKey, baseURL string, models []string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIProvider{client: openai.NewClient(opts...), models: models}, nil
}

func (o *OpenAIProvider) Models(ctx context.Context) ([]string, error) {
	return o.models, nil
}

func (o *OpenAIProvider) Stream(ctx context.Context, req adapter.ChatRequest, onDelta adapter.StreamHandler) (*adapter.Result, error) {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: toOpenAIMessages(req),
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}
	if req.ReasoningEffort != "" {
		params.ReasoningEffort = shared.ReasoningEffort(req.ReasoningEffort)
	}

	stream := o.client.Chat.Completions.NewStreaming(ctx, params)
	res := &adapter.Result{}
	var forwardErr error
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) > 0 {
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				res.Text += delta
				if forwardErr == nil && onDelta != nil {
					// A sink error stops forwarding, not the upstream call:
					// usage still has to arrive for accounting.
					forwardErr = onDelta(delta)
				}
			}
		}
		if chunk.Usage.TotalTokens > 0 {
			res.Usage = adapter.Usage{
				PromptTokens:     int(chunk.Usage.PromptTokens),
				CompletionTokens: int(chunk.Usage.CompletionTokens),
				TotalTokens:      int(chunk.Usage.TotalTokens),
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("openai stream: %w", err)
	}
	return res, nil
}

func toOpenAIMessages(req adapter.ChatRequest) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		out = append(out, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			if len(m.Images) == 0 {
				out = append(out, openai.UserMessage(m.Content))
				continue
			}
			parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(m.Images)+1)
			parts = append(parts, openai.TextContentPart(m.Content))
			for _, u := range m.Images {
				parts = append(parts, openai.ImageContentPart(
					openai.ChatCompletionContentPartImageImageURLParam{URL: u}))
			}
			out = append(out, openai.UserMessage(parts))
		}
	}
	return out
}
