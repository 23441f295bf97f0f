package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"eduai-backend/internal/domain/ports/adapter"
)

var _ adapter.ModelProvider = (*GeminiProvider)(nil)

type GeminiProvider struct {
	client *genai.Client
	models []string
	maxOut int
}

// NewGeminiProvider creates a Gemini provider using the official SDK.
func NewGeminiProvider(ctx context.Context, apiKey, baseURL string, models []string, maxOut int) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiProvider{client: c, models: models, maxOut: maxOut}, nil
}

func (g *GeminiProvider) Models(ctx context.Context) ([]string, error) {
	return g.models, nil
}

func (g *GeminiProvider) Stream(ctx context.Context, req adapter.ChatRequest, onDelta adapter.StreamHandler) (*adapter.Result, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("gemini: no messages")
	}
	contents := toGenAIContents(req.Messages)

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.maxOut),
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	res := &adapter.Result{}
	var forwardErr error
	for resp, err := range g.client.Models.GenerateContentStream(ctx, req.Model, contents, cfg) {
		if err != nil {
			return nil, fmt.Errorf("gemini stream: %w", err)
		}
		if delta := chunkText(resp); delta != "" {
			res.Text += delta
			if forwardErr == nil && onDelta != nil {
				forwardErr = onDelta(delta)
			}
		}
		if resp.UsageMetadata != nil {
			res.Usage = adapter.Usage{
				PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
				CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
				TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
			}
		}
	}
	return res, nil
}

func chunkText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

func toGenAIContents(msgs []adapter.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := genai.RoleUser
		switch strings.ToLower(m.Role) {
		case "assistant", "model":
			role = genai.RoleModel
		}
		parts := []*genai.Part{{Text: m.Content}}
		for _, u := range m.Images {
			parts = append(parts, &genai.Part{
				FileData: &genai.FileData{FileURI: u},
			})
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}
	return out
}
