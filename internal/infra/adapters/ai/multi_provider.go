package ai

import (
	"context"

	"eduai-backend/internal/domain/model"
	"eduai-backend/internal/domain/ports/adapter"
)

var _ adapter.ModelProvider = (*MultiProvider)(nil)

// MultiProvider routes each request to the provider serving the model's
// family. The switch is total over the family enumeration, so an unknown
// model lands on the OpenAI provider instead of failing on a string lookup.
type MultiProvider struct {
	openai adapter.ModelProvider
	gemini adapter.ModelProvider
}

func NewMultiProvider(openaiP, geminiP adapter.ModelProvider) *MultiProvider {
	return &MultiProvider{openai: openaiP, gemini: geminiP}
}

func (m *MultiProvider) pick(modelName string) adapter.ModelProvider {
	var p adapter.ModelProvider
	switch model.FamilyFor(modelName) {
	case model.FamilyGoogle:
		p = m.gemini
	case model.FamilyOpenAI, model.FamilyAnthropic, model.FamilyTogetherAI, model.FamilyFireworks:
		// Non-Google families go through the OpenAI-compatible gateway.
		p = m.openai
	}
	if p == nil {
		// last resort: whichever provider is configured
		if m.openai != nil {
			return m.openai
		}
		return m.gemini
	}
	return p
}

func (m *MultiProvider) Stream(ctx context.Context, req adapter.ChatRequest, onDelta adapter.StreamHandler) (*adapter.Result, error) {
	return m.pick(req.Model).Stream(ctx, req, onDelta)
}

func (m *MultiProvider) Models(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range []adapter.ModelProvider{m.openai, m.gemini} {
		if p == nil {
			continue
		}
		list, _ := p.Models(ctx)
		for _, name := range list {
			if name == "" {
				continue
			}
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				out = append(out, name)
			}
		}
	}
	return out, nil
}
