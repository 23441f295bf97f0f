package tokens

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"eduai-backend/internal/domain/model"
	"eduai-backend/internal/domain/ports/adapter"
)

// Estimator approximates the prompt token count of an assembled conversation
// so the quota gate can price a turn before the provider call spends it.
// OpenAI-family models count against the cl100k encoding; other families use
// a chars/4 heuristic, which is close enough for a pre-gate.
type Estimator struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

func NewEstimator() *Estimator { return &Estimator{} }

func (e *Estimator) encoder() *tiktoken.Tiktoken {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.enc == nil {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil
		}
		e.enc = enc
	}
	return e.enc
}

func (e *Estimator) EstimatePrompt(modelName string, msgs []adapter.Message) int {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}
	text := b.String()

	if model.FamilyFor(modelName) == model.FamilyOpenAI {
		if enc := e.encoder(); enc != nil {
			return len(enc.Encode(text, nil, nil))
		}
	}
	return len(text) / 4
}
