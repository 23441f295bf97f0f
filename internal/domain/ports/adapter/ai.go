package adapter

import "context"

// Message is one conversation turn handed to a provider. Image attachments
// arrive as URLs and become multi-part content where the provider supports
// it.
type Message struct {
	Role    string   `json:"role"` // "user" | "assistant" | "system"
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// ChatRequest is a fully assembled provider invocation.
type ChatRequest struct {
	Model    string
	System   string // "" = send no system message
	Messages []Message

	// ReasoningEffort is a provider option for reasoning models ("" = unset).
	ReasoningEffort string
}

// Usage for a single chat call, as reported by the provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Result is the finalized assistant turn after the stream ends.
type Result struct {
	Text  string
	Usage Usage
}

// StreamHandler receives each text delta as it arrives. Returning an error
// stops forwarding without interrupting the upstream call.
type StreamHandler func(delta string) error

// ModelProvider is the port for streaming LLM chat.
type ModelProvider interface {
	// Stream sends the request and forwards deltas to onDelta until the
	// provider finishes, then returns the final text and usage counts.
	Stream(ctx context.Context, req ChatRequest, onDelta StreamHandler) (*Result, error)

	// Models lists the model identifiers this provider serves.
	Models(ctx context.Context) ([]string, error)
}
