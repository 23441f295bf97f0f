package model

// ModelFamily is the exhaustive enumeration of provider families. Lookups
// over it are total: an unknown model resolves to FamilyOpenAI instead of a
// silent string fallback.
type ModelFamily int

const (
	FamilyOpenAI ModelFamily = iota
	FamilyGoogle
	FamilyAnthropic
	FamilyTogetherAI
	FamilyFireworks
)

func (f ModelFamily) String() string {
	switch f {
	case FamilyGoogle:
		return "google"
	case FamilyAnthropic:
		return "anthropic"
	case FamilyTogetherAI:
		return "togetherai"
	case FamilyFireworks:
		return "fireworks"
	default:
		return "openai"
	}
}

// TokenPrice is a price in micro-dollars per million tokens. Some models step
// the price up once the turn's total token volume crosses a threshold, so the
// effective price is a function of volume rather than a flat rate.
type TokenPrice struct {
	PerMTokMicros     int64
	StepThresholdToks int   // 0 = flat price
	StepPerMTokMicros int64 // price above the threshold
}

// At returns the per-million-token price effective for a turn with the given
// total token volume.
func (p TokenPrice) At(totalTokens int) int64 {
	if p.StepThresholdToks > 0 && totalTokens > p.StepThresholdToks {
		return p.StepPerMTokMicros
	}
	return p.PerMTokMicros
}

// Cost prices a token count at the volume-effective rate, in micro-dollars.
func (p TokenPrice) Cost(tokens, totalTokens int) int64 {
	return int64(tokens) * p.At(totalTokens) / 1_000_000
}

// ModelConfig is the static pricing and family entry for one model.
type ModelConfig struct {
	Input  TokenPrice
	Output TokenPrice
	Family ModelFamily
}

// dollars converts a USD-per-million-token price into micro-dollars.
func dollars(d float64) int64 { return int64(d * 1_000_000) }

var modelConfigs = map[string]ModelConfig{
	"accounts/fireworks/models/deepseek-r1": {
		Input:  TokenPrice{PerMTokMicros: dollars(3)},
		Output: TokenPrice{PerMTokMicros: dollars(8)},
		Family: FamilyFireworks,
	},
	"gemini-2.5-pro": {
		Input:  TokenPrice{PerMTokMicros: dollars(1.25), StepThresholdToks: 200_000, StepPerMTokMicros: dollars(2.5)},
		Output: TokenPrice{PerMTokMicros: dollars(10), StepThresholdToks: 200_000, StepPerMTokMicros: dollars(15)},
		Family: FamilyGoogle,
	},
	"gemini-2.5-flash": {
		Input:  TokenPrice{PerMTokMicros: dollars(0.3)},
		Output: TokenPrice{PerMTokMicros: dollars(2.5)},
		Family: FamilyGoogle,
	},
	"gemini-1.5-pro": {
		Input:  TokenPrice{PerMTokMicros: dollars(1.25)},
		Output: TokenPrice{PerMTokMicros: dollars(5)},
		Family: FamilyGoogle,
	},
	"gemini-2.0-flash": {
		Input:  TokenPrice{PerMTokMicros: dollars(0.1)},
		Output: TokenPrice{PerMTokMicros: dollars(0.4)},
		Family: FamilyGoogle,
	},
	"gemini-2.0-flash-thinking-exp-01-21": {
		Family: FamilyGoogle,
	},
	"deepseek-ai/DeepSeek-R1": {
		Input:  TokenPrice{PerMTokMicros: dollars(7)},
		Output: TokenPrice{PerMTokMicros: dollars(7)},
		Family: FamilyTogetherAI,
	},
	"deepseek-ai/DeepSeek-R1-Distill-Llama-70B-free": {
		Family: FamilyTogetherAI,
	},
	"deepseek-ai/DeepSeek-V3": {
		Input:  TokenPrice{PerMTokMicros: dollars(1.25)},
		Output: TokenPrice{PerMTokMicros: dollars(1.25)},
		Family: FamilyTogetherAI,
	},
	"o3-mini": {
		Input:  TokenPrice{PerMTokMicros: dollars(1.1)},
		Output: TokenPrice{PerMTokMicros: dollars(4.4)},
		Family: FamilyOpenAI,
	},
	"o4-mini": {
		Input:  TokenPrice{PerMTokMicros: dollars(1.1)},
		Output: TokenPrice{PerMTokMicros: dollars(4.4)},
		Family: FamilyOpenAI,
	},
	"o1-preview": {
		Input:  TokenPrice{PerMTokMicros: dollars(15)},
		Output: TokenPrice{PerMTokMicros: dollars(60)},
		Family: FamilyOpenAI,
	},
	"o1-mini": {
		Input:  TokenPrice{PerMTokMicros: dollars(1.1)},
		Output: TokenPrice{PerMTokMicros: dollars(4.4)},
		Family: FamilyOpenAI,
	},
	"gpt-4.5-preview": {
		Input:  TokenPrice{PerMTokMicros: dollars(75)},
		Output: TokenPrice{PerMTokMicros: dollars(150)},
		Family: FamilyOpenAI,
	},
	"gpt-4o": {
		Input:  TokenPrice{PerMTokMicros: dollars(2.5)},
		Output: TokenPrice{PerMTokMicros: dollars(10)},
		Family: FamilyOpenAI,
	},
	"gpt-4o-mini": {
		Input:  TokenPrice{PerMTokMicros: dollars(0.15)},
		Output: TokenPrice{PerMTokMicros: dollars(0.6)},
		Family: FamilyOpenAI,
	},
	"gpt-4.1": {
		Input:  TokenPrice{PerMTokMicros: dollars(2)},
		Output: TokenPrice{PerMTokMicros: dollars(8)},
		Family: FamilyOpenAI,
	},
	"gpt-4.1-mini": {
		Input:  TokenPrice{PerMTokMicros: dollars(0.4)},
		Output: TokenPrice{PerMTokMicros: dollars(1.6)},
		Family: FamilyOpenAI,
	},
	"gpt-4.1-nano": {
		Input:  TokenPrice{PerMTokMicros: dollars(0.1)},
		Output: TokenPrice{PerMTokMicros: dollars(0.4)},
		Family: FamilyOpenAI,
	},
	"claude-sonnet-4-20250514": {
		Input:  TokenPrice{PerMTokMicros: dollars(3)},
		Output: TokenPrice{PerMTokMicros: dollars(15)},
		Family: FamilyAnthropic,
	},
}

// ConfigFor returns the pricing entry for a model.
func ConfigFor(model string) (ModelConfig, bool) {
	c, ok := modelConfigs[model]
	return c, ok
}

// FamilyFor is total: unknown models belong to FamilyOpenAI.
func FamilyFor(model string) ModelFamily {
	if c, ok := modelConfigs[model]; ok {
		return c.Family
	}
	return FamilyOpenAI
}

// KnownModels returns the model identifiers with a pricing entry.
func KnownModels() []string {
	out := make([]string, 0, len(modelConfigs))
	for m := range modelConfigs {
		out = append(out, m)
	}
	return out
}
