package model

import "strings"

// Tier is a user's subscription level, resolved by the auth collaborator and
// carried in the session claims.
type Tier string

const (
	TierFree     Tier = "free"
	TierPaid     Tier = "paid"
	TierPaidPlus Tier = "paid_plus"
)

// ParseTier maps a claim string onto a tier; anything unrecognized is free.
func ParseTier(s string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierPaid:
		return TierPaid
	case TierPaidPlus:
		return TierPaidPlus
	default:
		return TierFree
	}
}

// MessageLimits are the per-billing-period message ceilings of a tier.
type MessageLimits struct {
	TotalMessages        int
	PremiumModelMessages int
}

// LimitsFor is total over Tier: every tier maps to a ceiling pair and an
// unknown tier falls back to the free limits.
func LimitsFor(t Tier) MessageLimits {
	switch t {
	case TierPaid, TierPaidPlus:
		return MessageLimits{TotalMessages: 1500, PremiumModelMessages: 1500}
	default:
		return MessageLimits{TotalMessages: 50, PremiumModelMessages: 50}
	}
}

// premiumModels are metered against the separate, stricter premium ceiling.
var premiumModels = map[string]struct{}{
	"claude-sonnet-4-20250514":            {},
	"gpt-4.5-preview":                     {},
	"gemini-2.0-flash-thinking-exp-01-21": {},
}

func IsPremiumModel(model string) bool {
	_, ok := premiumModels[model]
	return ok
}
