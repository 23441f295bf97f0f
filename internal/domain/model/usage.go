package model

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// UsageRecord is one append-only entry of token consumption for a completed
// model turn. Records feed the usage dashboard and quota reconciliation, not
// conversation reconstruction.
type UsageRecord struct {
	ID               string
	UserID           string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	CostMicros       int64
	CreatedAt        time.Time
}

// NewUsageRecord stamps a fresh ULID so a retried write of the same turn
// stays idempotent at the store.
func NewUsageRecord(userID, model string, promptTokens, completionTokens, totalTokens int) *UsageRecord {
	return &UsageRecord{
		ID:               ulid.Make().String(),
		UserID:           userID,
		Model:            model,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      totalTokens,
		CreatedAt:        time.Now(),
	}
}

// PriceCost computes the record's cost from the static pricing table, using
// the volume-effective rate. Models without pricing cost zero.
func (u *UsageRecord) PriceCost() int64 {
	cfg, ok := ConfigFor(u.Model)
	if !ok {
		return 0
	}
	return cfg.Input.Cost(u.PromptTokens, u.TotalTokens) +
		cfg.Output.Cost(u.CompletionTokens, u.TotalTokens)
}

// BillingPeriod renders the billing-month bucket counters are keyed by.
func BillingPeriod(t time.Time) string { return t.UTC().Format("2006-01") }
