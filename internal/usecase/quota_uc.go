package usecase

import (
	"context"
	"fmt"
	"time"

	"eduai-backend/internal/domain/model"
	"eduai-backend/internal/domain/ports/adapter"
	"eduai-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ QuotaUseCase = (*quotaUC)(nil)

// PromptEstimator approximates prompt token counts ahead of the provider
// call.
type PromptEstimator interface {
	EstimatePrompt(modelName string, msgs []adapter.Message) int
}

type QuotaUseCase interface {
	// CheckQuota is the token-cost gate, independent of message counts.
	CheckQuota(ctx context.Context, userID string, tier model.Tier, modelName string, msgs []adapter.Message) (bool, error)

	// SaveUsage appends a usage record with provider-reported token counts,
	// pricing it from the static table.
	SaveUsage(ctx context.Context, rec *model.UsageRecord) error

	ListUsage(ctx context.Context, userID string, limit int) ([]*model.UsageRecord, error)
}

type quotaUC struct {
	usage     repository.UsageRepository
	estimator PromptEstimator
	now       func() time.Time
}

func NewQuotaUseCase(usage repository.UsageRepository, estimator PromptEstimator) *quotaUC {
	return &quotaUC{usage: usage, estimator: estimator, now: time.Now}
}

// Default ceilings in micro-dollars, applied when no per-user row exists.
func defaultCeilingMicros(t model.Tier) int64 {
	switch t {
	case model.TierPaidPlus:
		return 25_000_000
	case model.TierPaid:
		return 10_000_000
	default:
		return 1_000_000
	}
}

// assumedCompletionTokens pads the pre-gate estimate: the reply is not known
// yet, so a turn is priced as prompt plus a nominal completion.
const assumedCompletionTokens = 1000

func (q *quotaUC) CheckQuota(ctx context.Context, userID string, tier model.Tier, modelName string, msgs []adapter.Message) (bool, error) {
	ceiling, ok, err := q.usage.QuotaCeilingMicros(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("quota ceiling: %w", err)
	}
	if !ok {
		ceiling = defaultCeilingMicros(tier)
	}

	since := periodStart(q.now())
	spent, err := q.usage.SumCostMicros(ctx, userID, since)
	if err != nil {
		return false, fmt.Errorf("period spend: %w", err)
	}

	cfg, priced := model.ConfigFor(modelName)
	if !priced {
		// Unpriced models gate on spend alone.
		return spent < ceiling, nil
	}
	promptToks := q.estimator.EstimatePrompt(modelName, msgs)
	totalToks := promptToks + assumedCompletionTokens
	estimate := cfg.Input.Cost(promptToks, totalToks) + cfg.Output.Cost(assumedCompletionTokens, totalToks)

	return spent+estimate <= ceiling, nil
}

func (q *quotaUC) SaveUsage(ctx context.Context, rec *model.UsageRecord) error {
	if rec.CostMicros == 0 {
		rec.CostMicros = rec.PriceCost()
	}
	if err := q.usage.Append(ctx, rec); err != nil {
		return fmt.Errorf("append usage: %w", err)
	}
	return nil
}

func (q *quotaUC) ListUsage(ctx context.Context, userID string, limit int) ([]*model.UsageRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return q.usage.ListByUser(ctx, userID, limit)
}

// periodStart is the first instant of the current billing month in UTC.
func periodStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}
