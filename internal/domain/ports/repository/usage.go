package repository

import (
	"context"
	"time"

	"eduai-backend/internal/domain/model"
)

// UsageRepository is the append-only token-usage ledger plus the persisted
// quota ceilings it reconciles against.
type UsageRepository interface {
	// Append inserts one usage record. Re-appending the same record id is a
	// no-op, so outbox retries cannot double-count a turn.
	Append(ctx context.Context, rec *model.UsageRecord) error

	// SumCostMicros totals the user's spend since the given instant.
	SumCostMicros(ctx context.Context, userID string, since time.Time) (int64, error)

	// ListByUser returns the newest records first, for the usage dashboard.
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.UsageRecord, error)

	// QuotaCeilingMicros returns the user's persisted ceiling; ok=false when
	// no row exists and the tier default applies.
	QuotaCeilingMicros(ctx context.Context, userID string) (ceiling int64, ok bool, err error)
}
