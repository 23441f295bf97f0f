package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"eduai-backend/internal/domain/model"
	"eduai-backend/internal/domain/ports/repository"
	"eduai-backend/internal/infra/metrics"
)

var _ repository.UsageRepository = (*UsageRepo)(nil)

// UsageRepo is the append-only usage ledger plus the per-user quota ceilings.
type UsageRepo struct {
	pool *pgxpool.Pool
}

func NewUsageRepo(pool *pgxpool.Pool) *UsageRepo {
	return &UsageRepo{pool: pool}
}

// EnsureSchema creates the ledger tables when they do not exist yet.
func (r *UsageRepo) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS usage_records (
  id                TEXT PRIMARY KEY,
  user_id           TEXT NOT NULL,
  model             TEXT NOT NULL,
  prompt_tokens     INT NOT NULL DEFAULT 0,
  completion_tokens INT NOT NULL DEFAULT 0,
  total_tokens      INT NOT NULL DEFAULT 0,
  cost_micros       BIGINT NOT NULL DEFAULT 0,
  created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS usage_records_user_created_idx
  ON usage_records (user_id, created_at DESC);
CREATE TABLE IF NOT EXISTS user_quotas (
  user_id        TEXT PRIMARY KEY,
  ceiling_micros BIGINT NOT NULL,
  updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`
	if _, err := r.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("ensure usage schema: %w", err)
	}
	return nil
}

func (r *UsageRepo) Append(ctx context.Context, rec *model.UsageRecord) error {
	const q = `
INSERT INTO usage_records (id, user_id, model, prompt_tokens, completion_tokens, total_tokens, cost_micros, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,COALESCE($8,NOW()));`
	start := time.Now()
	_, err := r.pool.Exec(ctx, q,
		rec.ID, rec.UserID, rec.Model,
		rec.PromptTokens, rec.CompletionTokens, rec.TotalTokens,
		rec.CostMicros, rec.CreatedAt)
	metrics.ObserveStoreOp("postgres", "append_usage", start, err)
	if err != nil {
		// A duplicate record id means the turn was already written; outbox
		// retries must not produce a second row.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil
		}
		return fmt.Errorf("append usage: %w", err)
	}
	return nil
}

func (r *UsageRepo) SumCostMicros(ctx context.Context, userID string, since time.Time) (int64, error) {
	const q = `
SELECT COALESCE(SUM(cost_micros), 0)
  FROM usage_records
 WHERE user_id = $1 AND created_at >= $2;`
	var sum int64
	if err := r.pool.QueryRow(ctx, q, userID, since).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum usage: %w", err)
	}
	return sum, nil
}

func (r *UsageRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.UsageRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT id, user_id, model, prompt_tokens, completion_tokens, total_tokens, cost_micros, created_at
  FROM usage_records
 WHERE user_id = $1
 ORDER BY created_at DESC
 LIMIT $2;`
	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list usage: %w", err)
	}
	defer rows.Close()

	var out []*model.UsageRecord
	for rows.Next() {
		var rec model.UsageRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Model,
			&rec.PromptTokens, &rec.CompletionTokens, &rec.TotalTokens,
			&rec.CostMicros, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (r *UsageRepo) QuotaCeilingMicros(ctx context.Context, userID string) (int64, bool, error) {
	const q = `SELECT ceiling_micros FROM user_quotas WHERE user_id = $1;`
	var ceiling int64
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&ceiling); err != nil {
		if err == pgx.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read quota: %w", err)
	}
	return ceiling, true, nil
}

// SetQuotaCeiling upserts a user's ceiling; used by support tooling.
func (r *UsageRepo) SetQuotaCeiling(ctx context.Context, userID string, ceilingMicros int64) error {
	const q = `
INSERT INTO user_quotas (user_id, ceiling_micros, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (user_id) DO UPDATE SET ceiling_micros = EXCLUDED.ceiling_micros, updated_at = NOW();`
	if _, err := r.pool.Exec(ctx, q, userID, ceilingMicros); err != nil {
		return fmt.Errorf("set quota: %w", err)
	}
	return nil
}
