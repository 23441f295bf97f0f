package redis

import (
	"context"
	"fmt"
	"strconv"

	"eduai-backend/internal/domain/ports/repository"
)

var _ repository.MessageCounterRepository = (*CounterRepo)(nil)

// CounterRepo keeps message counters as plain INCR keys bucketed by billing
// period. The period lives in the key, so a new billing month starts every
// user back at zero without a reset job.
type CounterRepo struct {
	client *Client
}

func NewCounterRepo(client *Client) *CounterRepo {
	return &CounterRepo{client: client}
}

func totalKey(userID, period string) string {
	return fmt.Sprintf("msgcount:%s:%s", userID, period)
}

func premiumKey(userID, period string) string {
	return fmt.Sprintf("msgcount:premium:%s:%s", userID, period)
}

func (r *CounterRepo) Counts(ctx context.Context, userID, period string) (int64, int64, error) {
	vals, err := r.client.cli.MGet(ctx, totalKey(userID, period), premiumKey(userID, period)).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("read counters: %w", err)
	}
	return parseCount(vals[0]), parseCount(vals[1]), nil
}

func (r *CounterRepo) Increment(ctx context.Context, userID, period string, premium bool) error {
	pipe := r.client.cli.TxPipeline()
	pipe.Incr(ctx, totalKey(userID, period))
	if premium {
		pipe.Incr(ctx, premiumKey(userID, period))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("increment counters: %w", err)
	}
	return nil
}

func parseCount(v interface{}) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
