package redis

import (
	"context"

	"github.com/go-redis/redis/v8"
)

const outboxKey = "outbox:accounting"

// OutboxQueue is the Redis list backing deferred accounting mutations.
// Entries are pushed when a completion-time write fails and popped by the
// drain worker.
type OutboxQueue struct {
	cli *redis.Client
}

func NewOutboxQueue(c *Client) *OutboxQueue {
	return &OutboxQueue{cli: c.cli}
}

func (q *OutboxQueue) Enqueue(ctx context.Context, payload []byte) error {
	return q.cli.LPush(ctx, outboxKey, payload).Err()
}

// Dequeue pops the oldest entry; ok=false when the queue is empty.
func (q *OutboxQueue) Dequeue(ctx context.Context) ([]byte, bool, error) {
	s, err := q.cli.RPop(ctx, outboxKey).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(s), true, nil
}

// Requeue puts a failed entry back at the tail so the next drain retries it.
func (q *OutboxQueue) Requeue(ctx context.Context, payload []byte) error {
	return q.cli.RPush(ctx, outboxKey, payload).Err()
}

func (q *OutboxQueue) Len(ctx context.Context) (int64, error) {
	return q.cli.LLen(ctx, outboxKey).Result()
}
