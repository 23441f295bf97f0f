package repository

import "context"

// OutboxRepository queues serialized accounting tasks that failed to apply at
// stream completion. FIFO; Requeue sends a failed entry to the back.
type OutboxRepository interface {
	Enqueue(ctx context.Context, payload []byte) error
	Dequeue(ctx context.Context) (payload []byte, ok bool, err error)
	Requeue(ctx context.Context, payload []byte) error
	Len(ctx context.Context) (int64, error)
}
