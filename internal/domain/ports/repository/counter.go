package repository

import "context"

// MessageCounterRepository tracks per-user message counts within a billing
// period. Increments must be atomic at the store; they are only issued after
// a model turn completes.
type MessageCounterRepository interface {
	Counts(ctx context.Context, userID, period string) (total, premium int64, err error)
	Increment(ctx context.Context, userID, period string, premium bool) error
}
