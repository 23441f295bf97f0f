package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"eduai-backend/internal/domain/model"
	"eduai-backend/internal/domain/ports/repository"
	"eduai-backend/internal/infra/metrics"
	infraRedis "eduai-backend/internal/infra/redis"
)

const (
	outboxLockKey  = "lock:outbox:accounting"
	maxAttempts    = 10
	drainBatchSize = 64
)

// OutboxDrainer replays deferred accounting mutations. It ticks, takes the
// drain lock so only one replica works the queue, and applies each task; the
// ULID record id keeps replays idempotent at the usage store.
type OutboxDrainer struct {
	interval time.Duration
	lockTTL  time.Duration
	queue    repository.OutboxRepository
	locker   infraRedis.Locker
	counters repository.MessageCounterRepository
	usage    repository.UsageRepository
	pool     *Pool
	log      zerolog.Logger
}

func NewOutboxDrainer(
	interval, lockTTL time.Duration,
	queue repository.OutboxRepository,
	locker infraRedis.Locker,
	counters repository.MessageCounterRepository,
	usage repository.UsageRepository,
	pool *Pool,
	log zerolog.Logger,
) *OutboxDrainer {
	return &OutboxDrainer{
		interval: interval,
		lockTTL:  lockTTL,
		queue:    queue,
		locker:   locker,
		counters: counters,
		usage:    usage,
		pool:     pool,
		log:      log.With().Str("component", "outbox-drainer").Logger(),
	}
}

func (d *OutboxDrainer) Run(ctx context.Context) error {
	d.log.Info().Dur("interval", d.interval).Msg("starting outbox drainer")
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.Info().Msg("stopping outbox drainer")
			return ctx.Err()
		case <-ticker.C:
			// When a pool is attached the pass runs on its workers; a full
			// queue means the previous pass is still going, so the tick is
			// skipped. The drain lock guards against overlap either way.
			if d.pool != nil {
				_ = d.pool.Submit(d.drainTask)
				continue
			}
			d.drainTask(ctx)
		}
	}
}

func (d *OutboxDrainer) drainTask(ctx context.Context) error {
	if err := d.drain(ctx); err != nil && !errors.Is(err, infraRedis.ErrLockHeld) {
		d.log.Error().Err(err).Msg("drain pass failed")
	}
	return nil
}

func (d *OutboxDrainer) drain(ctx context.Context) error {
	token, err := d.locker.TryLock(ctx, outboxLockKey, d.lockTTL)
	if err != nil {
		return err
	}
	defer func() {
		if err := d.locker.Unlock(ctx, outboxLockKey, token); err != nil {
			d.log.Warn().Err(err).Msg("outbox unlock failed")
		}
		if n, err := d.queue.Len(ctx); err == nil {
			metrics.SetOutboxDepth(n)
		}
	}()

	// Bound the pass by the depth at entry so a requeued task is not retried
	// again until the next tick.
	depth, err := d.queue.Len(ctx)
	if err != nil {
		return fmt.Errorf("queue len: %w", err)
	}
	if depth > drainBatchSize {
		depth = drainBatchSize
	}

	for i := int64(0); i < depth; i++ {
		payload, ok, err := d.queue.Dequeue(ctx)
		if err != nil {
			return fmt.Errorf("dequeue: %w", err)
		}
		if !ok {
			return nil
		}

		task, err := model.DecodeAccountingTask(payload)
		if err != nil {
			// Undecodable entries cannot be retried.
			d.log.Error().Err(err).Msg("dropping undecodable outbox entry")
			continue
		}

		if err := d.apply(ctx, task); err != nil {
			task.Attempts++
			if task.Attempts >= maxAttempts {
				d.log.Error().Err(err).
					Str("record_id", task.Record.ID).
					Int("attempts", task.Attempts).
					Msg("dropping outbox task after max attempts")
				continue
			}
			d.log.Warn().Err(err).Str("record_id", task.Record.ID).Msg("outbox task failed, requeueing")
			if p, encErr := task.Encode(); encErr == nil {
				if reqErr := d.queue.Requeue(ctx, p); reqErr != nil {
					d.log.Error().Err(reqErr).Str("record_id", task.Record.ID).Msg("requeue failed")
				}
			}
			continue
		}
		d.log.Info().Str("record_id", task.Record.ID).Msg("outbox task applied")
	}
	return nil
}

// apply replays the mutations that failed at completion time. Counter and
// usage halves are tracked separately so a partial retry does not repeat the
// half that already landed.
func (d *OutboxDrainer) apply(ctx context.Context, task *model.AccountingTask) error {
	if task.NeedIncrement {
		if err := d.counters.Increment(ctx, task.Record.UserID, task.Period, task.Premium); err != nil {
			return fmt.Errorf("increment: %w", err)
		}
		task.NeedIncrement = false
	}
	if task.NeedUsage {
		rec := task.Record
		if err := d.usage.Append(ctx, &rec); err != nil {
			return fmt.Errorf("append usage: %w", err)
		}
		task.NeedUsage = false
	}
	return nil
}
