package service

import (
	"context"
	"time"

	"commerce-service/internal/broker"
	"commerce-service/internal/models"
	"commerce-service/internal/store"
	"commerce-service/internal/util"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// OutboxPublisher publishes a staged event to the broker on the given topic.
type OutboxPublisher interface {
	PublishOutboxEvent(ctx context.Context, topic string, ev *models.OutboxEvent) error
}

// OutboxDispatcher drains PENDING outbox events to the broker on a fixed
// period. Multiple instances can run against the same table: the skip-locked
// batch read guarantees no two of them hold the same event at once. Publish
// failures are absorbed per event into a retry count; the batch is never
// aborted by one bad event, and events are never deleted.
type OutboxDispatcher struct {
	store     *store.Store
	publisher OutboxPublisher
	interval  time.Duration
	batchSize int
	maxRetry  int
	logger    *zap.Logger
}

// NewOutboxDispatcher creates a new outbox dispatcher
func NewOutboxDispatcher(store *store.Store, publisher OutboxPublisher, interval time.Duration, batchSize, maxRetry int) *OutboxDispatcher {
	return &OutboxDispatcher{
		store:     store,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		maxRetry:  maxRetry,
		logger:    util.GetLogger(),
	}
}

// Start runs the dispatch loop until the context is cancelled
func (d *OutboxDispatcher) Start(ctx context.Context) {
	d.logger.Info("Starting outbox dispatcher",
		zap.Duration("interval", d.interval),
		zap.Int("batch_size", d.batchSize))

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Outbox dispatcher stopped")
			return
		case <-ticker.C:
			if err := d.PublishPending(ctx); err != nil {
				d.logger.Error("Outbox dispatch cycle failed", zap.Error(err))
			}
		}
	}
}

// PublishPending processes one batch. The batch rows stay locked until the
// surrounding transaction commits. Per-event publish failures are caught and
// turned into retry bookkeeping, never into an abort, so one bad event cannot
// claw back another event's status update.
func (d *OutboxDispatcher) PublishPending(ctx context.Context) error {
	return d.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		events, err := d.store.FetchPendingOutboxTx(ctx, tx, d.batchSize)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		d.logger.Info("Dispatching outbox batch", zap.Int("size", len(events)))

		for i := range events {
			d.dispatchEvent(ctx, tx, &events[i])
		}
		return nil
	})
}

func (d *OutboxDispatcher) dispatchEvent(ctx context.Context, tx *sqlx.Tx, ev *models.OutboxEvent) {
	topic, ok := broker.TopicForEventType(ev.EventType)
	if !ok {
		// No routing mapping: not an error, but worth an operator's eye.
		// The event stays PENDING and will be picked up again.
		d.logger.Warn("No topic mapping for event type, skipping",
			zap.String("event_type", ev.EventType),
			zap.Int64("event_id", ev.ID))
		return
	}

	if err := d.publisher.PublishOutboxEvent(ctx, topic, ev); err != nil {
		retryCount, status := NextRetryState(ev.RetryCount, d.maxRetry)
		if updateErr := d.store.UpdateOutboxRetryTx(ctx, tx, ev.ID, retryCount, status); updateErr != nil {
			d.logger.Error("Failed to record outbox retry", zap.Int64("event_id", ev.ID), zap.Error(updateErr))
			return
		}
		util.OutboxPublishFailedTotal.Inc()
		if status == models.OutboxStatusFailed {
			d.logger.Error("Outbox event permanently failed",
				zap.Int64("event_id", ev.ID),
				zap.String("event_type", ev.EventType),
				zap.Int64("aggregate_id", ev.AggregateID),
				zap.Int("retry_count", retryCount),
				zap.Error(err))
		} else {
			d.logger.Warn("Failed to publish outbox event, will retry",
				zap.Int64("event_id", ev.ID),
				zap.Int("retry_count", retryCount),
				zap.Error(err))
		}
		return
	}

	if err := d.store.MarkOutboxPublishedTx(ctx, tx, ev.ID, time.Now().UTC()); err != nil {
		d.logger.Error("Failed to mark outbox event published", zap.Int64("event_id", ev.ID), zap.Error(err))
		return
	}
	util.OutboxPublishedTotal.Inc()
	d.logger.Info("Published outbox event",
		zap.Int64("event_id", ev.ID),
		zap.String("event_type", ev.EventType),
		zap.Int64("aggregate_id", ev.AggregateID))
}

// NextRetryState returns the bumped retry count and the status an event
// moves to after a publish failure: PENDING until the ceiling, then the
// terminal FAILED which is never retried automatically.
func NextRetryState(retryCount, maxRetry int) (int, string) {
	retryCount++
	if retryCount >= maxRetry {
		return retryCount, models.OutboxStatusFailed
	}
	return retryCount, models.OutboxStatusPending
}
