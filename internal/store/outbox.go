package store

import (
	"context"
	"fmt"
	"time"

	"commerce-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// InsertOutboxEventTx stages an outbox event in the same transaction as the
// business mutation that produced it.
func (s *Store) InsertOutboxEventTx(ctx context.Context, tx *sqlx.Tx, ev *models.OutboxEvent) error {
	query := `
		INSERT INTO outbox_events (event_type, aggregate_type, aggregate_id, payload, status, retry_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := tx.GetContext(ctx, ev, query,
		ev.EventType, ev.AggregateType, ev.AggregateID, ev.Payload, ev.Status, ev.RetryCount)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// FetchPendingOutboxTx selects up to limit PENDING events oldest first,
// skipping rows locked by a concurrent dispatcher instance. The locks are
// held until the transaction ends, so no two dispatchers process the same
// event at the same time.
func (s *Store) FetchPendingOutboxTx(ctx context.Context, tx *sqlx.Tx, limit int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := tx.SelectContext(ctx, &events, `
		SELECT * FROM outbox_events
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED`,
		models.OutboxStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pending outbox events: %w", err)
	}
	return events, nil
}

// MarkOutboxPublishedTx marks an event as published with the publish time
func (s *Store) MarkOutboxPublishedTx(ctx context.Context, tx *sqlx.Tx, eventID int64, publishedAt time.Time) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE outbox_events SET status = $1, published_at = $2 WHERE id = $3",
		models.OutboxStatusPublished, publishedAt, eventID)
	return err
}

// UpdateOutboxRetryTx records a publish failure: the bumped retry count and
// either PENDING (retry next cycle) or terminal FAILED.
func (s *Store) UpdateOutboxRetryTx(ctx context.Context, tx *sqlx.Tx, eventID int64, retryCount int, status string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE outbox_events SET retry_count = $1, status = $2 WHERE id = $3",
		retryCount, status, eventID)
	return err
}

// GetOutboxEventByID retrieves an outbox event, mainly for operators and tests
func (s *Store) GetOutboxEventByID(ctx context.Context, id int64) (*models.OutboxEvent, error) {
	var ev models.OutboxEvent
	err := s.db.GetContext(ctx, &ev, "SELECT * FROM outbox_events WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}
