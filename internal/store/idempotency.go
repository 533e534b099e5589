package store

import (
	"context"
	"database/sql"

	"commerce-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// GetIdempotencyRecordTx looks up a prior authorize outcome for
// (paymentID, idempotencyKey). Returns (nil, nil) when none exists.
func (s *Store) GetIdempotencyRecordTx(ctx context.Context, tx *sqlx.Tx, paymentID int64, idempotencyKey string) (*models.PaymentIdempotencyRecord, error) {
	var rec models.PaymentIdempotencyRecord
	err := tx.GetContext(ctx, &rec,
		"SELECT * FROM payment_idempotency_records WHERE payment_id = $1 AND idempotency_key = $2",
		paymentID, idempotencyKey)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// InsertIdempotencyRecordTx appends an idempotency record in the same
// transaction as the state change it describes. A unique violation means a
// concurrent call with the same key already decided.
func (s *Store) InsertIdempotencyRecordTx(ctx context.Context, tx *sqlx.Tx, rec *models.PaymentIdempotencyRecord) error {
	query := `
		INSERT INTO payment_idempotency_records (payment_id, idempotency_key, request_hash, response_payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return tx.GetContext(ctx, rec, query,
		rec.PaymentID, rec.IdempotencyKey, rec.RequestHash, rec.ResponsePayload)
}

// InsertWebhookEvent appends a webhook event record. Runs as its own
// statement on the pool, outside the caller's business transaction, so the
// accepted-for-processing marker commits (or collides) independently. A
// unique violation on (provider, provider_event_id) means duplicate delivery.
func (s *Store) InsertWebhookEvent(ctx context.Context, ev *models.PaymentWebhookEvent) error {
	query := `
		INSERT INTO payment_webhook_events (provider, provider_event_id, provider_payment_id, payment_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, received_at`

	return s.db.GetContext(ctx, ev, query,
		ev.Provider, ev.ProviderEventID, ev.ProviderPaymentID, ev.PaymentID)
}

// GetWebhookEvent retrieves a previously accepted webhook event
func (s *Store) GetWebhookEvent(ctx context.Context, provider, providerEventID string) (*models.PaymentWebhookEvent, error) {
	var ev models.PaymentWebhookEvent
	err := s.db.GetContext(ctx, &ev,
		"SELECT * FROM payment_webhook_events WHERE provider = $1 AND provider_event_id = $2",
		provider, providerEventID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}
