package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Outbox event types
const (
	EventTypePaymentAuthorized = "PAYMENT_AUTHORIZED"
)

// PaymentAuthorizedPayload is the wire payload staged in the outbox when a
// payment is authorized and published to the broker by the dispatcher.
// EventVersion is bumped on incompatible payload changes.
type PaymentAuthorizedPayload struct {
	EventID           string    `json:"event_id"`
	EventVersion      int       `json:"event_version"`
	OccurredAt        time.Time `json:"occurred_at"`
	PaymentID         int64     `json:"payment_id"`
	OrderID           int64     `json:"order_id"`
	Amount            int64     `json:"amount"`
	AuthorizedAt      time.Time `json:"authorized_at"`
	ProviderPaymentID string    `json:"provider_payment_id"`
}

// NewPaymentAuthorizedEvent stages a PAYMENT_AUTHORIZED outbox row for the
// given payment. The caller inserts it in the same transaction as the
// payment/order state change.
func NewPaymentAuthorizedEvent(paymentID, orderID, amount int64, providerPaymentID string, occurredAt time.Time) (*OutboxEvent, error) {
	payload, err := json.Marshal(PaymentAuthorizedPayload{
		EventID:           uuid.New().String(),
		EventVersion:      1,
		OccurredAt:        occurredAt,
		PaymentID:         paymentID,
		OrderID:           orderID,
		Amount:            amount,
		AuthorizedAt:      occurredAt,
		ProviderPaymentID: providerPaymentID,
	})
	if err != nil {
		return nil, err
	}

	return &OutboxEvent{
		EventType:     EventTypePaymentAuthorized,
		AggregateType: AggregateTypePayment,
		AggregateID:   paymentID,
		Payload:       payload,
		Status:        OutboxStatusPending,
	}, nil
}
