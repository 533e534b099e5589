package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaymentAuthorizedEvent(t *testing.T) {
	occurredAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	ev, err := NewPaymentAuthorizedEvent(7, 11, 35000, "pg-abc", occurredAt)
	require.NoError(t, err)

	assert.Equal(t, EventTypePaymentAuthorized, ev.EventType)
	assert.Equal(t, AggregateTypePayment, ev.AggregateType)
	assert.Equal(t, int64(7), ev.AggregateID)
	assert.Equal(t, OutboxStatusPending, ev.Status)
	assert.Equal(t, 0, ev.RetryCount)

	var payload PaymentAuthorizedPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.NotEmpty(t, payload.EventID)
	assert.Equal(t, 1, payload.EventVersion)
	assert.Equal(t, int64(7), payload.PaymentID)
	assert.Equal(t, int64(11), payload.OrderID)
	assert.Equal(t, int64(35000), payload.Amount)
	assert.Equal(t, "pg-abc", payload.ProviderPaymentID)
	assert.True(t, payload.OccurredAt.Equal(occurredAt))
	assert.True(t, payload.AuthorizedAt.Equal(occurredAt))
}
