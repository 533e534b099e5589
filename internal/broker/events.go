package broker

import (
	"context"
	"strconv"

	"commerce-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// Topic names carry the event version; payloads additionally carry
// event_version for consumers that cannot rely on the topic.
const (
	TopicPaymentAuthorized = "payment.authorized.v1"
)

// Message header keys, for consumer-side and operator-side provenance.
const (
	HeaderOutboxEventID = "outbox_event_id"
	HeaderEventType     = "event_type"
	HeaderAggregateID   = "aggregate_id"
)

// TopicForEventType resolves an outbox event type to its broker topic.
// Unmapped types are not publishable.
func TopicForEventType(eventType string) (string, bool) {
	switch eventType {
	case models.EventTypePaymentAuthorized:
		return TopicPaymentAuthorized, true
	default:
		return "", false
	}
}

// EventPublisher publishes outbox events to the broker
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOutboxEvent publishes a staged event, keyed by aggregate ID and
// tagged with the outbox event's identity so duplicates can be traced back.
func (ep *EventPublisher) PublishOutboxEvent(ctx context.Context, topic string, ev *models.OutboxEvent) error {
	headers := []kafka.Header{
		{Key: HeaderOutboxEventID, Value: []byte(strconv.FormatInt(ev.ID, 10))},
		{Key: HeaderEventType, Value: []byte(ev.EventType)},
		{Key: HeaderAggregateID, Value: []byte(strconv.FormatInt(ev.AggregateID, 10))},
	}

	key := ev.AggregateType + "-" + strconv.FormatInt(ev.AggregateID, 10)
	return ep.producer.Publish(ctx, topic, key, ev.Payload, headers)
}
