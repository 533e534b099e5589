package broker

import (
	"testing"

	"commerce-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestTopicForEventType(t *testing.T) {
	topic, ok := TopicForEventType(models.EventTypePaymentAuthorized)
	assert.True(t, ok)
	assert.Equal(t, TopicPaymentAuthorized, topic)
}

func TestTopicForUnknownEventType(t *testing.T) {
	topic, ok := TopicForEventType("SOMETHING_ELSE")
	assert.False(t, ok)
	assert.Empty(t, topic)
}
