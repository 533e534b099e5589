package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"commerce-service/internal/broker"
	"commerce-service/internal/models"
	"commerce-service/internal/service"
	"commerce-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ShippingWorker consumes payment-authorized messages and creates shipments.
// Delivery is at least once; the shipping service's unique-insert dedup is
// what keeps redeliveries harmless, so this loop never tries to dedup
// itself.
type ShippingWorker struct {
	consumer        *broker.Consumer
	shippingService *service.ShippingService
	logger          *zap.Logger
}

// NewShippingWorker creates a new shipping worker
func NewShippingWorker(consumer *broker.Consumer, shippingService *service.ShippingService) *ShippingWorker {
	return &ShippingWorker{
		consumer:        consumer,
		shippingService: shippingService,
		logger:          util.GetLogger(),
	}
}

// Start starts the worker
func (w *ShippingWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting shipping worker")
	return w.consumer.StartConsuming(ctx, w.handleMessage)
}

// Stop stops the worker
func (w *ShippingWorker) Stop() error {
	w.logger.Info("Stopping shipping worker")
	return w.consumer.Close()
}

func (w *ShippingWorker) handleMessage(ctx context.Context, msg kafka.Message) error {
	var payload models.PaymentAuthorizedPayload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payment authorized payload: %w", err)
	}
	if payload.OrderID == 0 {
		return fmt.Errorf("payment authorized payload missing order_id")
	}

	w.logger.Info("Handling payment authorized message",
		zap.Int64("order_id", payload.OrderID),
		zap.Int64("payment_id", payload.PaymentID),
		zap.Int("event_version", payload.EventVersion))

	_, err := w.shippingService.CreateShipment(ctx, payload.OrderID)
	return err
}
