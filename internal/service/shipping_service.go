package service

import (
	"context"

	"commerce-service/internal/models"
	"commerce-service/internal/store"
	"commerce-service/internal/util"

	"go.uber.org/zap"
)

// ShippingService creates at most one shipment per order. Deliveries arrive
// at least once and possibly concurrently; the order_id unique constraint,
// not a lock, is what decides the race.
type ShippingService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewShippingService creates a new shipping service
func NewShippingService(store *store.Store) *ShippingService {
	return &ShippingService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// CreateShipment returns the existing shipment for the order, or inserts
// one. When the insert loses a concurrent race it re-queries and returns
// the winner instead of failing.
func (s *ShippingService) CreateShipment(ctx context.Context, orderID int64) (*models.Shipment, error) {
	ctx, span := util.StartSpan(ctx, "ShippingService.CreateShipment")
	defer span.End()

	existing, err := s.store.GetShipmentByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		util.ShipmentDuplicatesTotal.Inc()
		return existing, nil
	}

	shipment := &models.Shipment{
		OrderID: orderID,
		Status:  models.ShipmentStatusCreated,
	}
	if err := s.store.InsertShipment(ctx, shipment); err != nil {
		if !store.IsUniqueViolation(err) {
			return nil, err
		}
		util.ShipmentDuplicatesTotal.Inc()
		winner, qerr := s.store.GetShipmentByOrderID(ctx, orderID)
		if qerr != nil {
			return nil, qerr
		}
		if winner == nil {
			return nil, err
		}
		s.logger.Info("Shipment insert lost race, returning winner",
			zap.Int64("order_id", orderID),
			zap.Int64("shipment_id", winner.ID))
		return winner, nil
	}

	util.ShipmentsCreatedTotal.Inc()
	s.logger.Info("Shipment created",
		zap.Int64("order_id", orderID),
		zap.Int64("shipment_id", shipment.ID))
	return shipment, nil
}
