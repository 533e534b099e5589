package store

import (
	"context"
	"database/sql"

	"commerce-service/internal/models"
)

// GetShipmentByOrderID retrieves the shipment for an order.
// Returns (nil, nil) when none exists.
func (s *Store) GetShipmentByOrderID(ctx context.Context, orderID int64) (*models.Shipment, error) {
	var sh models.Shipment
	err := s.db.GetContext(ctx, &sh, "SELECT * FROM shipments WHERE order_id = $1", orderID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sh, nil
}

// InsertShipment creates a shipment row. A unique violation on order_id
// means a concurrent delivery already created it; callers re-query instead
// of treating that as a failure.
func (s *Store) InsertShipment(ctx context.Context, sh *models.Shipment) error {
	query := `
		INSERT INTO shipments (order_id, status)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, sh, query, sh.OrderID, sh.Status)
}
