package service

import (
	"context"
	"time"

	"commerce-service/internal/models"
	"commerce-service/internal/redisclient"
	"commerce-service/internal/store"
	"commerce-service/internal/util"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const orderCurrency = "KRW"

// OrderService handles the order reservation workflow
type OrderService struct {
	store  *store.Store
	cache  *redisclient.Client
	ledger *InventoryLedger
	logger *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store *store.Store, cache *redisclient.Client, ledger *InventoryLedger) *OrderService {
	return &OrderService{
		store:  store,
		cache:  cache,
		ledger: ledger,
		logger: util.GetLogger(),
	}
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	UserID int64              `json:"user_id" binding:"required"`
	Items  []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// OrderItemRequest represents an item in an order
type OrderItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// CreateOrderResponse represents the response after creating an order
type CreateOrderResponse struct {
	OrderID       int64  `json:"order_id"`
	Status        string `json:"status"`
	PayableAmount int64  `json:"payable_amount"`
	Currency      string `json:"currency"`
}

// CreateOrder reserves inventory for every line and persists the order with
// price snapshots, all in one transaction. Duplicate product lines are
// merged and the merged lines are locked in ascending product ID order, so
// two concurrent orders over overlapping products cannot deadlock. Any
// failure aborts the transaction and leaves no partial reservation.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.InventoryReserveLatency.Observe(time.Since(start).Seconds())
	}()

	lines := make([]ReservationLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, ReservationLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	normalized := NormalizeLines(lines)

	var resp *CreateOrderResponse
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		var totalAmount int64
		items := make([]models.OrderItem, 0, len(normalized))

		for _, line := range normalized {
			product, err := s.lookupProduct(ctx, tx, line.ProductID)
			if err != nil {
				return err
			}

			inv, err := s.store.LockInventory(ctx, tx, line.ProductID)
			if err != nil {
				return err
			}

			if err := s.ledger.Reserve(ctx, tx, inv, line.Quantity); err != nil {
				return err
			}

			lineAmount := product.Price * int64(line.Quantity)
			totalAmount += lineAmount
			items = append(items, models.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				UnitPrice:   product.Price,
				Quantity:    line.Quantity,
				LineAmount:  lineAmount,
			})
		}

		order := &models.Order{
			UserID:        req.UserID,
			Status:        models.OrderStatusCreated,
			TotalAmount:   totalAmount,
			PayableAmount: totalAmount,
			Currency:      orderCurrency,
		}
		if err := s.store.InsertOrderTx(ctx, tx, order); err != nil {
			return err
		}

		for i := range items {
			items[i].OrderID = order.ID
			if err := s.store.InsertOrderItemTx(ctx, tx, &items[i]); err != nil {
				return err
			}
		}

		resp = &CreateOrderResponse{
			OrderID:       order.ID,
			Status:        order.Status,
			PayableAmount: order.PayableAmount,
			Currency:      order.Currency,
		}
		return nil
	})
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", resp.OrderID),
		zap.Int64("payable_amount", resp.PayableAmount))
	return resp, nil
}

// lookupProduct reads a product through the catalog cache, falling back to
// the transaction on a miss. Products are immutable here, so a cached copy
// is as good as the row.
func (s *OrderService) lookupProduct(ctx context.Context, tx *sqlx.Tx, productID int64) (*models.Product, error) {
	if s.cache != nil {
		product, err := s.cache.GetProduct(ctx, productID)
		if err != nil {
			s.logger.Warn("Product cache read failed, falling back to DB",
				zap.Int64("product_id", productID),
				zap.Error(err))
		} else if product != nil {
			return product, nil
		}
	}

	product, err := s.store.GetProductByIDTx(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetProduct(ctx, product); err != nil {
			s.logger.Warn("Product cache write failed",
				zap.Int64("product_id", productID),
				zap.Error(err))
		}
	}
	return product, nil
}

// GetOrder retrieves an order and its items
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

func failureReason(err error) string {
	de := models.AsDomainError(err)
	if de == nil {
		return "db_error"
	}
	switch de.Code {
	case models.CodeOutOfStock:
		return "insufficient_stock"
	case models.CodeProductNotFound, models.CodeInventoryNotFound:
		return "unknown_product"
	default:
		return "domain_error"
	}
}
