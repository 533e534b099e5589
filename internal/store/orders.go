package store

import (
	"context"
	"database/sql"
	"fmt"

	"commerce-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// InsertOrderTx creates a new order within a transaction
func (s *Store) InsertOrderTx(ctx context.Context, tx *sqlx.Tx, order *models.Order) error {
	query := `
		INSERT INTO orders (user_id, status, total_amount, shipping_fee, discount_amount, payable_amount, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	return tx.GetContext(ctx, order, query,
		order.UserID, order.Status, order.TotalAmount,
		order.ShippingFee, order.DiscountAmount, order.PayableAmount, order.Currency)
}

// InsertOrderItemTx creates a new order item within a transaction
func (s *Store) InsertOrderItemTx(ctx context.Context, tx *sqlx.Tx, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity, line_amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	return tx.GetContext(ctx, &item.ID, query,
		item.OrderID, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity, item.LineAmount)
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.ErrOrderNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// LockOrder acquires an exclusive lock on the order row for the duration of
// the transaction. Status transitions are re-checked under this lock.
func (s *Store) LockOrder(ctx context.Context, tx *sqlx.Tx, id int64) (*models.Order, error) {
	var order models.Order
	err := tx.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1 FOR UPDATE", id)
	if err == sql.ErrNoRows {
		return nil, models.ErrOrderNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock order %d: %w", id, err)
	}
	return &order, nil
}

// UpdateOrderStatusTx updates order status within a transaction
func (s *Store) UpdateOrderStatusTx(ctx context.Context, tx *sqlx.Tx, orderID int64, status string) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	return err
}

// GetOrderItemsByOrderID retrieves all items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// GetOrderItemsByOrderIDTx retrieves all items for an order within a transaction
func (s *Store) GetOrderItemsByOrderIDTx(ctx context.Context, tx *sqlx.Tx, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := tx.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// InsertPaymentTx creates a new payment record within a transaction
func (s *Store) InsertPaymentTx(ctx context.Context, tx *sqlx.Tx, payment *models.Payment) error {
	query := `
		INSERT INTO payments (order_id, amount, status, provider, provider_payment_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return tx.GetContext(ctx, payment, query,
		payment.OrderID, payment.Amount, payment.Status, payment.Provider, payment.ProviderPaymentID)
}

// GetPaymentByID retrieves a payment by ID
func (s *Store) GetPaymentByID(ctx context.Context, id int64) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment, "SELECT * FROM payments WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.ErrPaymentNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// LockPayment acquires an exclusive lock on the payment row for the duration
// of the transaction.
func (s *Store) LockPayment(ctx context.Context, tx *sqlx.Tx, id int64) (*models.Payment, error) {
	var payment models.Payment
	err := tx.GetContext(ctx, &payment, "SELECT * FROM payments WHERE id = $1 FOR UPDATE", id)
	if err == sql.ErrNoRows {
		return nil, models.ErrPaymentNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock payment %d: %w", id, err)
	}
	return &payment, nil
}

// GetPaymentByOrderID retrieves the most recent payment for an order
func (s *Store) GetPaymentByOrderID(ctx context.Context, orderID int64) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.GetContext(ctx, &payment,
		"SELECT * FROM payments WHERE order_id = $1 ORDER BY created_at DESC LIMIT 1", orderID)
	if err == sql.ErrNoRows {
		return nil, models.NewDomainError(models.CodePaymentNotFound, "payment not found for order: %d", orderID)
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdatePaymentOutcomeTx updates payment status and provider payment ID
// within a transaction
func (s *Store) UpdatePaymentOutcomeTx(ctx context.Context, tx *sqlx.Tx, paymentID int64, status string, providerPaymentID sql.NullString) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE payments SET status = $1, provider_payment_id = $2, updated_at = NOW() WHERE id = $3",
		status, providerPaymentID, paymentID)
	return err
}
