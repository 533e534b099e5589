package models

import (
	"database/sql"
	"time"
)

// Product represents a product in the catalog. Products are read-only for
// this service; catalog management happens elsewhere.
type Product struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Price     int64     `db:"price" json:"price"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Inventory represents product stock. Available is physical stock, Reserved
// is quantity held for unpaid orders. Rows are mutated only while holding a
// FOR UPDATE lock on the row.
type Inventory struct {
	ProductID int64     `db:"product_id" json:"product_id"`
	Available int       `db:"available_qty" json:"available_qty"`
	Reserved  int       `db:"reserved_qty" json:"reserved_qty"`
	Version   int64     `db:"version" json:"version"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Headroom returns the quantity currently reservable: Available - Reserved.
func (inv *Inventory) Headroom() int {
	return inv.Available - inv.Reserved
}

// Order represents a customer order
type Order struct {
	ID             int64     `db:"id" json:"id"`
	UserID         int64     `db:"user_id" json:"user_id"`
	Status         string    `db:"status" json:"status"`
	TotalAmount    int64     `db:"total_amount" json:"total_amount"`
	ShippingFee    int64     `db:"shipping_fee" json:"shipping_fee"`
	DiscountAmount int64     `db:"discount_amount" json:"discount_amount"`
	PayableAmount  int64     `db:"payable_amount" json:"payable_amount"`
	Currency       string    `db:"currency" json:"currency"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// OrderItem represents one line of an order. Name and unit price are
// snapshots taken at order time so later catalog changes do not rewrite
// order history.
type OrderItem struct {
	ID          int64  `db:"id" json:"id"`
	OrderID     int64  `db:"order_id" json:"order_id"`
	ProductID   int64  `db:"product_id" json:"product_id"`
	ProductName string `db:"product_name" json:"product_name"`
	UnitPrice   int64  `db:"unit_price" json:"unit_price"`
	Quantity    int    `db:"quantity" json:"quantity"`
	LineAmount  int64  `db:"line_amount" json:"line_amount"`
}

// Payment represents a payment attempt against an order
type Payment struct {
	ID                int64          `db:"id" json:"id"`
	OrderID           int64          `db:"order_id" json:"order_id"`
	Amount            int64          `db:"amount" json:"amount"`
	Status            string         `db:"status" json:"status"`
	Provider          string         `db:"provider" json:"provider"`
	ProviderPaymentID sql.NullString `db:"provider_payment_id" json:"provider_payment_id,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// PaymentIdempotencyRecord stores the first outcome of an authorize call for
// a (payment, idempotency key) pair. Append-only; the unique constraint on
// the pair is what rejects a second insert.
type PaymentIdempotencyRecord struct {
	ID              int64     `db:"id"`
	PaymentID       int64     `db:"payment_id"`
	IdempotencyKey  string    `db:"idempotency_key"`
	RequestHash     string    `db:"request_hash"`
	ResponsePayload []byte    `db:"response_payload"`
	CreatedAt       time.Time `db:"created_at"`
}

// PaymentWebhookEvent records that a provider callback has been accepted.
// Append-only; a unique violation on (provider, provider_event_id) IS the
// duplicate-delivery signal, not a side lookup.
type PaymentWebhookEvent struct {
	ID                int64          `db:"id"`
	Provider          string         `db:"provider"`
	ProviderEventID   string         `db:"provider_event_id"`
	ProviderPaymentID sql.NullString `db:"provider_payment_id"`
	PaymentID         sql.NullInt64  `db:"payment_id"`
	ReceivedAt        time.Time      `db:"received_at"`
}

// OutboxEvent is a domain event staged in the same transaction as the state
// change that produced it. Rows are never deleted; PUBLISHED and FAILED rows
// remain for audit and replay.
type OutboxEvent struct {
	ID            int64        `db:"id" json:"id"`
	EventType     string       `db:"event_type" json:"event_type"`
	AggregateType string       `db:"aggregate_type" json:"aggregate_type"`
	AggregateID   int64        `db:"aggregate_id" json:"aggregate_id"`
	Payload       []byte       `db:"payload" json:"payload"`
	Status        string       `db:"status" json:"status"`
	RetryCount    int          `db:"retry_count" json:"retry_count"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	PublishedAt   sql.NullTime `db:"published_at" json:"published_at,omitempty"`
}

// Shipment is created by the payment-authorized consumer. The unique
// constraint on order_id is the sole mechanism preventing duplicate
// shipments under message redelivery.
type Shipment struct {
	ID             int64          `db:"id" json:"id"`
	OrderID        int64          `db:"order_id" json:"order_id"`
	Status         string         `db:"status" json:"status"`
	TrackingNumber sql.NullString `db:"tracking_number" json:"tracking_number,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// Order statuses
const (
	OrderStatusCreated        = "CREATED"
	OrderStatusPaymentPending = "PAYMENT_PENDING"
	OrderStatusPaid           = "PAID"
	OrderStatusPaymentFailed  = "PAYMENT_FAILED"
)

// Payment statuses
const (
	PaymentStatusCreated    = "CREATED"
	PaymentStatusAuthorized = "AUTHORIZED"
	PaymentStatusFailed     = "FAILED"
)

// Payment results carried by authorize calls and webhooks
const (
	PaymentResultAuthorized = "AUTHORIZED"
	PaymentResultFailed     = "FAILED"
)

// Outbox statuses
const (
	OutboxStatusPending   = "PENDING"
	OutboxStatusPublished = "PUBLISHED"
	OutboxStatusFailed    = "FAILED"
)

// Shipment statuses
const (
	ShipmentStatusCreated = "CREATED"
)

// Aggregate types recorded on outbox rows
const (
	AggregateTypePayment = "PAYMENT"
	AggregateTypeOrder   = "ORDER"
)
