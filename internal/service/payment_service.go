package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"commerce-service/internal/models"
	"commerce-service/internal/store"
	"commerce-service/internal/util"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const paymentProviderMock = "MOCK"

// PaymentService handles payment creation and the authorize/webhook paths.
// Authorize and webhook both funnel into the same outcome applier so the
// payment/order state change, the inventory mutation and the outbox insert
// stay atomic regardless of which door the result came through.
type PaymentService struct {
	store  *store.Store
	ledger *InventoryLedger
	logger *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(store *store.Store, ledger *InventoryLedger) *PaymentService {
	return &PaymentService{
		store:  store,
		ledger: ledger,
		logger: util.GetLogger(),
	}
}

// CreatePaymentResponse represents the response after creating a payment
type CreatePaymentResponse struct {
	PaymentID int64  `json:"payment_id"`
	OrderID   int64  `json:"order_id"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
}

// CreatePayment creates a payment for an order in status CREATED and moves
// the order to PAYMENT_PENDING. The status is re-checked under the order
// row's lock, which is what stops two concurrent payment creations against
// the same order.
func (s *PaymentService) CreatePayment(ctx context.Context, orderID int64) (*CreatePaymentResponse, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.CreatePayment")
	defer span.End()

	var resp *CreatePaymentResponse
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		order, err := s.store.LockOrder(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.Status != models.OrderStatusCreated {
			return models.NewDomainError(models.CodeOrderStateInvalid,
				"order must be CREATED for payment creation, current=%s", order.Status)
		}

		payment := &models.Payment{
			OrderID:  order.ID,
			Amount:   order.PayableAmount,
			Status:   models.PaymentStatusCreated,
			Provider: paymentProviderMock,
		}
		if err := s.store.InsertPaymentTx(ctx, tx, payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		if err := s.store.UpdateOrderStatusTx(ctx, tx, order.ID, models.OrderStatusPaymentPending); err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}

		resp = &CreatePaymentResponse{
			PaymentID: payment.ID,
			OrderID:   payment.OrderID,
			Status:    payment.Status,
			Amount:    payment.Amount,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment created",
		zap.Int64("payment_id", resp.PaymentID),
		zap.Int64("order_id", resp.OrderID))
	return resp, nil
}

// AuthorizeCommand carries a provider result for a payment, either from the
// client-driven authorize call or replayed by tests.
type AuthorizeCommand struct {
	PaymentID         int64
	IdempotencyKey    string
	Result            string
	ProviderPaymentID string
}

// AuthorizeResult is the outcome returned to the caller and stored verbatim
// in the idempotency record for replay.
type AuthorizeResult struct {
	PaymentID   int64  `json:"payment_id"`
	Status      string `json:"status"`
	OrderStatus string `json:"order_status"`
}

// AuthorizePayment applies a provider result once per idempotency key. A
// retry with the same key and body replays the stored response without
// touching state; the same key with a different body is rejected. The
// idempotency record is inserted in the same transaction as the state
// change, so record and effect cannot diverge.
func (s *PaymentService) AuthorizePayment(ctx context.Context, cmd *AuthorizeCommand) (*AuthorizeResult, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.AuthorizePayment")
	defer span.End()

	requestHash := AuthorizeRequestHash(cmd.Result, cmd.ProviderPaymentID)

	var result *AuthorizeResult
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := s.store.GetIdempotencyRecordTx(ctx, tx, cmd.PaymentID, cmd.IdempotencyKey)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.RequestHash != requestHash {
				return models.NewDomainError(models.CodeIdempotencyKeyConflict,
					"idempotency key already used with different request body")
			}
			util.AuthorizeReplaysTotal.Inc()
			var replayed AuthorizeResult
			if err := json.Unmarshal(existing.ResponsePayload, &replayed); err != nil {
				return fmt.Errorf("failed to decode stored authorize response: %w", err)
			}
			result = &replayed
			return nil
		}

		payment, err := s.store.LockPayment(ctx, tx, cmd.PaymentID)
		if err != nil {
			return err
		}
		order, err := s.store.LockOrder(ctx, tx, payment.OrderID)
		if err != nil {
			return err
		}

		if err := s.applyOutcome(ctx, tx, payment, order, cmd.Result, cmd.ProviderPaymentID); err != nil {
			return err
		}

		result = &AuthorizeResult{
			PaymentID:   payment.ID,
			Status:      payment.Status,
			OrderStatus: order.Status,
		}
		payload, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode authorize response: %w", err)
		}
		return s.store.InsertIdempotencyRecordTx(ctx, tx, &models.PaymentIdempotencyRecord{
			PaymentID:       cmd.PaymentID,
			IdempotencyKey:  cmd.IdempotencyKey,
			RequestHash:     requestHash,
			ResponsePayload: payload,
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// WebhookCommand is an inbound provider callback
type WebhookCommand struct {
	Provider          string
	ProviderEventID   string
	ProviderPaymentID string
	PaymentID         int64
	Result            string
}

// WebhookResult reports the payment/order statuses after (or instead of)
// processing a callback.
type WebhookResult struct {
	PaymentID   int64  `json:"payment_id"`
	Status      string `json:"status"`
	OrderStatus string `json:"order_status"`
	Duplicate   bool   `json:"duplicate"`
}

// ProcessWebhook records the callback and applies its result. The event row
// is inserted outside the business transaction so the accepted marker
// commits independently; a unique violation on (provider, event id) means
// duplicate delivery, in which case current statuses are returned and
// nothing is mutated.
func (s *PaymentService) ProcessWebhook(ctx context.Context, cmd *WebhookCommand) (*WebhookResult, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.ProcessWebhook")
	defer span.End()

	event := &models.PaymentWebhookEvent{
		Provider:          cmd.Provider,
		ProviderEventID:   cmd.ProviderEventID,
		ProviderPaymentID: nullString(cmd.ProviderPaymentID),
		PaymentID:         sql.NullInt64{Int64: cmd.PaymentID, Valid: true},
	}
	if err := s.store.InsertWebhookEvent(ctx, event); err != nil {
		if !store.IsUniqueViolation(err) {
			return nil, fmt.Errorf("failed to record webhook event: %w", err)
		}
		return s.replayWebhook(ctx, cmd)
	}

	var result *WebhookResult
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		payment, err := s.store.LockPayment(ctx, tx, cmd.PaymentID)
		if err != nil {
			return err
		}
		order, err := s.store.LockOrder(ctx, tx, payment.OrderID)
		if err != nil {
			return err
		}

		if err := s.applyOutcome(ctx, tx, payment, order, cmd.Result, cmd.ProviderPaymentID); err != nil {
			return err
		}

		result = &WebhookResult{
			PaymentID:   payment.ID,
			Status:      payment.Status,
			OrderStatus: order.Status,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Webhook processed",
		zap.String("provider", cmd.Provider),
		zap.String("provider_event_id", cmd.ProviderEventID),
		zap.Int64("payment_id", result.PaymentID),
		zap.String("status", result.Status))
	return result, nil
}

// replayWebhook answers a duplicate delivery with the current statuses of
// the payment the original delivery targeted.
func (s *PaymentService) replayWebhook(ctx context.Context, cmd *WebhookCommand) (*WebhookResult, error) {
	util.WebhookDuplicatesTotal.Inc()
	s.logger.Info("Duplicate webhook delivery",
		zap.String("provider", cmd.Provider),
		zap.String("provider_event_id", cmd.ProviderEventID))

	existing, err := s.store.GetWebhookEvent(ctx, cmd.Provider, cmd.ProviderEventID)
	if err != nil {
		return nil, err
	}
	if existing == nil || !existing.PaymentID.Valid {
		return nil, models.ErrPaymentNotFound(cmd.PaymentID)
	}

	payment, err := s.store.GetPaymentByID(ctx, existing.PaymentID.Int64)
	if err != nil {
		return nil, err
	}
	order, err := s.store.GetOrderByID(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}

	return &WebhookResult{
		PaymentID:   payment.ID,
		Status:      payment.Status,
		OrderStatus: order.Status,
		Duplicate:   true,
	}, nil
}

// applyOutcome is the payment state applier. The order must currently be
// PAYMENT_PENDING. AUTHORIZED confirms every reserved line and stages the
// PAYMENT_AUTHORIZED outbox event; FAILED releases every reservation.
// Inventory rows are locked in ascending product ID order, the same total
// order the reservation workflow uses.
func (s *PaymentService) applyOutcome(ctx context.Context, tx *sqlx.Tx, payment *models.Payment, order *models.Order, result, providerPaymentID string) error {
	if order.Status != models.OrderStatusPaymentPending {
		return models.NewDomainError(models.CodeOrderStateInvalid,
			"order must be PAYMENT_PENDING to apply a payment result, current=%s", order.Status)
	}

	items, err := s.store.GetOrderItemsByOrderIDTx(ctx, tx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to load order items: %w", err)
	}

	switch result {
	case models.PaymentResultAuthorized:
		return s.applyAuthorized(ctx, tx, payment, order, items, providerPaymentID)
	case models.PaymentResultFailed:
		return s.applyFailed(ctx, tx, payment, order, items, providerPaymentID)
	default:
		return models.NewDomainError(models.CodeOrderStateInvalid, "unknown payment result: %s", result)
	}
}

func (s *PaymentService) applyAuthorized(ctx context.Context, tx *sqlx.Tx, payment *models.Payment, order *models.Order, items []models.OrderItem, providerPaymentID string) error {
	payment.Status = models.PaymentStatusAuthorized
	payment.ProviderPaymentID = nullString(providerPaymentID)
	if err := s.store.UpdatePaymentOutcomeTx(ctx, tx, payment.ID, payment.Status, payment.ProviderPaymentID); err != nil {
		return err
	}

	order.Status = models.OrderStatusPaid
	if err := s.store.UpdateOrderStatusTx(ctx, tx, order.ID, order.Status); err != nil {
		return err
	}

	for _, item := range SortItemsByProduct(items) {
		inv, err := s.store.LockInventory(ctx, tx, item.ProductID)
		if err != nil {
			return err
		}
		if err := s.ledger.Confirm(ctx, tx, inv, item.Quantity); err != nil {
			return err
		}
	}

	event, err := models.NewPaymentAuthorizedEvent(payment.ID, order.ID, payment.Amount, providerPaymentID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to build payment authorized event: %w", err)
	}
	if err := s.store.InsertOutboxEventTx(ctx, tx, event); err != nil {
		return err
	}

	util.PaymentsAuthorizedTotal.Inc()
	return nil
}

func (s *PaymentService) applyFailed(ctx context.Context, tx *sqlx.Tx, payment *models.Payment, order *models.Order, items []models.OrderItem, providerPaymentID string) error {
	payment.Status = models.PaymentStatusFailed
	payment.ProviderPaymentID = nullString(providerPaymentID)
	if err := s.store.UpdatePaymentOutcomeTx(ctx, tx, payment.ID, payment.Status, payment.ProviderPaymentID); err != nil {
		return err
	}

	order.Status = models.OrderStatusPaymentFailed
	if err := s.store.UpdateOrderStatusTx(ctx, tx, order.ID, order.Status); err != nil {
		return err
	}

	for _, item := range SortItemsByProduct(items) {
		inv, err := s.store.LockInventory(ctx, tx, item.ProductID)
		if err != nil {
			return err
		}
		if err := s.ledger.Release(ctx, tx, inv, item.Quantity); err != nil {
			return err
		}
	}

	util.PaymentsFailedTotal.Inc()
	return nil
}

// GetPaymentByOrder retrieves the latest payment for an order
func (s *PaymentService) GetPaymentByOrder(ctx context.Context, orderID int64) (*models.Payment, error) {
	return s.store.GetPaymentByOrderID(ctx, orderID)
}

// AuthorizeRequestHash hashes the semantically relevant authorize fields.
// Two requests with the same key must carry the same hash to be treated as
// a safe retry.
func AuthorizeRequestHash(result, providerPaymentID string) string {
	sum := sha256.Sum256([]byte(result + "|" + providerPaymentID))
	return hex.EncodeToString(sum[:])
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
