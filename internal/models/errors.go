package models

import (
	"errors"
	"fmt"
)

// ErrorCode classifies domain failures. The API layer maps codes to HTTP
// statuses; callers branch on the code, never on message text.
type ErrorCode string

const (
	CodeProductNotFound        ErrorCode = "PRODUCT_NOT_FOUND"
	CodeInventoryNotFound      ErrorCode = "INVENTORY_NOT_FOUND"
	CodeOrderNotFound          ErrorCode = "ORDER_NOT_FOUND"
	CodePaymentNotFound        ErrorCode = "PAYMENT_NOT_FOUND"
	CodeOutOfStock             ErrorCode = "OUT_OF_STOCK"
	CodeOrderStateInvalid      ErrorCode = "ORDER_STATE_INVALID"
	CodeIdempotencyKeyConflict ErrorCode = "IDEMPOTENCY_KEY_CONFLICT"
	CodeDataInconsistency      ErrorCode = "DATA_INCONSISTENCY"
)

// DomainError is a business failure with a stable code. It aborts the
// current transaction and is returned to the caller as the sole outcome.
type DomainError struct {
	Code    ErrorCode
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewDomainError creates a domain error with a formatted message.
func NewDomainError(code ErrorCode, format string, args ...interface{}) *DomainError {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsDomainError unwraps err to a DomainError, or returns nil.
func AsDomainError(err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return nil
}

// IsCode reports whether err is a DomainError with the given code.
func IsCode(err error, code ErrorCode) bool {
	de := AsDomainError(err)
	return de != nil && de.Code == code
}

func ErrProductNotFound(productID int64) *DomainError {
	return NewDomainError(CodeProductNotFound, "product not found: %d", productID)
}

func ErrInventoryNotFound(productID int64) *DomainError {
	return NewDomainError(CodeInventoryNotFound, "inventory not found for product: %d", productID)
}

func ErrOrderNotFound(orderID int64) *DomainError {
	return NewDomainError(CodeOrderNotFound, "order not found: %d", orderID)
}

func ErrPaymentNotFound(paymentID int64) *DomainError {
	return NewDomainError(CodePaymentNotFound, "payment not found: %d", paymentID)
}

func ErrInsufficientStock(productID int64, headroom, requested int) *DomainError {
	return NewDomainError(CodeOutOfStock,
		"insufficient stock for product %d: headroom=%d, requested=%d", productID, headroom, requested)
}
