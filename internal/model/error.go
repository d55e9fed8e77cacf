package model

import (
	"errors"
	"fmt"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON            = "INVALID_JSON"
	ErrCodeMissingSession         = "MISSING_SESSION"
	ErrCodeInvalidOrderID         = "INVALID_ORDER_ID"
	ErrCodeInvalidTransition      = "INVALID_TRANSITION"
	ErrCodeIllegalMutation        = "ILLEGAL_MUTATION"
	ErrCodeTerminalStateViolation = "TERMINAL_STATE_VIOLATION"
	ErrCodeAlreadyTerminal        = "ALREADY_TERMINAL"
	ErrCodeEmptyCart              = "EMPTY_CART"
	ErrCodeInsufficientStock      = "INSUFFICIENT_STOCK"
	ErrCodeProductUnavailable     = "PRODUCT_UNAVAILABLE"
	ErrCodeInvalidQuantity        = "INVALID_QUANTITY"
	ErrCodeOrderNotFound          = "ORDER_NOT_FOUND"
	ErrCodeInvalidCustomer        = "INVALID_CUSTOMER"
	ErrCodeVariantRequired        = "VARIANT_REQUIRED"
	ErrCodeCartLineNotFound       = "CART_LINE_NOT_FOUND"
	ErrCodeUnauthorised           = "UNAUTHORIZED"
	ErrCodeInternalError          = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches any DomainError carrying the same code, so detailed instances
// still satisfy errors.Is against the sentinels below.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidTransition      = NewDomainError(ErrCodeInvalidTransition, "Order status transition is not allowed")
	ErrIllegalMutation        = NewDomainError(ErrCodeIllegalMutation, "Order status and total price cannot be changed directly")
	ErrTerminalStateViolation = NewDomainError(ErrCodeTerminalStateViolation, "Shipped orders cannot be cancelled")
	ErrAlreadyTerminal        = NewDomainError(ErrCodeAlreadyTerminal, "Order is already cancelled")
	ErrEmptyCart              = NewDomainError(ErrCodeEmptyCart, "Cart is empty")
	ErrInsufficientStock      = NewDomainError(ErrCodeInsufficientStock, "Not enough stock")
	ErrProductUnavailable     = NewDomainError(ErrCodeProductUnavailable, "Product is no longer available")
	ErrInvalidQuantity        = NewDomainError(ErrCodeInvalidQuantity, "Quantity is out of range")
	ErrOrderNotFound          = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrInvalidCustomer        = NewDomainError(ErrCodeInvalidCustomer, "Customer details are invalid")
	ErrVariantRequired        = NewDomainError(ErrCodeVariantRequired, "Choose a product variant")
	ErrCartLineNotFound       = NewDomainError(ErrCodeCartLineNotFound, "Cart line not found")
)

// InsufficientStockError names the product and the quantity still available.
type InsufficientStockError struct {
	ProductName string
	VariantID   int64
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Not enough %q in stock: only %d left, %d requested", e.ProductName, e.Available, e.Requested)
}

// Is reports whether target is ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// NewInsufficientStockError creates a stock error for the given variant.
func NewInsufficientStockError(productName string, variantID int64, available, requested int) error {
	return &InsufficientStockError{
		ProductName: productName,
		VariantID:   variantID,
		Available:   available,
		Requested:   requested,
	}
}

// ErrorCode returns the domain code carried by err, or ErrCodeInternalError.
func ErrorCode(err error) string {
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		return ErrCodeInsufficientStock
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ErrCodeInternalError
}
