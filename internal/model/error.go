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

// ErrorKind classifies a domain error independently of its message.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindValidation
	KindConflict
	KindBusinessRule
	KindForbidden
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindValidation:
		return "VALIDATION"
	case KindConflict:
		return "CONFLICT"
	case KindBusinessRule:
		return "BUSINESS_RULE_VIOLATION"
	case KindForbidden:
		return "FORBIDDEN"
	default:
		return "UNKNOWN"
	}
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON          = "INVALID_JSON"
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeProductNotFound      = "PRODUCT_NOT_FOUND"
	ErrCodeSizeNotFound         = "SIZE_NOT_FOUND"
	ErrCodeOrderNotFound        = "ORDER_NOT_FOUND"
	ErrCodeDiscountNotFound     = "DISCOUNT_NOT_FOUND"
	ErrCodeVoucherNotFound      = "VOUCHER_NOT_FOUND"
	ErrCodeVoucherExists        = "VOUCHER_EXISTS"
	ErrCodeVoucherNotStarted    = "VOUCHER_NOT_STARTED"
	ErrCodeVoucherExpired       = "VOUCHER_EXPIRED"
	ErrCodeVoucherExhausted     = "VOUCHER_EXHAUSTED"
	ErrCodeBelowMinOrderValue   = "BELOW_MIN_ORDER_VALUE"
	ErrCodeVoucherNotApplicable = "VOUCHER_NOT_APPLICABLE"
	ErrCodeCategoryNotEligible  = "CATEGORY_NOT_ELIGIBLE"
	ErrCodeInsufficientStock    = "INSUFFICIENT_STOCK"
	ErrCodeIllegalTransition    = "ILLEGAL_TRANSITION"
	ErrCodeUnauthorised         = "UNAUTHORIZED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// DomainError is an error surfaced to API callers. Kind drives the HTTP status,
// Code is stable for clients, Message is human readable.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that
// parameterised errors still match their sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error with a custom message.
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(KindValidation, ErrCodeValidation, fmt.Sprintf(format, args...))
}

// AsDomainError extracts a DomainError from err.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Common domain errors
var (
	ErrProductNotFound  = NewDomainError(KindNotFound, ErrCodeProductNotFound, "Product not found")
	ErrSizeNotFound     = NewDomainError(KindNotFound, ErrCodeSizeNotFound, "Size not available for this product")
	ErrOrderNotFound    = NewDomainError(KindNotFound, ErrCodeOrderNotFound, "Order not found")
	ErrDiscountNotFound = NewDomainError(KindNotFound, ErrCodeDiscountNotFound, "Discount not found")
	ErrVoucherNotFound  = NewDomainError(KindNotFound, ErrCodeVoucherNotFound, "Voucher does not exist or is inactive")

	ErrVoucherExists = NewDomainError(KindConflict, ErrCodeVoucherExists, "Voucher code already exists")

	ErrVoucherNotStarted    = NewDomainError(KindBusinessRule, ErrCodeVoucherNotStarted, "Voucher is not yet valid")
	ErrVoucherExpired       = NewDomainError(KindBusinessRule, ErrCodeVoucherExpired, "Voucher has expired")
	ErrVoucherExhausted     = NewDomainError(KindBusinessRule, ErrCodeVoucherExhausted, "Voucher usage limit has been reached")
	ErrBelowMinOrderValue   = NewDomainError(KindBusinessRule, ErrCodeBelowMinOrderValue, "Order total is below the voucher minimum")
	ErrVoucherNotApplicable = NewDomainError(KindBusinessRule, ErrCodeVoucherNotApplicable, "Voucher is not applicable to these products")
	ErrCategoryNotEligible  = NewDomainError(KindBusinessRule, ErrCodeCategoryNotEligible, "Voucher is not applicable to this category")
	ErrInsufficientStock    = NewDomainError(KindBusinessRule, ErrCodeInsufficientStock, "Insufficient stock")

	ErrIllegalTransition = NewDomainError(KindConflict, ErrCodeIllegalTransition, "Order status change is not allowed")

	ErrForbidden = NewDomainError(KindForbidden, ErrCodeForbidden, "You are not allowed to perform this action")
)

// NewBelowMinOrderValueError reports the voucher threshold in the message.
func NewBelowMinOrderValueError(minOrderValue int64) *DomainError {
	return NewDomainError(KindBusinessRule, ErrCodeBelowMinOrderValue,
		fmt.Sprintf("Order total must be at least %d to use this voucher", minOrderValue))
}

// NewInsufficientStockError names the line that could not be fulfilled.
func NewInsufficientStockError(productName, size string, available int) *DomainError {
	return NewDomainError(KindBusinessRule, ErrCodeInsufficientStock,
		fmt.Sprintf("Only %d left in stock for %s (size %s)", available, productName, size))
}

// NewIllegalTransitionError names both ends of a rejected transition.
func NewIllegalTransitionError(from, to OrderStatus) *DomainError {
	return NewDomainError(KindConflict, ErrCodeIllegalTransition,
		fmt.Sprintf("Cannot change order status from %s to %s", from, to))
}
