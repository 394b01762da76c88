package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same error code, so that
// errors.Is(err, ErrInsufficientStock) matches a more specific message.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
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

// Newf creates a domain error with a formatted message
func Newf(code, format string, args ...any) *DomainError {
	return NewDomainError(code, fmt.Sprintf(format, args...))
}

// Error codes
const (
	CodeNotFound                = "NOT_FOUND"
	CodeAlreadyExists           = "ALREADY_EXISTS"
	CodeInvalidInput            = "INVALID_INPUT"
	CodeValidationFailed        = "VALIDATION_FAILED"
	CodeConcurrencyConflict     = "CONCURRENCY_CONFLICT"
	CodeInsufficientStock       = "INSUFFICIENT_STOCK"
	CodeInsufficientQuantity    = "INSUFFICIENT_QUANTITY"
	CodeNotAPurchase            = "NOT_A_PURCHASE"
	CodeNotATransfer            = "NOT_A_TRANSFER"
	CodeUnknownDirection        = "UNKNOWN_DIRECTION"
	CodeUnbalancedEntry         = "UNBALANCED_ENTRY"
	CodeInvalidStateTransition  = "INVALID_STATE_TRANSITION"
	CodeLockNotObtained         = "LOCK_NOT_OBTAINED"
	CodeUnknownVerificationName = "UNKNOWN_CHECK"
)

// Common domain errors
var (
	ErrNotFound               = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists          = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput           = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrValidation             = NewDomainError(CodeValidationFailed, "Validation failed")
	ErrConcurrencyConflict    = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrInsufficientStock      = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
	ErrInsufficientQuantity   = NewDomainError(CodeInsufficientQuantity, "Insufficient quantity on hand to return purchase")
	ErrNotAPurchase           = NewDomainError(CodeNotAPurchase, "Movement is not a purchase")
	ErrNotATransfer           = NewDomainError(CodeNotATransfer, "Movement is not a transfer")
	ErrUnknownDirection       = NewDomainError(CodeUnknownDirection, "Movement has neither a source nor a destination location")
	ErrUnbalancedEntry        = NewDomainError(CodeUnbalancedEntry, "Journal entry debits do not equal credits")
	ErrInvalidStateTransition = NewDomainError(CodeInvalidStateTransition, "Status transition is not allowed")
	ErrLockNotObtained        = NewDomainError(CodeLockNotObtained, "Could not obtain lock")
)

// CodeOf returns the domain error code carried by err, or "" when err is not
// a domain error.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
