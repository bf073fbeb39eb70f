package errors

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

func define(httpCode int, errorCode, message string) *BaseError {
	return &BaseError{httpCode: httpCode, errorCode: errorCode, message: message}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.details != "" {
		return e.message + ": " + e.details
	}

	return e.message
}

// Is matches any BaseError carrying the same business code, so errors built
// with WithDetails still match their catalogue entry.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}

	return t.errorCode == e.errorCode
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// NewValidationError reports a failed field.
func NewValidationError(field, reason string) *BaseError {
	return ErrValidationFailed.WithDetails(field + ": " + reason)
}

// NewNotFoundError reports a missing resource of the given kind.
func NewNotFoundError(kind string, id uuid.UUID) *BaseError {
	return ErrNotFound.WithDetails(fmt.Sprintf("%s %s", kind, id))
}

// ItemNotAvailableError is returned when an item left the marketplace before checkout locked it.
type ItemNotAvailableError struct {
	ItemID uuid.UUID
}

// NewItemNotAvailableError creates an ItemNotAvailableError
func NewItemNotAvailableError(itemID uuid.UUID) *ItemNotAvailableError {
	return &ItemNotAvailableError{ItemID: itemID}
}

func (e *ItemNotAvailableError) Error() string {
	return fmt.Sprintf("item %s is not available", e.ItemID)
}

func (e *ItemNotAvailableError) HTTPCode() int { return http.StatusConflict }

func (e *ItemNotAvailableError) ErrorCode() string { return "ITEM_NOT_AVAILABLE" }

func (e *ItemNotAvailableError) Message() string {
	return "An item in your cart is no longer available"
}

func (e *ItemNotAvailableError) Details() string { return e.ItemID.String() }

// InsufficientCreditsError is returned when a debit exceeds the materialised balance.
type InsufficientCreditsError struct {
	Required  int64
	Available int64
}

// NewInsufficientCreditsError creates an InsufficientCreditsError
func NewInsufficientCreditsError(required, available int64) *InsufficientCreditsError {
	return &InsufficientCreditsError{Required: required, Available: available}
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

func (e *InsufficientCreditsError) HTTPCode() int { return http.StatusPaymentRequired }

func (e *InsufficientCreditsError) ErrorCode() string { return "INSUFFICIENT_CREDITS" }

func (e *InsufficientCreditsError) Message() string { return "Not enough credits" }

func (e *InsufficientCreditsError) Details() string {
	return fmt.Sprintf("required=%d available=%d", e.Required, e.Available)
}

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// Unwrap exposes the driver error.
func (e *DatabaseExecuteError) Unwrap() error {
	return e.err
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "Database execution failed"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}
