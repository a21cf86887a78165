package common

import (
	"errors"
	"fmt"
	"strings"
)

// Stable error codes reported to API callers.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeOrderNotFound       = "ORDER_NOT_FOUND"
	CodeProductNotFound     = "PRODUCT_NOT_FOUND"
	CodeCustomerNotFound    = "CUSTOMER_NOT_FOUND"
	CodeStockUnavailable    = "STOCK_UNAVAILABLE"
	CodeDuplicateRecord     = "DUPLICATE_RECORD"
	CodeForeignKeyViolation = "FOREIGN_KEY_VIOLATION"
	CodeServerError         = "SERVER_ERROR"
)

// FieldError is a single failed field check, addressed by its JSON path.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError reports malformed input. It never reaches a transaction.
type ValidationError struct {
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Path, f.Message))
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(parts, ", "))
}

// NewValidationError builds a validation error for a single field.
func NewValidationError(path, message string) *ValidationError {
	return &ValidationError{
		Message: "Validation failed",
		Fields:  []FieldError{{Path: path, Message: message}},
	}
}

// DomainError is a business rejection with a stable code and a caller-safe message.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

func OrderNotFound(orderNumber string) *DomainError {
	return NewDomainError(CodeOrderNotFound, fmt.Sprintf("order %s not found", orderNumber))
}

func ProductNotFound(sku string) *DomainError {
	return NewDomainError(CodeProductNotFound, fmt.Sprintf("product with sku %s not found", sku))
}

func CustomerNotFound(id string) *DomainError {
	return NewDomainError(CodeCustomerNotFound, fmt.Sprintf("customer %s not found", id))
}

func StockUnavailable(message string) *DomainError {
	if message == "" {
		message = "requested quantities are not available"
	}
	return NewDomainError(CodeStockUnavailable, message)
}

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsDomain reports whether err carries a DomainError with one of the given codes.
// With no codes it matches any DomainError.
func IsDomain(err error, codes ...string) bool {
	var d *DomainError
	if !errors.As(err, &d) {
		return false
	}
	if len(codes) == 0 {
		return true
	}
	for _, c := range codes {
		if d.Code == c {
			return true
		}
	}
	return false
}
