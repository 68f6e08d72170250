package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
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
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrProductNotFound     = NewDomainError("PRODUCT_NOT_FOUND", "Product could not be resolved by SKU or name")
	ErrInvalidQuantity     = NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrBundleTooDeep       = NewDomainError("BUNDLE_TOO_DEEP", "Bundle nesting exceeds the resolution depth limit")
	ErrSettingsUnavailable = NewDomainError("SETTINGS_UNAVAILABLE", "Stock deduction settings could not be loaded")
)
