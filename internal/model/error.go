package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeMissingField     = "MISSING_FIELD"
	ErrCodeInvalidParameter = "INVALID_PARAMETER"
	ErrCodeInvalidSort      = "INVALID_SORT"
	ErrCodeInvalidPrice     = "INVALID_PRICE"
	ErrCodeInvalidStock     = "INVALID_STOCK"
	ErrCodeProductNotFound  = "PRODUCT_NOT_FOUND"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

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
	ErrProductNotFound = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrInvalidSort     = NewDomainError(ErrCodeInvalidSort, "Sort must be one of NEWEST, POPULAR, RATING or PRICE")
	ErrInvalidPrice    = NewDomainError(ErrCodeInvalidPrice, "Price must not be negative")
	ErrInvalidStock    = NewDomainError(ErrCodeInvalidStock, "Stock cannot drop below zero")
	ErrMissingShopID   = NewDomainError(ErrCodeMissingField, "Shop ID is required")
	ErrMissingName     = NewDomainError(ErrCodeMissingField, "Product name is required")
)
