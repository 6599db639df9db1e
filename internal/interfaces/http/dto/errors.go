package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeSessionNotFound is used when a product has no open editing session
	ErrCodeSessionNotFound = "ERR_SESSION_NOT_FOUND"
	// ErrCodeProductNotFound is used when the store has no such product
	ErrCodeProductNotFound = "ERR_PRODUCT_NOT_FOUND"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeInvalidImage is used when an upload is not a usable image
	ErrCodeInvalidImage = "ERR_INVALID_IMAGE"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Remote store error codes
const (
	// ErrCodeStoreUnavailable is used when the store cannot be reached or keeps failing
	ErrCodeStoreUnavailable = "ERR_STORE_UNAVAILABLE"
	// ErrCodeStoreRejected is used when the store refused the request
	ErrCodeStoreRejected = "ERR_STORE_REJECTED"
	// ErrCodeStoreNotConfigured is used when no store credentials are configured
	ErrCodeStoreNotConfigured = "ERR_STORE_NOT_CONFIGURED"
	// ErrCodeImageUploadFailed is used when the image backend did not store the file
	ErrCodeImageUploadFailed = "ERR_IMAGE_UPLOAD_FAILED"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// Variation editing codes raised as shared.DomainError by the domain layer
const (
	CodeInvalidProductID         = "INVALID_PRODUCT_ID"
	CodeInvalidAttribute         = "INVALID_ATTRIBUTE"
	CodeDuplicateAttribute       = "DUPLICATE_ATTRIBUTE"
	CodeTooManyCombinations      = "TOO_MANY_COMBINATIONS"
	CodePriceRequired            = "PRICE_REQUIRED"
	CodeInvalidPrice             = "INVALID_PRICE"
	CodeInvalidQuantity          = "INVALID_QUANTITY"
	CodeInvalidStockStatus       = "INVALID_STOCK_STATUS"
	CodeConfirmationRequired     = "CONFIRMATION_REQUIRED"
	CodeUnknownBulkAction        = "UNKNOWN_BULK_ACTION"
	CodeVariationIndexOutOfRange = "VARIATION_INDEX_OUT_OF_RANGE"
	CodeNothingToSubmit          = "NOTHING_TO_SUBMIT"
	CodeProductNotSaved          = "PRODUCT_NOT_SAVED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation: http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeSessionNotFound: http.StatusNotFound,
	ErrCodeProductNotFound: http.StatusNotFound,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeInvalidImage:    http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Remote store errors -> 502/503
	ErrCodeStoreUnavailable:   http.StatusServiceUnavailable,
	ErrCodeStoreRejected:      http.StatusBadGateway,
	ErrCodeStoreNotConfigured: http.StatusServiceUnavailable,
	ErrCodeImageUploadFailed:  http.StatusBadGateway,

	ErrCodeRateLimited: http.StatusTooManyRequests,

	// Operator input the domain rejected -> 400
	CodeInvalidProductID:         http.StatusBadRequest,
	CodeInvalidAttribute:         http.StatusBadRequest,
	CodeDuplicateAttribute:       http.StatusBadRequest,
	CodePriceRequired:            http.StatusBadRequest,
	CodeInvalidPrice:             http.StatusBadRequest,
	CodeInvalidQuantity:          http.StatusBadRequest,
	CodeInvalidStockStatus:       http.StatusBadRequest,
	CodeUnknownBulkAction:        http.StatusBadRequest,
	CodeVariationIndexOutOfRange: http.StatusNotFound,

	// Business rule violations -> 422 Unprocessable Entity
	CodeTooManyCombinations:  http.StatusUnprocessableEntity,
	CodeConfirmationRequired: http.StatusUnprocessableEntity,
	CodeNothingToSubmit:      http.StatusUnprocessableEntity,
	CodeProductNotSaved:      http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps the shared domain codes to standardized codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":     ErrCodeNotFound,
	"INVALID_INPUT": ErrCodeBadRequest,
	"BAD_REQUEST":   ErrCodeBadRequest,
}

// NormalizeErrorCode converts a legacy error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
