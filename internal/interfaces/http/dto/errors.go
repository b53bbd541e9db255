package dto

import "net/http"

// Ledger and catalog codes. Domain errors keep their code on the wire.
const (
	ErrCodeSaleNotFound          = "SALE_NOT_FOUND"
	ErrCodeSaleItemNotFound      = "SALE_ITEM_NOT_FOUND"
	ErrCodeVariantNotFound       = "VARIANT_NOT_FOUND"
	ErrCodeBatchNotFound         = "BATCH_NOT_FOUND"
	ErrCodeInsufficientStock     = "INSUFFICIENT_STOCK"
	ErrCodeNoStockAvailable      = "NO_STOCK_AVAILABLE"
	ErrCodeBatchQuantityConflict = "BATCH_QUANTITY_CONFLICT"
	ErrCodeLockTimeout           = "LOCK_TIMEOUT"
	ErrCodeSaleNotEmpty          = "SALE_NOT_EMPTY"
)

// Validation codes
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeInvalidQuantity = "INVALID_QUANTITY"
	ErrCodeInvalidPrice    = "INVALID_PRICE"
	ErrCodeInvalidVariant  = "INVALID_VARIANT"
	ErrCodeInvalidCustomer = "INVALID_CUSTOMER"
	ErrCodeInvalidInput    = "INVALID_INPUT"
)

// Generic codes
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeRequestTooLarge     = "REQUEST_TOO_LARGE"
	ErrCodeInternal            = "INTERNAL_ERROR"
	ErrCodeCompensationFailed  = "COMPENSATION_FAILED"
	ErrCodeUnavailable         = "SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// 404
	ErrCodeSaleNotFound:     http.StatusNotFound,
	ErrCodeSaleItemNotFound: http.StatusNotFound,
	ErrCodeVariantNotFound:  http.StatusNotFound,
	ErrCodeBatchNotFound:    http.StatusNotFound,
	ErrCodeNotFound:         http.StatusNotFound,

	// 422: the request is well formed but stock cannot satisfy it
	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,
	ErrCodeNoStockAvailable:  http.StatusUnprocessableEntity,
	ErrCodeInvalidState:      http.StatusUnprocessableEntity,

	// 400
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeInvalidQuantity: http.StatusBadRequest,
	ErrCodeInvalidPrice:    http.StatusBadRequest,
	ErrCodeInvalidVariant:  http.StatusBadRequest,
	ErrCodeInvalidCustomer: http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,

	// 409: retryable
	ErrCodeBatchQuantityConflict: http.StatusConflict,
	ErrCodeLockTimeout:           http.StatusConflict,
	ErrCodeConcurrencyConflict:   http.StatusConflict,
	ErrCodeSaleNotEmpty:          http.StatusConflict,

	ErrCodeRequestTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeCompensationFailed: http.StatusInternalServerError,
	ErrCodeUnavailable:        http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsRetryable reports whether a client may retry the same request unchanged
func IsRetryable(code string) bool {
	return GetHTTPStatus(code) == http.StatusConflict
}
