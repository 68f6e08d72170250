package dto

import "net/http"

// General error codes used by handlers directly
const (
	ErrCodeInternal   = "INTERNAL"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeNotFound   = "NOT_FOUND"
)

// statusByCode maps domain error codes to HTTP status codes. Codes missing
// from the map are treated as internal errors.
var statusByCode = map[string]int{
	"NOT_FOUND":                http.StatusNotFound,
	"PRODUCT_NOT_FOUND":        http.StatusNotFound,
	"ALREADY_EXISTS":           http.StatusConflict,
	"CONCURRENCY_CONFLICT":     http.StatusConflict,
	"INVALID_STATE":            http.StatusConflict,
	"INVALID_INPUT":            http.StatusBadRequest,
	"INVALID_QUANTITY":         http.StatusBadRequest,
	"INVALID_SKU":              http.StatusBadRequest,
	"INVALID_NAME":             http.StatusBadRequest,
	"INVALID_CODE":             http.StatusBadRequest,
	"INVALID_PRODUCT":          http.StatusBadRequest,
	"INVALID_WAREHOUSE":        http.StatusBadRequest,
	"INVALID_TRANSFER":         http.StatusBadRequest,
	"INVALID_PRICE":            http.StatusBadRequest,
	"INVALID_SETTINGS":         http.StatusBadRequest,
	"INVALID_MOVEMENT_TYPE":    http.StatusBadRequest,
	"INVALID_PLATFORM":         http.StatusBadRequest,
	"INSUFFICIENT_STOCK":       http.StatusUnprocessableEntity,
	"BUNDLE_TOO_DEEP":          http.StatusUnprocessableEntity,
	"MULTI_WAREHOUSE_DISABLED": http.StatusUnprocessableEntity,
	"SETTINGS_UNAVAILABLE":     http.StatusServiceUnavailable,
	"SYNC_NOT_RUNNING":         http.StatusServiceUnavailable,
	ErrCodeBadRequest:          http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for a domain error code
func GetHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
