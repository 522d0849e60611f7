package dto

import "net/http"

// API error codes, ERR_<CATEGORY>_<DESCRIPTION>. Domain errors carry the
// short form ("INSUFFICIENT_STOCK"); NormalizeErrorCode translates at the
// boundary so handlers never emit both spellings.
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation = "ERR_VALIDATION"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"

	// Business rule violations: a rejected state transition, an allocation
	// that cannot be covered, a pick past the ordered quantity.
	ErrCodeInvalidState      = "ERR_INVALID_STATE"
	ErrCodeBusinessRule      = "ERR_BUSINESS_RULE"
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	ErrCodeOverFulfillment   = "ERR_OVER_FULFILLMENT"

	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
)

// errorCodeHTTPStatus decides the response status per code. Business rule
// violations are 422: the request was well formed, the pipeline refused it.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState:      http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:      http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,
	ErrCodeOverFulfillment:   http.StatusUnprocessableEntity,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
}

// GetHTTPStatus returns the status for a code, 500 for codes not mapped.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainErrorCodes maps the short codes raised by the domain layer onto the
// API codes above.
var domainErrorCodes = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"INSUFFICIENT_STOCK":   ErrCodeInsufficientStock,
	"OVER_FULFILLMENT":     ErrCodeOverFulfillment,
	"VALIDATION_FAILED":    ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format, or unmapped, pass through unchanged.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainErrorCodes[code]; ok {
		return apiCode
	}
	return code
}
