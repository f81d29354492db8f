package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation = "ERR_VALIDATION"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Lifecycle error codes
const (
	// ErrCodeInvalidStateTransition is used when an action is not allowed from
	// the entity's current state, including the loser of an approval race
	ErrCodeInvalidStateTransition = "ERR_INVALID_STATE_TRANSITION"
	// ErrCodeInvalidPlanReference is used when a plan ID does not resolve
	ErrCodeInvalidPlanReference = "ERR_INVALID_PLAN_REFERENCE"
)

// Input error codes
const (
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeTooLarge     = "ERR_REQUEST_TOO_LARGE"
)

// Rate limiting error codes
const (
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidStateTransition: http.StatusConflict,
	ErrCodeInvalidPlanReference:   http.StatusUnprocessableEntity,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeTooLarge:     http.StatusRequestEntityTooLarge,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unmapped ERR_INVALID_* codes are client errors, unmapped *_NOT_FOUND codes
// are 404 and anything else is 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case strings.HasPrefix(code, "ERR_INVALID_"):
		return http.StatusBadRequest
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":                ErrCodeNotFound,
	"ALREADY_EXISTS":           ErrCodeAlreadyExists,
	"INVALID_INPUT":            ErrCodeInvalidInput,
	"UNAUTHORIZED":             ErrCodeUnauthorized,
	"FORBIDDEN":                ErrCodeForbidden,
	"CONCURRENCY_CONFLICT":     ErrCodeConcurrencyConflict,
	"INVALID_STATE_TRANSITION": ErrCodeInvalidStateTransition,
	"INVALID_PLAN_REFERENCE":   ErrCodeInvalidPlanReference,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Unmapped domain codes keep their name behind the ERR_ prefix.
func NormalizeErrorCode(code string) string {
	if mapped, ok := DomainErrorCodeMapping[code]; ok {
		return mapped
	}
	if code == "" {
		return ErrCodeUnknown
	}
	if strings.HasPrefix(code, "ERR_") {
		return code
	}
	return "ERR_" + code
}
