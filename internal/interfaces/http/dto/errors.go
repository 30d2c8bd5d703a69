package dto

import (
	"net/http"

	"github.com/memberhub/backend/internal/domain/shared"
)

// Transport-level error codes. Domain codes from shared are passed through
// unchanged.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeAuthRequired    = "AUTHENTICATION_REQUIRED"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid    = "INVALID_TOKEN"
	ErrCodeTokenRevoked    = "TOKEN_REVOKED"
	ErrCodeRateLimited     = "RATE_LIMIT_EXCEEDED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// Domain taxonomy
	shared.CodeInvalidArgument:     http.StatusBadRequest,
	shared.CodeUnauthorized:        http.StatusForbidden,
	shared.CodeBlockedAccount:      http.StatusForbidden,
	shared.CodeNotFound:            http.StatusNotFound,
	shared.CodeAlreadyClaimedToday: http.StatusConflict,
	shared.CodeAlreadyExists:       http.StatusConflict,
	shared.CodeInsufficientBalance: http.StatusUnprocessableEntity,
	shared.CodeInvalidCredentials:  http.StatusUnauthorized,
	shared.CodeServiceUnavailable:  http.StatusServiceUnavailable,

	// Transport
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeAuthRequired:    http.StatusUnauthorized,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeTokenInvalid:    http.StatusUnauthorized,
	ErrCodeTokenRevoked:    http.StatusUnauthorized,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
