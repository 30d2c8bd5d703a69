package shared

import "errors"

// Error codes shared by every bounded context. The HTTP layer maps these to
// status codes; clients receive them verbatim.
const (
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInvalidArgument     = "INVALID_ARGUMENT"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeAlreadyClaimedToday = "ALREADY_CLAIMED_TODAY"
	CodeBlockedAccount      = "BLOCKED_ACCOUNT"
	CodeNotFound            = "NOT_FOUND"
	CodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeAlreadyExists       = "ALREADY_EXISTS"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so that errors.Is works
// against the sentinels below even when the message was customised.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
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
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "not authorized")
	ErrInvalidArgument     = NewDomainError(CodeInvalidArgument, "Invalid argument")
	ErrInsufficientBalance = NewDomainError(CodeInsufficientBalance, "Insufficient balance")
	ErrAlreadyClaimedToday = NewDomainError(CodeAlreadyClaimedToday, "Daily reward already claimed today")
	ErrBlockedAccount      = NewDomainError(CodeBlockedAccount, "Account is blocked")
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrServiceUnavailable  = NewDomainError(CodeServiceUnavailable, "Service temporarily unavailable, please retry")
	ErrInvalidCredentials  = NewDomainError(CodeInvalidCredentials, "Invalid username or password")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
)

// InvalidArgument builds an INVALID_ARGUMENT error with a specific message.
func InvalidArgument(message string) *DomainError {
	return NewDomainError(CodeInvalidArgument, message)
}

// CodeOf extracts the domain error code from err, or "" if err is not a DomainError.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
