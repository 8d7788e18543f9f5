package core

import (
	"errors"
	"time"
)

// Error codes for domain errors.
const (
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeAccessDenied = "access_denied"
	ErrCodeValidation   = "validation_error"
	ErrCodeBadRequest   = "bad_request"
	ErrCodeRateLimited  = "rate_limited"
	ErrCodeInternal     = "internal_error"
	ErrCodeNotInRoom    = "not_in_room"
)

// ErrTypeRateLimitExceeded tags rate limit errors for clients that switch on type.
const ErrTypeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"

var (
	// ErrAuthentication is returned by Hub.Connect when the token cannot be verified.
	ErrAuthentication = errors.New("authentication failed")
	// ErrSessionExists is returned when a connection id is registered twice.
	ErrSessionExists = errors.New("session already registered")
	// ErrSessionNotFound is returned for operations on an unknown connection id.
	ErrSessionNotFound = errors.New("session not found")
)

// CoreError wraps a code and human-readable message.
// Rate limit errors additionally carry the limit and reset details.
type CoreError struct {
	Code    string
	Message string
	Type    string
	Limit   int
	ResetAt time.Time
	Wait    time.Duration
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
