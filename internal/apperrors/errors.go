package apperrors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Validation
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidMove     ErrorCode = "INVALID_MOVE"
	ErrCodeAlreadyAnswered ErrorCode = "ALREADY_ANSWERED"

	// State
	ErrCodeNotYourTurn      ErrorCode = "NOT_YOUR_TURN"
	ErrCodeNotParticipant   ErrorCode = "NOT_PARTICIPANT"
	ErrCodeSessionExpired   ErrorCode = "SESSION_EXPIRED"
	ErrCodeSessionCompleted ErrorCode = "SESSION_COMPLETED"
	ErrCodeSessionCap       ErrorCode = "SESSION_CAP_REACHED"

	// Resource
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrCodeConflict      ErrorCode = "CONFLICT"

	// Internal
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeCache    ErrorCode = "CACHE_ERROR"
	ErrCodeExternal ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// AppError is a structured error that can be returned to clients
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause to the error
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// AsAppError extracts an AppError from an error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code
func IsCode(err error, code ErrorCode) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// Common error constructors

func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func NotYourTurn(participant string) *AppError {
	return New(ErrCodeNotYourTurn, fmt.Sprintf("it is not %s's turn", participant))
}

func NotParticipant(id string) *AppError {
	return New(ErrCodeNotParticipant, fmt.Sprintf("%s is not a participant of this session", id))
}

func SessionExpired(id string) *AppError {
	return New(ErrCodeSessionExpired, fmt.Sprintf("session %s has expired", id))
}

func SessionCompleted(id string) *AppError {
	return New(ErrCodeSessionCompleted, fmt.Sprintf("session %s is already completed", id))
}

func InvalidMove(reason string) *AppError {
	return New(ErrCodeInvalidMove, "move rejected").WithDetails(map[string]string{"reason": reason})
}

func AlreadyAnswered(participant string) *AppError {
	return New(ErrCodeAlreadyAnswered, fmt.Sprintf("%s has already answered this quiz", participant))
}

func InvalidInput(message string) *AppError {
	return New(ErrCodeInvalidInput, message)
}

func Conflict(message string) *AppError {
	return New(ErrCodeConflict, message)
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func CacheError(operation string, cause error) *AppError {
	return Wrap(ErrCodeCache, fmt.Sprintf("cache operation failed: %s", operation), cause)
}

func External(service string, cause error) *AppError {
	return Wrap(ErrCodeExternal, fmt.Sprintf("%s request failed", service), cause)
}
