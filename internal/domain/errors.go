// Package domain defines core types, interfaces, and errors for the query administration service.
package domain

import "fmt"

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// AuthenticationRequiredError indicates the request carries no usable identity.
type AuthenticationRequiredError struct {
	Message string
}

func (e *AuthenticationRequiredError) Error() string { return e.Message }

// AccessDeniedError indicates a known identity lacks the permission or
// ownership required for the operation.
type AccessDeniedError struct {
	Message string
}

func (e *AccessDeniedError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// NoConnectionAvailableError indicates the caller has no active connection
// profile to run against.
type NoConnectionAvailableError struct {
	Message string
}

func (e *NoConnectionAvailableError) Error() string { return e.Message }

// ConnectionUnreachableError indicates client construction or the handshake
// with the engine failed. Callers may retry; the service does not.
type ConnectionUnreachableError struct {
	ConnectionID string
	Err          error
}

func (e *ConnectionUnreachableError) Error() string {
	return fmt.Sprintf("connection %s unreachable: %v", e.ConnectionID, e.Err)
}

func (e *ConnectionUnreachableError) Unwrap() error { return e.Err }

// EngineUnavailableError indicates a listing, log read, or termination call
// against the engine failed.
type EngineUnavailableError struct {
	Op  string
	Err error
}

func (e *EngineUnavailableError) Error() string {
	return fmt.Sprintf("engine unavailable (%s): %v", e.Op, e.Err)
}

func (e *EngineUnavailableError) Unwrap() error { return e.Err }

// QueryFailedError indicates the engine rejected or aborted a statement the
// caller submitted (syntax error, unknown table, limit exceeded).
type QueryFailedError struct {
	Code    int32
	Message string
}

func (e *QueryFailedError) Error() string {
	return fmt.Sprintf("query failed (code %d): %s", e.Code, e.Message)
}

// SessionOwnershipMismatchError indicates a session token belongs to a
// different user than the caller.
type SessionOwnershipMismatchError struct {
	SessionID string
}

func (e *SessionOwnershipMismatchError) Error() string {
	return fmt.Sprintf("session %s belongs to another user", e.SessionID)
}

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrAuthenticationRequired creates an AuthenticationRequiredError.
func ErrAuthenticationRequired() *AuthenticationRequiredError {
	return &AuthenticationRequiredError{Message: "authentication required"}
}

// ErrAccessDenied creates an AccessDeniedError with a formatted message.
func ErrAccessDenied(format string, args ...interface{}) *AccessDeniedError {
	return &AccessDeniedError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrNoConnectionAvailable creates a NoConnectionAvailableError.
func ErrNoConnectionAvailable(format string, args ...interface{}) *NoConnectionAvailableError {
	return &NoConnectionAvailableError{Message: fmt.Sprintf(format, args...)}
}

// ErrEngineUnavailable wraps an engine failure for the named operation.
func ErrEngineUnavailable(op string, err error) *EngineUnavailableError {
	return &EngineUnavailableError{Op: op, Err: err}
}
