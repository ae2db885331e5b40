// Package errors provides centralized error definitions and error
// handling utilities for the sidecar codebase. It defines
// domain-specific errors, semantic error types, constructors with
// context wrapping, and classification helpers.
//
// # Error Types
//
// Domain-specific errors represent errors from specific subsystems:
//   - ProtocolError: errors decoding or encoding wire envelopes
//   - TransportError: errors on the backend connection
//   - ApprovalError: errors resolving approval gates
//   - SessionError: errors in the reconciliation session
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - ValidationError: invalid input or state
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewProtocolError("decode envelope", baseErr)
//	err := errors.NewValidationError("attachment", "path must not be empty")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrNotConnected) { ... }
//
//	var protoErr *errors.ProtocolError
//	if errors.As(err, &protoErr) { ... }
//
//	if errors.IsRetryable(err) { ... }
//	if errors.IsUserFacing(err) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Transport-related sentinel errors
var (
	// ErrNotConnected indicates that no backend connection is established.
	ErrNotConnected = New("not connected to backend")
	// ErrConnectionClosed indicates that the backend closed the connection.
	ErrConnectionClosed = New("connection closed")
)

// Session-related sentinel errors
var (
	// ErrNoPendingApproval indicates that there is no approval gate to resolve.
	ErrNoPendingApproval = New("no approval pending")
	// ErrEmptyMessage indicates that an outbound chat turn had no content.
	ErrEmptyMessage = New("empty chat message")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// SidecarError is the base interface for all sidecar errors.
// It extends the standard error interface with methods for error
// handling and classification.
type SidecarError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the
	// operation may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to
	// display to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// ProtocolError represents an error decoding or encoding a wire
// envelope. Protocol errors are never retryable: the same envelope
// will fail the same way.
type ProtocolError struct {
	baseError
	Tag string // Wire tag, when one could be parsed
}

// NewProtocolError creates a ProtocolError wrapping a cause.
func NewProtocolError(message string, cause error) *ProtocolError {
	return &ProtocolError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityWarning,
		},
	}
}

// WithTag adds the wire tag the error concerns.
func (e *ProtocolError) WithTag(tag string) *ProtocolError {
	e.Tag = tag
	return e
}

// TransportError represents a failure on the backend connection.
// Transport errors are retryable by default; the link may come back.
type TransportError struct {
	baseError
	URL string // Backend endpoint, if known
}

// NewTransportError creates a TransportError wrapping a cause.
func NewTransportError(message string, cause error) *TransportError {
	return &TransportError{
		baseError: baseError{
			message:   message,
			cause:     cause,
			severity:  SeverityError,
			retryable: true,
		},
	}
}

// WithURL adds the endpoint the error concerns.
func (e *TransportError) WithURL(url string) *TransportError {
	e.URL = url
	return e
}

// ApprovalError represents a failure resolving an approval gate. These
// are always user-facing: the panel must tell the user why their
// decision was refused.
type ApprovalError struct {
	baseError
}

// NewApprovalError creates an ApprovalError wrapping a cause.
func NewApprovalError(message string, cause error) *ApprovalError {
	return &ApprovalError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
	}
}

// SessionError represents an error in the reconciliation session.
type SessionError struct {
	baseError
	SessionID string
}

// NewSessionError creates a SessionError wrapping a cause.
func NewSessionError(message string, cause error) *SessionError {
	return &SessionError{
		baseError: baseError{
			message:  message,
			cause:    cause,
			severity: SeverityError,
		},
	}
}

// WithSessionID adds a session ID to the error context.
func (e *SessionError) WithSessionID(id string) *SessionError {
	e.SessionID = id
	return e
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError indicates that a resource could not be found.
type NotFoundError struct {
	baseError
	Resource string
	ID       string
}

// NewNotFoundError creates a NotFoundError for the given resource and id.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:  fmt.Sprintf("%s not found: %s", resource, id),
			severity: SeverityWarning,
		},
		Resource: resource,
		ID:       id,
	}
}

// ValidationError indicates invalid input or state.
type ValidationError struct {
	baseError
	Field string
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    fmt.Sprintf("%s: %s", field, message),
			cause:      ErrInvalidInput,
			severity:   SeverityWarning,
			userFacing: true,
		},
		Field: field,
	}
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable reports whether err (or anything it wraps) is a
// transient error worth retrying.
func IsRetryable(err error) bool {
	var se SidecarError
	if errors.As(err, &se) {
		return se.IsRetryable()
	}
	return false
}

// IsUserFacing reports whether err carries a message safe to display
// to end users.
func IsUserFacing(err error) bool {
	var se SidecarError
	if errors.As(err, &se) {
		return se.IsUserFacing()
	}
	return false
}

// SeverityOf returns the severity of err, defaulting to SeverityError
// for errors outside this package's taxonomy.
func SeverityOf(err error) Severity {
	var se SidecarError
	if errors.As(err, &se) {
		return se.Severity()
	}
	return SeverityError
}
