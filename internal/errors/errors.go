package apperrors

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorStore    = 2   // Indicates a backing store was unavailable.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
//
// Returns:
//   - string: The error message string.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
// It allows for the creation of configuration-specific errors with dynamic
// content.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// ValidationError represents an input validation failure, such as a request
// for a negative or out-of-range Fibonacci index. It identifies which field
// failed validation and provides a human-readable explanation.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message explains the validation failure.
	Message string
}

// Error returns a formatted message describing the validation failure.
//
// Returns:
//   - string: The error message string.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError for the given field.
//
// Parameters:
//   - field: The name of the field that failed validation.
//   - format: A format string for the explanation message.
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ValidationError instance.
func NewValidationError(field, format string, a ...any) error {
	return ValidationError{Field: field, Message: fmt.Sprintf(format, a...)}
}

// IsValidation reports whether the error chain contains a ValidationError.
//
// Parameters:
//   - err: The error to check.
//
// Returns:
//   - bool: true if the error is a validation failure.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// StoreError represents a transient failure of a backing store (the history
// store or the result cache). It preserves the store name and the underlying
// cause so callers can surface a service-unavailable condition without losing
// diagnostic detail. The gateway never retries these internally; retrying the
// whole request is the caller's responsibility.
type StoreError struct {
	// Store names the backing store that failed ("history" or "cache").
	Store string
	// Cause is the underlying transport or driver error.
	Cause error
}

// Error returns a formatted message naming the failed store.
//
// Returns:
//   - string: The error message string.
func (e StoreError) Error() string {
	return fmt.Sprintf("store %q unavailable: %v", e.Store, e.Cause)
}

// Unwrap returns the underlying cause, allowing for error chain inspection
// (e.g., using errors.Is or errors.As).
//
// Returns:
//   - error: The underlying cause of the StoreError.
func (e StoreError) Unwrap() error { return e.Cause }

// NewStoreError wraps an underlying error as a StoreError for the named store.
// A nil cause yields a nil error.
//
// Parameters:
//   - store: The name of the backing store ("history" or "cache").
//   - cause: The underlying error.
//
// Returns:
//   - error: A new StoreError, or nil if cause is nil.
func NewStoreError(store string, cause error) error {
	if cause == nil {
		return nil
	}
	return StoreError{Store: store, Cause: cause}
}

// IsStore reports whether the error chain contains a StoreError.
//
// Parameters:
//   - err: The error to check.
//
// Returns:
//   - bool: true if the error is a store failure.
func IsStore(err error) bool {
	var se StoreError
	return errors.As(err, &se)
}

// ComputeError encapsulates a worker-side computation error while preserving
// the original cause and the index being processed. Compute errors are
// isolated per notification: they are logged by the worker and never escape
// its loop, leaving the cache entry pending.
type ComputeError struct {
	// Index is the Fibonacci index whose computation failed.
	Index uint64
	// Cause is the underlying error that triggered this compute error.
	Cause error
}

// Error returns the error message including the failed index.
//
// Returns:
//   - string: The error message string.
func (e ComputeError) Error() string {
	return fmt.Sprintf("computing fib(%d): %v", e.Index, e.Cause)
}

// Unwrap returns the original wrapped error, allowing for error chain
// inspection (e.g., using errors.Is or errors.As).
//
// Returns:
//   - error: The underlying cause of the ComputeError.
func (e ComputeError) Unwrap() error { return e.Cause }

// TimeoutError represents an operation timeout. It captures the operation
// name and the duration limit that was exceeded.
type TimeoutError struct {
	// Operation is the name of the operation that timed out.
	Operation string
	// Limit is the duration after which the operation was considered timed out.
	Limit time.Duration
}

// Error returns a formatted message describing the timeout.
//
// Returns:
//   - string: The error message string.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Limit)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
//
// Parameters:
//   - err: The error to check.
//
// Returns:
//   - bool: true if the error is a context error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
