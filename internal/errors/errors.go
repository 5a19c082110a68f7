// Package errors provides structured error types for gcloud-logs.
//
// This package follows Go best practices for error handling:
// - Sentinel errors for type checking with errors.Is()
// - Error wrapping with context using fmt.Errorf("%w", err)
// - Structured error types for detailed information
// - Error codes for machine-readable categorization
//
// Error code ranges:
// - 1xxx: Configuration and usage errors
// - 2xxx: Authentication errors
// - 3xxx: Query/filter errors
// - 4xxx: Fetch/API errors
// - 5xxx: Output and replay errors
// - 9xxx: General errors
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error identifier.
type ErrorCode string

// Configuration and usage error codes (1xxx)
const (
	ErrCodeConfigInvalid    ErrorCode = "GCLOGS_1001"
	ErrCodeConfigValidation ErrorCode = "GCLOGS_1002"
	ErrCodeTimeParse        ErrorCode = "GCLOGS_1003"
)

// Authentication error codes (2xxx)
const (
	ErrCodeAuthFailed       ErrorCode = "GCLOGS_2001"
	ErrCodePermissionDenied ErrorCode = "GCLOGS_2002"
	ErrCodeProjectUnknown   ErrorCode = "GCLOGS_2003"
)

// Query/filter error codes (3xxx)
const (
	ErrCodeInvalidInstanceName ErrorCode = "GCLOGS_3001"
	ErrCodeInvalidWindow       ErrorCode = "GCLOGS_3002"
	ErrCodeNoEntries           ErrorCode = "GCLOGS_3003"
)

// Fetch/API error codes (4xxx)
const (
	ErrCodeAPIUnavailable ErrorCode = "GCLOGS_4001"
	ErrCodeFetchTimeout   ErrorCode = "GCLOGS_4002"
	ErrCodeFetchFailed    ErrorCode = "GCLOGS_4003"
)

// Output and replay error codes (5xxx)
const (
	ErrCodeOutputWrite  ErrorCode = "GCLOGS_5001"
	ErrCodeReplayOpen   ErrorCode = "GCLOGS_5002"
	ErrCodeReplayDecode ErrorCode = "GCLOGS_5003"
)

// General error codes (9xxx)
const (
	ErrCodeUnknown ErrorCode = "GCLOGS_9999"
)

// Sentinel errors for type checking with errors.Is()
var (
	// Configuration and usage errors
	ErrConfigInvalid    = errors.New("invalid configuration")
	ErrConfigValidation = errors.New("configuration validation failed")
	ErrTimeParse        = errors.New("unparseable time value")

	// Authentication errors
	ErrAuthFailed       = errors.New("authentication failed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrProjectUnknown   = errors.New("project could not be determined")

	// Query errors
	ErrInvalidInstanceName = errors.New("invalid instance name")
	ErrInvalidWindow       = errors.New("invalid time window")
	ErrNoEntries           = errors.New("no log entries matched")

	// Fetch errors
	ErrAPIUnavailable = errors.New("logging API unavailable")
	ErrFetchTimeout   = errors.New("fetch timed out")
	ErrFetchFailed    = errors.New("fetch failed")

	// Output and replay errors
	ErrOutputWrite  = errors.New("output write failed")
	ErrReplayOpen   = errors.New("capture file open failed")
	ErrReplayDecode = errors.New("capture line decode failed")
)

// CLIError is the base error type with structured information.
type CLIError struct {
	Code        ErrorCode
	Message     string
	Context     map[string]interface{}
	IsRetryable bool
	Cause       error
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error's cause.
func (e *CLIError) Is(target error) bool {
	if e.Cause != nil {
		return errors.Is(e.Cause, target)
	}
	return false
}

// WithContext adds context information to the error.
func (e *CLIError) WithContext(key string, value interface{}) *CLIError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ToMap converts the error to a map for structured logging.
func (e *CLIError) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"error_code":   string(e.Code),
		"message":      e.Message,
		"is_retryable": e.IsRetryable,
	}
	if e.Context != nil {
		m["context"] = e.Context
	}
	if e.Cause != nil {
		m["cause"] = e.Cause.Error()
	}
	return m
}

// New creates a new CLIError.
func New(code ErrorCode, message string, cause error) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Configuration error constructors

// NewConfigInvalidError creates a configuration invalid error.
func NewConfigInvalidError(message string, cause error) *CLIError {
	return &CLIError{
		Code:        ErrCodeConfigInvalid,
		Message:     message,
		Cause:       ErrConfigInvalid,
		IsRetryable: false,
		Context: map[string]interface{}{
			"detail": fmt.Sprintf("%v", cause),
		},
	}
}

// NewConfigValidationError creates a configuration validation error.
func NewConfigValidationError(field string, value interface{}, reason string) *CLIError {
	return &CLIError{
		Code:        ErrCodeConfigValidation,
		Message:     fmt.Sprintf("validation failed for '%s': %s", field, reason),
		Cause:       ErrConfigValidation,
		IsRetryable: false,
		Context: map[string]interface{}{
			"field":  field,
			"value":  fmt.Sprintf("%v", value),
			"reason": reason,
		},
	}
}

// NewTimeParseError creates an error for an unparseable --from/--to value.
func NewTimeParseError(flag string, value string) *CLIError {
	return &CLIError{
		Code:        ErrCodeTimeParse,
		Message:     fmt.Sprintf("cannot parse %s value %q as a date/time", flag, value),
		Cause:       ErrTimeParse,
		IsRetryable: false,
		Context: map[string]interface{}{
			"flag":  flag,
			"value": value,
		},
	}
}

// Authentication error constructors

// NewAuthFailedError creates an authentication error. Seen when the ambient
// gcloud credentials are missing or expired.
func NewAuthFailedError(reason string) *CLIError {
	return &CLIError{
		Code:        ErrCodeAuthFailed,
		Message:     fmt.Sprintf("authentication failed: %s (run 'gcloud auth application-default login')", reason),
		Cause:       ErrAuthFailed,
		IsRetryable: false,
		Context: map[string]interface{}{
			"reason": reason,
		},
	}
}

// NewPermissionDeniedError creates a permission error for a project.
func NewPermissionDeniedError(project string, reason string) *CLIError {
	return &CLIError{
		Code:        ErrCodePermissionDenied,
		Message:     fmt.Sprintf("permission denied reading logs in project %q: %s", project, reason),
		Cause:       ErrPermissionDenied,
		IsRetryable: false,
		Context: map[string]interface{}{
			"project": project,
			"reason":  reason,
		},
	}
}

// NewProjectUnknownError is returned when no project ID could be resolved.
func NewProjectUnknownError() *CLIError {
	return &CLIError{
		Code:        ErrCodeProjectUnknown,
		Message:     "no project ID: use --project, set GOOGLE_CLOUD_PROJECT, or configure gcloud default credentials",
		Cause:       ErrProjectUnknown,
		IsRetryable: false,
		Context:     make(map[string]interface{}),
	}
}

// Query error constructors

// NewInvalidInstanceNameError is returned for names that cannot be GCE instances.
func NewInvalidInstanceNameError(name string) *CLIError {
	return &CLIError{
		Code:        ErrCodeInvalidInstanceName,
		Message:     fmt.Sprintf("%q is not a valid GCE instance name", name),
		Cause:       ErrInvalidInstanceName,
		IsRetryable: false,
		Context: map[string]interface{}{
			"name": name,
		},
	}
}

// NewInvalidWindowError is returned when --to precedes --from.
func NewInvalidWindowError(from, to string) *CLIError {
	return &CLIError{
		Code:        ErrCodeInvalidWindow,
		Message:     fmt.Sprintf("--to (%s) precedes --from (%s)", to, from),
		Cause:       ErrInvalidWindow,
		IsRetryable: false,
		Context: map[string]interface{}{
			"from": from,
			"to":   to,
		},
	}
}

// NewNoEntriesError is returned in one-shot mode when named instances matched
// nothing, so the user gets a diagnostic instead of silent empty output.
func NewNoEntriesError(instances []string) *CLIError {
	return &CLIError{
		Code:        ErrCodeNoEntries,
		Message:     fmt.Sprintf("no log entries matched instances %v in the requested window; check the names and time range", instances),
		Cause:       ErrNoEntries,
		IsRetryable: false,
		Context: map[string]interface{}{
			"instances": instances,
		},
	}
}

// Fetch error constructors

// NewAPIUnavailableError creates a transient API error.
func NewAPIUnavailableError(reason string) *CLIError {
	return &CLIError{
		Code:        ErrCodeAPIUnavailable,
		Message:     fmt.Sprintf("logging API unavailable: %s", reason),
		Cause:       ErrAPIUnavailable,
		IsRetryable: true,
		Context: map[string]interface{}{
			"reason": reason,
		},
	}
}

// NewFetchTimeoutError creates a fetch timeout error.
func NewFetchTimeoutError(operation string, timeoutSeconds float64) *CLIError {
	return &CLIError{
		Code:        ErrCodeFetchTimeout,
		Message:     fmt.Sprintf("operation '%s' timed out after %.1fs", operation, timeoutSeconds),
		Cause:       ErrFetchTimeout,
		IsRetryable: true,
		Context: map[string]interface{}{
			"operation":       operation,
			"timeout_seconds": timeoutSeconds,
		},
	}
}

// NewFetchFailedError creates a non-transient fetch error.
func NewFetchFailedError(reason string, cause error) *CLIError {
	return &CLIError{
		Code:        ErrCodeFetchFailed,
		Message:     fmt.Sprintf("fetch failed: %s", reason),
		Cause:       cause,
		IsRetryable: false,
		Context: map[string]interface{}{
			"reason": reason,
		},
	}
}

// Output and replay error constructors

// NewOutputWriteError creates an output write error.
func NewOutputWriteError(path string, cause error) *CLIError {
	return &CLIError{
		Code:        ErrCodeOutputWrite,
		Message:     fmt.Sprintf("failed to write output to %s", path),
		Cause:       cause,
		IsRetryable: false,
		Context: map[string]interface{}{
			"path": path,
		},
	}
}

// NewReplayOpenError creates a capture open error.
func NewReplayOpenError(path string, cause error) *CLIError {
	return &CLIError{
		Code:        ErrCodeReplayOpen,
		Message:     fmt.Sprintf("cannot open capture file %s", path),
		Cause:       cause,
		IsRetryable: false,
		Context: map[string]interface{}{
			"path": path,
		},
	}
}

// NewReplayDecodeError creates a capture decode error for one line.
func NewReplayDecodeError(lineNumber int, reason string) *CLIError {
	return &CLIError{
		Code:        ErrCodeReplayDecode,
		Message:     fmt.Sprintf("failed to decode capture line %d: %s", lineNumber, reason),
		Cause:       ErrReplayDecode,
		IsRetryable: false,
		Context: map[string]interface{}{
			"line_number": lineNumber,
			"reason":      reason,
		},
	}
}

// IsRetryableError checks if an error is retryable.
func IsRetryableError(err error) bool {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.IsRetryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	return ErrCodeUnknown
}
