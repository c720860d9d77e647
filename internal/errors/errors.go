// Package errors provides centralized error definitions and error handling
// utilities for the Foreman codebase. It defines domain-specific errors,
// sentinel errors, error constructors with context wrapping, and
// classification helpers that map onto the failure categories the
// orchestrator distinguishes:
//
//   - Configuration errors: a manifest that cannot be loaded or validated, or
//     a ticket working directory that does not exist. These abort a run.
//   - I/O errors: a state file, log file, or artifact directory that cannot
//     be written. These abort a run.
//   - Spawn errors: the external session executable cannot be launched at
//     all. These abort a run and are distinct from a session that launches
//     and exits non-zero, which is a recorded ticket failure, not an error.
//
// Usage:
//
//	err := errors.NewManifestError("failed to parse manifest", cause).WithPath(path)
//	if errors.IsConfigError(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
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

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Manifest-related sentinel errors
var (
	// ErrEmptyManifest indicates that a manifest declares no tickets.
	ErrEmptyManifest = New("workflow manifest must contain at least one ticket")
	// ErrDuplicateTicketID indicates that two tickets share the same id.
	ErrDuplicateTicketID = New("duplicate ticket id")
	// ErrUnparseableManifest indicates that a manifest matched no supported format.
	ErrUnparseableManifest = New("manifest is not valid YAML or TOML")
)

// State-related sentinel errors
var (
	// ErrNoStateFile indicates that no persisted workflow state exists yet.
	ErrNoStateFile = New("workflow state file not found")
	// ErrStateCorrupted indicates that persisted state could not be decoded.
	ErrStateCorrupted = New("workflow state corrupted")
	// ErrTicketNotFound indicates that a ticket has no run state entry.
	ErrTicketNotFound = New("ticket not found in workflow state")
)

// Session-related sentinel errors
var (
	// ErrSpawnFailed indicates that the session executable could not be launched.
	ErrSpawnFailed = New("session executable failed to start")
	// ErrWorkingDirMissing indicates that a ticket's working directory does not exist.
	ErrWorkingDirMissing = New("working directory does not exist")
)

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message string
	cause   error
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

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// ManifestError represents errors loading or validating a workflow manifest.
// Manifest errors are configuration faults and abort the run.
//
// Example:
//
//	err := errors.NewManifestError("failed to parse manifest", cause).WithPath("wf.yaml")
//	fmt.Println(err) // "manifest error [path=wf.yaml]: failed to parse manifest: ..."
type ManifestError struct {
	baseError
	Path string
}

// NewManifestError creates a new ManifestError.
func NewManifestError(message string, cause error) *ManifestError {
	return &ManifestError{baseError: baseError{message: message, cause: cause}}
}

// WithPath adds the manifest path to the error context.
func (e *ManifestError) WithPath(path string) *ManifestError {
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *ManifestError) Error() string {
	return formatDomainError("manifest error", contextParts("path", e.Path), &e.baseError)
}

// StateError represents errors reading or persisting workflow run state.
// State errors are I/O faults and abort the run.
type StateError struct {
	baseError
	Path string
}

// NewStateError creates a new StateError.
func NewStateError(message string, cause error) *StateError {
	return &StateError{baseError: baseError{message: message, cause: cause}}
}

// WithPath adds the state file path to the error context.
func (e *StateError) WithPath(path string) *StateError {
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *StateError) Error() string {
	return formatDomainError("state error", contextParts("path", e.Path), &e.baseError)
}

// SessionError represents errors launching a session or writing its log.
// A non-zero session exit code is not a SessionError; only a failure to
// spawn the process or persist its log qualifies.
type SessionError struct {
	baseError
	TicketID string
	LogPath  string
}

// NewSessionError creates a new SessionError.
func NewSessionError(message string, cause error) *SessionError {
	return &SessionError{baseError: baseError{message: message, cause: cause}}
}

// WithTicketID adds the ticket id to the error context.
func (e *SessionError) WithTicketID(id string) *SessionError {
	e.TicketID = id
	return e
}

// WithLogPath adds the session log path to the error context.
func (e *SessionError) WithLogPath(path string) *SessionError {
	e.LogPath = path
	return e
}

// Error returns the formatted error message.
func (e *SessionError) Error() string {
	parts := contextParts("ticket", e.TicketID)
	parts = append(parts, contextParts("log", e.LogPath)...)
	return formatDomainError("session error", parts, &e.baseError)
}

// ValidationError represents invalid input or configuration, such as a
// ticket working directory that does not exist.
type ValidationError struct {
	baseError
	Field string
	Value string
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string, cause error) *ValidationError {
	return &ValidationError{baseError: baseError{message: message, cause: cause}}
}

// WithField adds the offending field and value to the error context.
func (e *ValidationError) WithField(field, value string) *ValidationError {
	e.Field = field
	e.Value = value
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("%s=%s", e.Field, e.Value))
	}
	return formatDomainError("validation error", parts, &e.baseError)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsConfigError reports whether err is a configuration fault: an unloadable
// or invalid manifest, or a missing working directory. Configuration faults
// abort the whole run before or between tickets.
func IsConfigError(err error) bool {
	var manifestErr *ManifestError
	var validationErr *ValidationError
	return errors.As(err, &manifestErr) ||
		errors.As(err, &validationErr) ||
		errors.Is(err, ErrWorkingDirMissing)
}

// IsSpawnError reports whether err means the session executable could not
// be launched at all, as opposed to launching and exiting non-zero.
func IsSpawnError(err error) bool {
	var sessionErr *SessionError
	return errors.As(err, &sessionErr) || errors.Is(err, ErrSpawnFailed)
}

// IsIOError reports whether err is a filesystem fault recorded while
// persisting state or artifacts.
func IsIOError(err error) bool {
	var stateErr *StateError
	return errors.As(err, &stateErr)
}

// -----------------------------------------------------------------------------
// Formatting Helpers
// -----------------------------------------------------------------------------

func contextParts(key, value string) []string {
	if value == "" {
		return nil
	}
	return []string{fmt.Sprintf("%s=%s", key, value)}
}

func formatDomainError(prefix string, parts []string, base *baseError) string {
	if len(parts) > 0 {
		prefix = fmt.Sprintf("%s [%s]", prefix, strings.Join(parts, ", "))
	}
	if base.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, base.message, base.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, base.message)
}
