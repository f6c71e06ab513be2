package errors

import (
	"errors"
	"fmt"
)

// BridgeError is the base interface for all bridge errors.
type BridgeError interface {
	error
	IsBridgeError() bool
}

// Compile-time verification that all error types implement BridgeError.
var (
	_ BridgeError = (*BackendNotFoundError)(nil)
	_ BridgeError = (*BackendConnectionError)(nil)
	_ BridgeError = (*ProcessError)(nil)
	_ BridgeError = (*EncodeError)(nil)
	_ BridgeError = (*ResponseDecodeError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrBackendNotRunning indicates no backend process is currently running.
	ErrBackendNotRunning = errors.New("backend not running")

	// ErrBridgeClosed indicates the bridge has been closed and cannot be reused.
	ErrBridgeClosed = errors.New("bridge closed: bridges are single-use, create a new one with New()")

	// ErrRequestTimeout indicates a request did not receive a response in time.
	ErrRequestTimeout = errors.New("request timeout")

	// ErrBackendExited indicates the backend exited while a request was pending.
	ErrBackendExited = errors.New("backend exited")

	// ErrStdinClosed indicates stdin was closed after a write could not complete.
	ErrStdinClosed = errors.New("stdin closed")

	// ErrProtocolViolation indicates a response arrived with no pending request.
	ErrProtocolViolation = errors.New("protocol violation: response with no pending request")

	// ErrLineTooLong indicates the backend wrote a line larger than the framing limit.
	ErrLineTooLong = errors.New("line exceeds maximum size")
)

// BackendNotFoundError indicates neither the primary nor the fallback backend
// location contains the backend script.
type BackendNotFoundError struct {
	SearchedPaths []string
}

func (e *BackendNotFoundError) Error() string {
	return fmt.Sprintf("backend not found in: %v", e.SearchedPaths)
}

// IsBridgeError implements BridgeError.
func (e *BackendNotFoundError) IsBridgeError() bool { return true }

// BackendConnectionError indicates the backend process could not be spawned
// or its pipes could not be attached.
type BackendConnectionError struct {
	Err error
}

func (e *BackendConnectionError) Error() string {
	return fmt.Sprintf("failed to start backend: %v", e.Err)
}

func (e *BackendConnectionError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *BackendConnectionError) IsBridgeError() bool { return true }

// ProcessError indicates the backend process exited unexpectedly.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend process failed (exit %d): %v", e.ExitCode, e.Err)
	}

	return fmt.Sprintf("backend process failed (exit %d): %s", e.ExitCode, e.Stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *ProcessError) IsBridgeError() bool { return true }

// EncodeError indicates an outgoing request could not be serialized.
type EncodeError struct {
	Kind string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to encode %s request: %v", e.Kind, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *EncodeError) IsBridgeError() bool { return true }

// ResponseDecodeError indicates a line from the backend was not a valid response.
// This error preserves the original raw line that failed to parse.
type ResponseDecodeError struct {
	RawData string
	Err     error
}

func (e *ResponseDecodeError) Error() string {
	return fmt.Sprintf("failed to decode response from backend: %v", e.Err)
}

func (e *ResponseDecodeError) Unwrap() error {
	return e.Err
}

// IsBridgeError implements BridgeError.
func (e *ResponseDecodeError) IsBridgeError() bool { return true }
