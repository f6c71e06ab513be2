package brainbridge

import "github.com/wagiedev/brainbridge/internal/errors"

// Re-export error types from internal package

// BackendNotFoundError indicates no backend script was found.
type BackendNotFoundError = errors.BackendNotFoundError

// BackendConnectionError indicates the backend process could not be spawned.
type BackendConnectionError = errors.BackendConnectionError

// ProcessError indicates the backend process exited unexpectedly.
type ProcessError = errors.ProcessError

// EncodeError indicates a request could not be serialized.
type EncodeError = errors.EncodeError

// ResponseDecodeError indicates a backend line was not a valid response.
type ResponseDecodeError = errors.ResponseDecodeError

// BridgeError is the base interface for all bridge errors.
type BridgeError = errors.BridgeError

// Re-export sentinel errors from internal package.
var (
	// ErrBackendNotRunning indicates no backend process is running.
	ErrBackendNotRunning = errors.ErrBackendNotRunning

	// ErrBridgeClosed indicates the bridge has been closed and cannot be reused.
	ErrBridgeClosed = errors.ErrBridgeClosed

	// ErrRequestTimeout indicates a request received no response in time.
	ErrRequestTimeout = errors.ErrRequestTimeout

	// ErrBackendExited indicates the backend exited while a request was pending.
	ErrBackendExited = errors.ErrBackendExited
)
