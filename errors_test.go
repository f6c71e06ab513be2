package brainbridge

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestBackendNotFoundError_Creation tests BackendNotFoundError formatting.
func TestBackendNotFoundError_Creation(t *testing.T) {
	err := &BackendNotFoundError{
		SearchedPaths: []string{
			"/home/u/.localhost/python_brain/main.py",
			"/src/brain/main.py",
		},
	}

	require.Contains(t, err.Error(), "backend not found")
	require.Contains(t, err.Error(), "/src/brain/main.py")
	require.True(t, err.IsBridgeError())
}

// TestBackendConnectionError_Unwrap tests that the spawn failure is preserved.
func TestBackendConnectionError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("permission denied")
	err := &BackendConnectionError{Err: inner}

	require.Contains(t, err.Error(), "failed to start backend")
	require.ErrorIs(t, err, inner)
}

// TestProcessError_WithExitCodeAndStderr tests ProcessError with exit code and stderr.
func TestProcessError_WithExitCodeAndStderr(t *testing.T) {
	err := &ProcessError{
		ExitCode: 1,
		Stderr:   "ModuleNotFoundError: No module named 'brain'",
	}

	require.Contains(t, err.Error(), "backend process failed")
	require.Contains(t, err.Error(), "exit 1")
	require.Contains(t, err.Error(), "No module named")
}

// TestResponseDecodeError_PreservesRawData tests that the raw line is preserved.
func TestResponseDecodeError_PreservesRawData(t *testing.T) {
	inner := fmt.Errorf("invalid character")
	err := &ResponseDecodeError{RawData: `{"status": ok}`, Err: inner}

	require.Equal(t, `{"status": ok}`, err.RawData)
	require.Contains(t, err.Error(), "failed to decode response")
	require.ErrorIs(t, err, inner)
}

// TestBridgeError_AsType tests that wrapped errors are found through the marker interface.
func TestBridgeError_AsType(t *testing.T) {
	wrapped := fmt.Errorf("start backend: %w", &EncodeError{Kind: "query", Err: errors.New("bad payload")})

	bridgeErr, ok := errors.AsType[BridgeError](wrapped)
	require.True(t, ok)
	require.True(t, bridgeErr.IsBridgeError())

	encodeErr, ok := errors.AsType[*EncodeError](wrapped)
	require.True(t, ok)
	require.Equal(t, "query", encodeErr.Kind)
}
