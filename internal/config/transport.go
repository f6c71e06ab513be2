// Package config provides configuration types for the brain bridge.
package config

import "context"

// Handler receives what a Transport reads from the backend.
//
// HandleLine is called once per complete stdout line, in order, from a
// single goroutine. HandleExit is called exactly once per started backend,
// after the last HandleLine, with nil for a requested stop or the exit error
// for an unexpected one.
type Handler interface {
	HandleLine(line string)
	HandleExit(err error)
}

// Transport defines the interface for backend communication.
// Implement this to provide custom transports for testing or alternative
// hosting of the backend.
//
// The default implementation is subprocess.Supervisor, which spawns the
// backend as a child process. Custom transports can be injected via
// Options.Transport.
type Transport interface {
	// Start launches the backend and begins delivering lines to handler.
	// Calling Start while the backend is running is a no-op.
	Start(ctx context.Context, handler Handler) error

	// SendMessage writes one newline-terminated message to the backend.
	// It must be safe for concurrent use and must not block past ctx.
	SendMessage(ctx context.Context, data []byte) error

	// IsRunning reports whether a backend is currently alive.
	IsRunning() bool

	// Stop asks the backend to terminate, escalating to a forced kill after
	// the grace window. It is safe to call Stop multiple times.
	Stop() error

	// Wait blocks until the running backend has exited or ctx is done.
	// It returns immediately when no backend is running.
	Wait(ctx context.Context) error
}
