package brainbridge

import (
	"context"

	"github.com/wagiedev/brainbridge/internal/bridge"
)

// Bridge hosts one backend process and correlates its responses with callers.
//
// Lifecycle: a bridge can be started and stopped repeatedly. After Close it
// cannot be reused.
//
// Example usage:
//
//	b := brainbridge.New(brainbridge.WithLogger(slog.Default()))
//	defer b.Close()
//
//	if err := b.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	b.GetContextAsync(func(text string) {
//	    fmt.Println("context:", text)
//	})
type Bridge interface {
	// Start launches the backend. It is a no-op while the backend is running.
	// Returns BackendNotFoundError if no script exists, BackendConnectionError
	// if the process cannot be spawned, ErrBridgeClosed after Close.
	Start(ctx context.Context) error

	// Query sends a text query and blocks until it resolves. The returned text
	// is always usable; err reports local failures such as a missing backend.
	Query(ctx context.Context, text string) (string, error)

	// GetContext requests the backend's context string. It resolves to "None"
	// when the backend is not running.
	GetContext(ctx context.Context) (string, error)

	// Send issues a request of any kind. Payload values must be strings.
	Send(ctx context.Context, kind Kind, payload map[string]any) (string, error)

	// QueryAsync sends a query and delivers the result on the dispatcher.
	QueryAsync(text string, cb func(string))

	// GetContextAsync requests the context and delivers it on the dispatcher.
	GetContextAsync(cb func(string))

	// IsRunning reports whether the backend process is running.
	IsRunning() bool

	// Pending returns the number of requests awaiting a response.
	Pending() int

	// LastExit returns the cause of the most recent unexpected exit, if any.
	LastExit() error

	// ShutdownRequested is closed when the backend asks the host to exit.
	ShutdownRequested() <-chan struct{}

	// ShutdownReason returns the message sent with the shutdown request.
	ShutdownReason() string

	// Stop terminates the backend and waits for its exit. Safe to call when
	// nothing is running.
	Stop(ctx context.Context) error

	// Close stops the backend and releases the bridge. Safe to call multiple times.
	Close() error
}

// Compile-time verification that the internal bridge satisfies Bridge.
var _ Bridge = (*bridge.Bridge)(nil)

// New creates a bridge. No process is started until Start.
func New(opts ...Option) Bridge {
	return bridge.New(applyOptions(opts))
}
