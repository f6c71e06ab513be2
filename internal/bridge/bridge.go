package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wagiedev/brainbridge/internal/config"
	"github.com/wagiedev/brainbridge/internal/dispatch"
	"github.com/wagiedev/brainbridge/internal/errors"
	"github.com/wagiedev/brainbridge/internal/message"
	"github.com/wagiedev/brainbridge/internal/metrics"
	"github.com/wagiedev/brainbridge/internal/protocol"
	"github.com/wagiedev/brainbridge/internal/shutdown"
	"github.com/wagiedev/brainbridge/internal/subprocess"
)

// closeWaitSlack is added to the grace window when Close waits for the exit.
const closeWaitSlack = 2 * time.Second

// Bridge hosts one backend and correlates its responses with callers.
type Bridge struct {
	log         *slog.Logger
	options     *config.Options
	transport   config.Transport
	controller  *protocol.Controller
	coordinator *shutdown.Coordinator
	dispatcher  dispatch.Dispatcher
	owned       *dispatch.Serial // created here when no dispatcher is injected

	exitMu   sync.Mutex
	lastExit error

	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// Compile-time verification that Bridge receives transport events.
var _ config.Handler = (*Bridge)(nil)

// New creates a bridge. No process is started until Start.
func New(options *config.Options) *Bridge {
	if options == nil {
		options = config.Default()
	}

	log := options.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	b := &Bridge{
		log:     log.With("component", "bridge"),
		options: options,
	}

	b.dispatcher = options.Dispatcher
	if b.dispatcher == nil {
		b.owned = dispatch.NewSerial()
		b.dispatcher = dispatch.Func(b.dispatchOwned)
	}

	b.transport = options.Transport
	if b.transport == nil {
		b.transport = subprocess.NewSupervisor(log, options)
	} else {
		b.log.Debug("Using injected custom transport")
	}

	b.coordinator = shutdown.New(log, b.transport, b.dispatcher, options.OnShutdown)

	b.controller = protocol.NewController(log, b.transport, protocol.Config{
		Dispatcher: b.dispatcher,
		Metrics:    metrics.OrNop(options.Metrics),
		Timeout:    options.RequestTimeout,
		RequestIDs: options.RequestIDs,
		OnShutdown: func(resp *message.Response) {
			var reason string
			if resp.Message != nil {
				reason = *resp.Message
			}

			b.coordinator.Remote(reason)
		},
	})

	return b
}

// Start launches the backend. It is a no-op while the backend is running.
//
// Returns BackendNotFoundError if no backend script exists, or
// BackendConnectionError if the process fails to start.
func (b *Bridge) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errors.ErrBridgeClosed
	}

	if err := b.transport.Start(ctx, b); err != nil {
		return fmt.Errorf("start backend: %w", err)
	}

	return nil
}

// dispatchOwned runs fn on the owned serial dispatcher, or on its own
// goroutine once Close has shut it, so no callback is dropped.
func (b *Bridge) dispatchOwned(fn func()) {
	if !b.owned.TryDispatch(fn) {
		go fn()
	}
}

// HandleLine implements config.Handler.
func (b *Bridge) HandleLine(line string) {
	b.controller.HandleLine(line)
}

// HandleExit implements config.Handler.
func (b *Bridge) HandleExit(err error) {
	b.exitMu.Lock()
	b.lastExit = err
	b.exitMu.Unlock()

	b.controller.HandleExit(err)
}

// LastExit returns the error the most recent backend exited with, nil for a
// requested stop or when no backend has exited.
func (b *Bridge) LastExit() error {
	b.exitMu.Lock()
	defer b.exitMu.Unlock()

	return b.lastExit
}

// IsRunning reports whether the backend is alive.
func (b *Bridge) IsRunning() bool {
	return b.transport.IsRunning()
}

// Pending returns the number of requests awaiting a response.
func (b *Bridge) Pending() int {
	return b.controller.Pending()
}

// ShutdownRequested is closed once the backend asks the host to terminate.
func (b *Bridge) ShutdownRequested() <-chan struct{} {
	return b.coordinator.Done()
}

// ShutdownReason returns the message sent with the backend's shutdown
// request, empty if it gave none.
func (b *Bridge) ShutdownReason() string {
	return b.coordinator.Reason()
}

// Query sends text and waits for the answer.
//
// A backend error response is returned as text with a nil error; the error is
// set only when no backend answer was received.
func (b *Bridge) Query(ctx context.Context, text string) (string, error) {
	return b.Send(ctx, message.KindQuery, map[string]any{"text": text})
}

// GetContext asks the backend for its current context.
func (b *Bridge) GetContext(ctx context.Context) (string, error) {
	return b.Send(ctx, message.KindGetContext, nil)
}

// Send issues a request of any kind and waits for the answer. The payload
// must map strings to strings.
func (b *Bridge) Send(ctx context.Context, kind message.Kind, payload map[string]any) (string, error) {
	if res, ok := b.unavailable(kind); ok {
		return res.Text, res.Err
	}

	res := b.controller.Request(ctx, kind, payload)

	return res.Text, res.Err
}

// QueryAsync sends text and calls cb with the answer on the dispatcher.
func (b *Bridge) QueryAsync(text string, cb func(string)) {
	b.SendAsync(message.KindQuery, map[string]any{"text": text}, cb)
}

// GetContextAsync asks for the context and calls cb with it on the dispatcher.
func (b *Bridge) GetContextAsync(cb func(string)) {
	b.SendAsync(message.KindGetContext, nil, cb)
}

// SendAsync issues a request of any kind and calls cb exactly once, on the
// dispatcher, with the resolution text.
func (b *Bridge) SendAsync(kind message.Kind, payload map[string]any, cb func(string)) {
	if cb == nil {
		cb = func(string) {}
	}

	if res, ok := b.unavailable(kind); ok {
		b.dispatcher.Dispatch(func() { cb(res.Text) })

		return
	}

	b.controller.Send(context.Background(), kind, payload, func(r protocol.Result) {
		cb(r.Text)
	})
}

// unavailable returns the fast-path result when no request can be written.
func (b *Bridge) unavailable(kind message.Kind) (protocol.Result, bool) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()

	var err error

	switch {
	case closed:
		err = errors.ErrBridgeClosed
	case !b.transport.IsRunning():
		err = errors.ErrBackendNotRunning
	default:
		return protocol.Result{}, false
	}

	text := protocol.NotRunningText
	if kind == message.KindGetContext {
		text = protocol.NoContextText
	}

	b.log.Debug("Backend unavailable, resolving immediately", "kind", kind, "error", err)

	return protocol.Result{Text: text, Status: message.StatusError, Err: err}, true
}

// Stop terminates the backend and waits for its exit to be handled. Pending
// requests resolve with "Error: backend exited". The bridge can be started
// again afterwards.
func (b *Bridge) Stop(ctx context.Context) error {
	return b.coordinator.Local(ctx)
}

// Close stops the backend and releases the bridge. A closed bridge cannot be
// restarted. Close is safe to call multiple times.
//
// Requests still pending resolve with "Error: backend exited". Their callbacks
// are queued before Close returns but may run after it; requests issued on a
// closed bridge still get their callback.
func (b *Bridge) Close() error {
	var closeErr error

	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()

		b.log.Info("Closing bridge")

		grace := b.options.GraceWindow
		if grace <= 0 {
			grace = config.DefaultGraceWindow
		}

		ctx, cancel := context.WithTimeout(context.Background(), grace+closeWaitSlack)
		defer cancel()

		closeErr = b.coordinator.Local(ctx)

		if b.owned != nil {
			b.owned.Close()
		}

		b.log.Info("Bridge closed")
	})

	return closeErr
}
