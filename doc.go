// Package brainbridge hosts a persistent backend process and exchanges
// line-delimited JSON requests and responses with it.
//
// The backend (by default ~/.localhost/venv/bin/python running
// ~/.localhost/python_brain/main.py) is spawned once and kept alive. Each
// request is written as one JSON object per line on its stdin; each line on
// its stdout is one response. Responses carry no correlation key, so they are
// matched to callers in the order the requests were sent.
//
// # Basic Usage
//
//	b := brainbridge.New(
//	    brainbridge.WithLogger(slog.Default()),
//	    brainbridge.WithFallback(brainbridge.DevLocation("/src/python_brain")),
//	)
//	defer b.Close()
//
//	if err := b.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	answer, err := b.Query(ctx, "2+2")
//
// # Lifecycle Helper
//
// WithBridge creates, starts and closes a bridge around a callback:
//
//	err := brainbridge.WithBridge(ctx, func(b brainbridge.Bridge) error {
//	    text, err := b.GetContext(ctx)
//	    if err != nil {
//	        return err
//	    }
//
//	    fmt.Println(text)
//
//	    return nil
//	})
//
// # Callbacks
//
// QueryAsync and GetContextAsync resolve through a Dispatcher. By default a
// bridge owns a serial dispatcher, so callbacks run one at a time and in
// response order. Hosts with their own event loop supply one with
// WithDispatcher.
//
// # Shutdown
//
// A response with status "shutdown" asks the host to exit. The first such
// response closes the channel returned by ShutdownRequested and runs the
// WithOnShutdown hook on the dispatcher. The host then calls Stop or Close.
//
// # Error Handling
//
// Every call resolves exactly once. When the backend is not running a query
// resolves to "Error: backend not running" and a context request to "None".
// Typed errors can be inspected with errors.AsType:
//
//	if pe, ok := errors.AsType[*brainbridge.ProcessError](err); ok {
//	    fmt.Println(pe.ExitCode, pe.Stderr)
//	}
package brainbridge
