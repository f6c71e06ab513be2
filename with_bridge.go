package brainbridge

import (
	"context"
	"fmt"
)

// WithBridge manages bridge lifecycle with automatic cleanup.
//
// This helper creates a bridge, starts it, executes the callback function,
// and ensures cleanup via Close() when done. If Close() fails, a warning is
// logged but does not override the callback's error.
//
// Example usage:
//
//	err := brainbridge.WithBridge(ctx, func(b brainbridge.Bridge) error {
//	    answer, err := b.Query(ctx, "2+2")
//	    if err != nil {
//	        return err
//	    }
//
//	    fmt.Println(answer)
//
//	    return nil
//	},
//	    brainbridge.WithLogger(log),
//	    brainbridge.WithDevDir("/src/python_brain"),
//	)
func WithBridge(ctx context.Context, fn func(Bridge) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	options := applyOptions(opts)

	log := options.Logger
	if log == nil {
		log = NopLogger()
	}

	b := New(opts...)

	defer func() {
		if closeErr := b.Close(); closeErr != nil {
			log.Warn("failed to close bridge", "error", closeErr)
		}
	}()

	if err := b.Start(ctx); err != nil {
		return fmt.Errorf("failed to start bridge: %w", err)
	}

	return fn(b)
}
