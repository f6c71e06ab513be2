// Package shutdown coordinates the two ways a bridge ends: the backend asking
// the host to terminate, and the host stopping the backend itself.
package shutdown

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wagiedev/brainbridge/internal/dispatch"
)

// Stopper is the part of the transport the coordinator drives.
type Stopper interface {
	Stop() error
	Wait(ctx context.Context) error
}

// Coordinator turns shutdown requests into exactly one termination.
type Coordinator struct {
	log        *slog.Logger
	stopper    Stopper
	dispatcher dispatch.Dispatcher
	onShutdown func()

	once   sync.Once
	done   chan struct{}
	mu     sync.Mutex
	reason string
}

// New creates a coordinator. onShutdown may be nil; it runs on dispatcher.
func New(log *slog.Logger, stopper Stopper, dispatcher dispatch.Dispatcher, onShutdown func()) *Coordinator {
	if dispatcher == nil {
		dispatcher = dispatch.Inline{}
	}

	return &Coordinator{
		log:        log.With("component", "shutdown"),
		stopper:    stopper,
		dispatcher: dispatcher,
		onShutdown: onShutdown,
		done:       make(chan struct{}),
	}
}

// Remote records a backend-initiated shutdown. The first call closes Done and
// schedules the host's shutdown hook; later calls only log. It reports
// whether this call was the first.
func (c *Coordinator) Remote(reason string) bool {
	first := false

	c.once.Do(func() {
		first = true

		c.mu.Lock()
		c.reason = reason
		c.mu.Unlock()

		c.log.Info("Backend requested application shutdown", "reason", reason)
		close(c.done)

		if c.onShutdown != nil {
			c.dispatcher.Dispatch(c.onShutdown)
		}
	})

	if !first {
		c.log.Debug("Ignoring repeated shutdown request", "reason", reason)
	}

	return first
}

// Done is closed once the backend has requested shutdown.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Reason returns the message given with the first shutdown request, empty
// when the backend gave none or has not asked.
func (c *Coordinator) Reason() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.reason
}

// Local stops the backend and waits until its exit has been handled.
func (c *Coordinator) Local(ctx context.Context) error {
	c.log.Debug("Stopping backend on host request")

	if err := c.stopper.Stop(); err != nil {
		return fmt.Errorf("stop backend: %w", err)
	}

	if err := c.stopper.Wait(ctx); err != nil {
		return fmt.Errorf("wait for backend exit: %w", err)
	}

	return nil
}
