package protocol

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/brainbridge/internal/dispatch"
	"github.com/wagiedev/brainbridge/internal/errors"
	"github.com/wagiedev/brainbridge/internal/message"
	"github.com/wagiedev/brainbridge/internal/metrics"
)

// Resolution texts for requests that never got a backend answer.
const (
	// NotRunningText resolves a query issued while no backend is running.
	NotRunningText = "Error: backend not running"

	// NoContextText resolves a context request issued while no backend is running.
	NoContextText = "None"

	// TimeoutText resolves a request whose deadline expired.
	TimeoutText = "Error: request timed out"

	// ExitedText resolves a request still pending when the backend exited.
	ExitedText = "Error: backend exited"
)

// Transport defines the minimal interface needed for protocol operations.
//
// This interface is satisfied by subprocess.Supervisor but allows for testing
// with mock transports.
type Transport interface {
	SendMessage(ctx context.Context, data []byte) error
}

// Result is what a request resolves with.
type Result struct {
	// Text is the response text, or an "Error: ..." text when Err is set.
	Text string

	// Status is the backend status, StatusError for local failures.
	Status message.Status

	// Err is set when the request failed without a backend answer.
	Err error
}

// Config configures a Controller.
type Config struct {
	// Dispatcher runs asynchronous callbacks. Defaults to dispatch.Inline.
	Dispatcher dispatch.Dispatcher

	// Metrics records activity. Defaults to metrics.Nop.
	Metrics metrics.Collector

	// Timeout is the per-request deadline. Zero disables deadlines.
	Timeout time.Duration

	// RequestIDs adds a ULID to every request.
	RequestIDs bool

	// OnShutdown receives shutdown responses. They never touch the queue.
	OnShutdown func(*message.Response)
}

// Controller writes requests and routes responses back to their callers.
type Controller struct {
	log       *slog.Logger
	transport Transport
	cfg       Config
	queue     Queue

	// sendMu makes enqueue and write one step, so queue order is write order.
	sendMu sync.Mutex
}

// NewController creates a new protocol controller.
func NewController(log *slog.Logger, transport Transport, cfg Config) *Controller {
	if cfg.Dispatcher == nil {
		cfg.Dispatcher = dispatch.Inline{}
	}

	cfg.Metrics = metrics.OrNop(cfg.Metrics)

	return &Controller{
		log:       log.With("component", "protocol"),
		transport: transport,
		cfg:       cfg,
	}
}

// Pending returns the number of requests awaiting a response.
func (c *Controller) Pending() int {
	return c.queue.Len()
}

// Send writes a request and arranges for cb to be called once, on the
// dispatcher, with its result.
func (c *Controller) Send(ctx context.Context, kind message.Kind, payload map[string]any, cb func(Result)) {
	c.submit(ctx, kind, payload, func(r Result) {
		if cb != nil {
			c.cfg.Dispatcher.Dispatch(func() { cb(r) })
		}
	})
}

// Request writes a request and blocks until it resolves or ctx is done.
// If ctx ends first the request stays queued so later responses still line up.
func (c *Controller) Request(ctx context.Context, kind message.Kind, payload map[string]any) Result {
	ch := make(chan Result, 1)

	c.submit(ctx, kind, payload, func(r Result) { ch <- r })

	select {
	case r := <-ch:
		return r
	case <-ctx.Done():
		return failure(kind, ctx.Err())
	}
}

func (c *Controller) submit(ctx context.Context, kind message.Kind, payload map[string]any, deliver func(Result)) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	var id string
	if c.cfg.RequestIDs {
		id = c.generateRequestID()
	}

	data, err := message.EncodeRaw(kind, id, payload)
	if err != nil {
		c.log.Error("Failed to encode request", "kind", kind, "error", err)
		deliver(failure(kind, err))

		return
	}

	e := &entry{
		id:      id,
		kind:    kind,
		started: time.Now(),
		deliver: deliver,
	}

	c.queue.push(e)

	if c.cfg.Timeout > 0 {
		c.queue.arm(e, c.cfg.Timeout, func() { c.expire(e) })
	}

	c.log.Debug("Sending request", "kind", kind, "request_id", id, "pending", c.queue.Len())

	if err := c.transport.SendMessage(ctx, data); err != nil {
		c.log.Error("Failed to send request", "kind", kind, "error", err)

		if c.queue.remove(e) {
			e.deliver(failure(kind, fmt.Errorf("send request: %w", err)))
		}

		c.cfg.Metrics.PendingRequests(c.queue.Len())

		return
	}

	c.cfg.Metrics.RequestSent(string(kind))
	c.cfg.Metrics.PendingRequests(c.queue.Len())
}

// HandleLine decodes one backend line and resolves the request it answers.
func (c *Controller) HandleLine(line string) {
	resp, err := message.Decode(line)
	if err != nil {
		c.log.Warn("Backend wrote an undecodable line", "error", err, "line", line)
		c.cfg.Metrics.DecodeFailure()
	}

	c.cfg.Metrics.ResponseReceived(string(resp.Status))

	if resp.IsShutdown() {
		c.log.Info("Backend requested shutdown")

		if c.cfg.OnShutdown != nil {
			c.cfg.OnShutdown(resp)
		}

		return
	}

	e, ok := c.queue.take(resp.ID)
	if !ok {
		c.log.Warn("Dropping backend response",
			"error", errors.ErrProtocolViolation,
			"status", resp.Status,
		)
		c.cfg.Metrics.ProtocolViolation()

		return
	}

	c.cfg.Metrics.PendingRequests(c.queue.Len())

	if e.expired {
		c.log.Debug("Discarding late response for expired request", "kind", e.kind, "request_id", e.id)

		return
	}

	if resp.IsError() {
		c.log.Debug("Backend answered with an error", "kind", e.kind, "request_id", e.id, "message", resp.Text())
	}

	c.cfg.Metrics.RequestCompleted(string(e.kind), time.Since(e.started))

	e.deliver(Result{Text: resp.Text(), Status: resp.Status})
}

// HandleExit resolves every pending request with ExitedText and drops any
// tombstones. cause is the exit error, nil for a requested stop.
func (c *Controller) HandleExit(cause error) {
	live := c.queue.drain()
	c.cfg.Metrics.PendingRequests(0)

	if len(live) == 0 {
		return
	}

	c.log.Info("Failing requests pending at backend exit", "count", len(live))

	err := errors.ErrBackendExited
	if cause != nil {
		err = fmt.Errorf("%w: %w", errors.ErrBackendExited, cause)
	}

	for _, e := range live {
		e.deliver(Result{Text: ExitedText, Status: message.StatusError, Err: err})
	}
}

func (c *Controller) expire(e *entry) {
	if !c.queue.expire(e) {
		return
	}

	c.log.Warn("Request timed out", "kind", e.kind, "request_id", e.id, "timeout", c.cfg.Timeout)
	c.cfg.Metrics.RequestTimedOut(string(e.kind))
	c.cfg.Metrics.PendingRequests(c.queue.Len())

	e.deliver(Result{
		Text:   TimeoutText,
		Status: message.StatusError,
		Err:    fmt.Errorf("%w after %s", errors.ErrRequestTimeout, c.cfg.Timeout),
	})
}

// generateRequestID creates a unique request ID using ULID.
func (c *Controller) generateRequestID() string {
	return ulid.Make().String()
}

// failure builds the result for a request that failed locally. A backend that
// stopped between the caller's check and the write gets the same sentinel
// texts as one that was never running.
func failure(kind message.Kind, err error) Result {
	if stderrors.Is(err, errors.ErrBackendNotRunning) {
		text := NotRunningText
		if kind == message.KindGetContext {
			text = NoContextText
		}

		return Result{Text: text, Status: message.StatusError, Err: err}
	}

	return Result{Text: "Error: " + err.Error(), Status: message.StatusError, Err: err}
}
