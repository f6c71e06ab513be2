package subprocess

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/brainbridge/internal/backend"
	"github.com/wagiedev/brainbridge/internal/config"
	"github.com/wagiedev/brainbridge/internal/errors"
	"github.com/wagiedev/brainbridge/internal/framing"
	"github.com/wagiedev/brainbridge/internal/message"
	"github.com/wagiedev/brainbridge/internal/metrics"
)

// Supervisor implements config.Transport by running the backend as a child
// process.
type Supervisor struct {
	log      *slog.Logger
	options  *config.Options
	resolver backend.Resolver
	metrics  metrics.Collector

	// signal delivers the graceful termination signal. Replaced in tests.
	signal func(*os.Process, os.Signal) error

	mu   sync.Mutex
	run  *run // active child, nil when none
	last *run // most recently started child, for Wait
}

// Compile-time verification that Supervisor implements the Transport interface.
var _ config.Transport = (*Supervisor)(nil)

// run is one started child and everything that belongs to it.
type run struct {
	log   *slog.Logger
	cmd   *exec.Cmd
	stdin io.WriteCloser
	tap   *tap
	done  chan struct{}

	// Guarded by Supervisor.mu.
	stopping bool
	grace    *time.Timer

	writeMu     sync.Mutex // Serializes stdin writes
	stdinClosed bool       // Guarded by writeMu
}

// NewSupervisor creates a supervisor for the backend described by options.
// Resolution is deferred to Start and repeated on every start.
func NewSupervisor(log *slog.Logger, options *config.Options) *Supervisor {
	return &Supervisor{
		log:      log.With("component", "supervisor"),
		options:  options,
		resolver: backend.NewResolver(options),
		metrics:  metrics.OrNop(options.Metrics),
		signal: func(p *os.Process, sig os.Signal) error {
			return p.Signal(sig)
		},
	}
}

// Start spawns the backend and begins delivering its output to handler.
//
// Start is a no-op while a child is running. Returns BackendNotFoundError if
// no candidate script exists, or BackendConnectionError if the process or
// its pipes cannot be created. No child is retained on failure.
//
// The child is not bound to ctx: it lives until Stop or until it exits.
func (s *Supervisor) Start(ctx context.Context, handler config.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run != nil {
		s.log.Debug("Backend already running", "pid", s.run.cmd.Process.Pid)

		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	candidate, err := s.resolver.Resolve()
	if err != nil {
		s.log.Error("Failed to resolve backend", "error", err)

		return fmt.Errorf("resolve backend: %w", err)
	}

	loc := candidate.Location
	args := backend.BuildArgs(loc)

	//nolint:gosec // G204: the interpreter path comes from configuration
	cmd := exec.Command(loc.Interpreter, args...)
	cmd.Env = backend.BuildEnvironment(loc, s.options)
	cmd.Dir = s.options.Cwd

	s.log.Info("Starting backend",
		"candidate", candidate.Name,
		"interpreter", loc.Interpreter,
		"args", args,
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		s.log.Error("Failed to create stdin pipe", "error", err)

		return &errors.BackendConnectionError{Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		s.log.Error("Failed to create stdout pipe", "error", err)

		return &errors.BackendConnectionError{Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		s.log.Error("Failed to create stderr pipe", "error", err)

		return &errors.BackendConnectionError{Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		s.log.Error("Failed to start backend process", "error", err)

		return &errors.BackendConnectionError{Err: fmt.Errorf("start process: %w", err)}
	}

	r := &run{
		log:   s.log.With("pid", cmd.Process.Pid),
		cmd:   cmd,
		stdin: stdin,
		tap:   newTap(s.log, s.options.Stderr),
		done:  make(chan struct{}),
	}

	s.run = r
	s.last = r
	s.metrics.ProcessStarted()

	s.log.Info("Backend started", "pid", cmd.Process.Pid)

	go s.observe(r, stdout, stderr, handler)

	return nil
}

// observe drains both output streams, reaps the child, clears the running
// state and reports the exit. It runs once per child.
func (s *Supervisor) observe(r *run, stdout, stderr io.Reader, handler config.Handler) {
	var g errgroup.Group

	g.Go(func() error {
		return s.readStdout(r, stdout, handler)
	})

	g.Go(func() error {
		return r.tap.drain(stderr)
	})

	if err := g.Wait(); err != nil {
		r.log.Debug("Output reader stopped", "error", err)
	}

	waitErr := r.cmd.Wait()

	s.mu.Lock()

	if s.run == r {
		s.run = nil
	}

	stopping := r.stopping

	if r.grace != nil {
		r.grace.Stop()
	}

	s.mu.Unlock()

	r.closeStdin()

	if stopping {
		r.log.Info("Backend stopped")
		s.metrics.ProcessExit(metrics.ExitRequested)
		handler.HandleExit(nil)
	} else {
		exitCode := 0
		if exitErr, ok := stderrors.AsType[*exec.ExitError](waitErr); ok {
			exitCode = exitErr.ExitCode()
		}

		perr := &errors.ProcessError{
			ExitCode: exitCode,
			Stderr:   r.tap.Tail(),
			Err:      waitErr,
		}

		r.log.Error("Backend exited unexpectedly", "exit_code", exitCode, "stderr", perr.Stderr)
		s.metrics.ProcessExit(metrics.ExitCrashed)
		handler.HandleExit(perr)
	}

	close(r.done)
}

func (s *Supervisor) readStdout(r *run, stdout io.Reader, handler config.Handler) error {
	framer := framing.New(s.options.MaxLineSize, framing.WithOverflowLine(message.OverflowLine))
	buf := make([]byte, readChunkSize)

	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			if _, ferr := framer.Write(buf[:n]); ferr != nil {
				r.log.Warn("Discarded oversized stdout line", "error", ferr)
			}

			for line := range framer.Lines() {
				handler.HandleLine(line)
			}
		}

		if err != nil {
			if pending := framer.Buffered(); pending > 0 {
				r.log.Debug("Discarding unterminated stdout data", "bytes", pending)
			}

			if stderrors.Is(err, io.EOF) || stderrors.Is(err, os.ErrClosed) {
				return nil
			}

			return fmt.Errorf("read stdout: %w", err)
		}
	}
}

// SendMessage writes one message to the backend's stdin.
//
// A newline is appended if data lacks one. The write is bounded by ctx and by
// the configured write timeout; when either expires mid-write, stdin is closed
// to unblock it and later calls return ErrStdinClosed.
func (s *Supervisor) SendMessage(ctx context.Context, data []byte) error {
	s.mu.Lock()
	r := s.run
	stopping := r != nil && r.stopping
	s.mu.Unlock()

	if r == nil || stopping {
		return errors.ErrBackendNotRunning
	}

	if s.options.WriteTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, s.options.WriteTimeout)
		defer cancel()
	}

	return r.send(ctx, data)
}

func (r *run) send(ctx context.Context, data []byte) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if r.stdin == nil {
		return errors.ErrBackendNotRunning
	}

	if r.stdinClosed {
		return errors.ErrStdinClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Copy rather than append so a caller's spare capacity is never written.
	if len(data) == 0 || data[len(data)-1] != '\n' {
		newData := make([]byte, len(data)+1)
		copy(newData, data)
		newData[len(data)] = '\n'
		data = newData
	}

	done := make(chan error, 1)

	go func() {
		_, err := r.stdin.Write(data)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			r.log.Error("Failed to write to backend stdin", "error", err)

			return fmt.Errorf("write to stdin: %w", err)
		}

		return nil

	case <-ctx.Done():
		r.log.Warn("Write to backend stdin did not complete, closing stdin", "error", ctx.Err())

		_ = r.stdin.Close()
		r.stdinClosed = true

		select {
		case <-done:
		case <-time.After(1 * time.Second):
			r.log.Warn("Write goroutine did not exit after stdin close, potential leak")
		}

		return ctx.Err()
	}
}

func (r *run) closeStdin() {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if r.stdin != nil && !r.stdinClosed {
		_ = r.stdin.Close()
		r.stdinClosed = true
	}
}

// IsRunning reports whether a child is alive and not yet reaped.
func (s *Supervisor) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.run != nil
}

// PID returns the running child's process id, or 0.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.run == nil {
		return 0
	}

	return s.run.cmd.Process.Pid
}

// Stop sends the graceful termination signal and kills the child if it is
// still alive after the grace window. Later calls for the same child are
// no-ops. Where the graceful signal is unsupported the child is killed at once.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.run
	if r == nil || r.stopping {
		return nil
	}

	r.stopping = true
	proc := r.cmd.Process

	r.log.Info("Stopping backend")

	if err := s.signal(proc, syscall.SIGTERM); err != nil {
		r.log.Debug("Graceful termination unavailable, killing", "error", err)

		if kerr := proc.Kill(); kerr != nil && !stderrors.Is(kerr, os.ErrProcessDone) {
			return fmt.Errorf("kill backend (pid %d): %w", proc.Pid, kerr)
		}

		return nil
	}

	grace := s.options.GraceWindow
	if grace <= 0 {
		grace = config.DefaultGraceWindow
	}

	r.grace = time.AfterFunc(grace, func() {
		select {
		case <-r.done:
			return
		default:
		}

		r.log.Warn("Backend still running after grace window, killing", "grace_window", grace)

		if err := proc.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
			r.log.Error("Failed to kill backend", "error", err)
		}
	})

	return nil
}

// Wait blocks until the most recently started child has exited and its exit
// has been reported, or ctx is done.
func (s *Supervisor) Wait(ctx context.Context) error {
	s.mu.Lock()
	r := s.last
	s.mu.Unlock()

	if r == nil {
		return nil
	}

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
