package dispatch

import "sync"

// Dispatcher runs functions on a caller-chosen execution context.
// Dispatch must not block on the execution of fn.
type Dispatcher interface {
	Dispatch(fn func())
}

// Func adapts a plain function to the Dispatcher interface.
type Func func(fn func())

// Dispatch calls f(fn).
func (f Func) Dispatch(fn func()) { f(fn) }

// Inline runs every function on a new goroutine. It keeps callbacks off the
// reader but gives no ordering guarantee between them.
type Inline struct{}

// Dispatch runs fn on its own goroutine.
func (Inline) Dispatch(fn func()) { go fn() }

// Serial runs submitted functions one at a time, in submission order, on a
// single goroutine. The backlog is unbounded so Dispatch never blocks.
type Serial struct {
	mu      sync.Mutex
	backlog []func()
	closed  bool
	notify  chan struct{}
	done    chan struct{}
}

var (
	_ Dispatcher = (*Serial)(nil)
	_ Dispatcher = Inline{}
	_ Dispatcher = Func(nil)
)

// NewSerial starts a serial dispatcher.
func NewSerial() *Serial {
	s := &Serial{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	go s.loop()

	return s
}

// Dispatch queues fn. After Close, fn is dropped.
func (s *Serial) Dispatch(fn func()) {
	s.TryDispatch(fn)
}

// TryDispatch queues fn and reports whether it was accepted. It returns false
// once the dispatcher is closed.
func (s *Serial) TryDispatch(fn func()) bool {
	if fn == nil {
		return true
	}

	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return false
	}

	s.backlog = append(s.backlog, fn)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}

	return true
}

// Close stops accepting work and returns immediately. Functions queued before
// the call still run; use Wait or Done to block until they have.
func (s *Serial) Close() {
	s.mu.Lock()

	if !s.closed {
		s.closed = true

		select {
		case s.notify <- struct{}{}:
		default:
		}
	}

	s.mu.Unlock()
}

// Done is closed when the dispatcher goroutine has exited.
func (s *Serial) Done() <-chan struct{} {
	return s.done
}

// Wait closes the dispatcher and blocks until it drains.
func (s *Serial) Wait() {
	s.Close()
	<-s.done
}

func (s *Serial) loop() {
	defer close(s.done)

	for {
		s.mu.Lock()
		batch := s.backlog
		s.backlog = nil
		closed := s.closed
		s.mu.Unlock()

		for _, fn := range batch {
			fn()
		}

		if len(batch) > 0 {
			continue
		}

		if closed {
			return
		}

		<-s.notify
	}
}
