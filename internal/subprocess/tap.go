package subprocess

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"
)

const (
	// maxStderrTailSize caps the stderr kept for ProcessError. Forwarding to
	// the sink continues after the cap; only the most recent bytes are kept.
	maxStderrTailSize = 64 * 1024

	readChunkSize = 32 * 1024
)

// tap forwards backend stderr chunk by chunk and remembers the tail.
type tap struct {
	log  *slog.Logger
	sink func(string)

	mu    sync.Mutex
	tail  []byte
	carry []byte
}

func newTap(log *slog.Logger, sink func(string)) *tap {
	t := &tap{log: log.With("component", "backend_stderr"), sink: sink}
	if t.sink == nil {
		t.sink = t.logChunk
	}

	return t
}

func (t *tap) logChunk(chunk string) {
	t.log.Info("Backend stderr", "output", strings.TrimRight(chunk, "\r\n"))
}

// drain reads r until EOF or error, forwarding each chunk.
func (t *tap) drain(r io.Reader) error {
	buf := make([]byte, readChunkSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			_, _ = t.Write(buf[:n])
		}

		if err != nil {
			t.flush()

			if !errors.Is(err, io.EOF) {
				t.log.Debug("Stderr read stopped", "error", err)
			}

			return nil
		}
	}
}

// Write forwards the complete UTF-8 prefix of carry+p and keeps an incomplete
// trailing sequence for the next call.
func (t *tap) Write(p []byte) (int, error) {
	t.mu.Lock()

	t.tail = append(t.tail, p...)
	if over := len(t.tail) - maxStderrTailSize; over > 0 {
		t.tail = append(t.tail[:0], t.tail[over:]...)
	}

	data := append(t.carry, p...)
	complete, rest := splitIncomplete(data)
	t.carry = append([]byte(nil), rest...)

	t.mu.Unlock()

	if len(complete) > 0 {
		t.sink(strings.ToValidUTF8(string(complete), "\uFFFD"))
	}

	return len(p), nil
}

// flush forwards whatever is left in the carry.
func (t *tap) flush() {
	t.mu.Lock()
	rest := t.carry
	t.carry = nil
	t.mu.Unlock()

	if len(rest) > 0 {
		t.sink(strings.ToValidUTF8(string(rest), "\uFFFD"))
	}
}

// Tail returns the most recent stderr output, trimmed.
func (t *tap) Tail() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return strings.TrimSpace(strings.ToValidUTF8(string(t.tail), "\uFFFD"))
}

// splitIncomplete separates a trailing partial UTF-8 sequence from b.
func splitIncomplete(b []byte) (complete, rest []byte) {
	for i := len(b) - 1; i >= 0 && i > len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}

		if !utf8.FullRune(b[i:]) {
			return b[:i], b[i:]
		}

		break
	}

	return b, nil
}
