package framing

import (
	"bytes"
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/wagiedev/brainbridge/internal/errors"
)

// DefaultMaxLineSize bounds the partial line a Framer will buffer.
const DefaultMaxLineSize = 10 * 1024 * 1024 // 10MB

// Framer buffers raw bytes and yields complete lines.
//
// A Framer is not safe for concurrent use. It is meant to be owned by the
// single goroutine reading the stream it frames.
type Framer struct {
	buf        []byte
	maxLine    int
	overflow   string
	discarding bool
}

// Option configures a Framer.
type Option func(*Framer)

// WithOverflowLine sets the line yielded in place of each oversized line.
// Without it an oversized line yields nothing.
func WithOverflowLine(line string) Option {
	return func(f *Framer) {
		f.overflow = line
	}
}

// New creates a Framer that rejects partial lines larger than maxLine bytes.
// A non-positive maxLine selects DefaultMaxLineSize.
func New(maxLine int, opts ...Option) *Framer {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineSize
	}

	f := &Framer{maxLine: maxLine}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Write appends a chunk to the buffer. It implements io.Writer.
//
// If the data following the last newline grows beyond the size limit the
// partial line is discarded and ErrLineTooLong is returned. The rest of that
// line is swallowed up to its newline, where the overflow line, if any, takes
// its place. Complete lines already buffered are kept.
func (f *Framer) Write(p []byte) (int, error) {
	n := len(p)

	if f.discarding {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			return n, nil
		}

		f.discarding = false
		p = p[i+1:]

		if f.overflow != "" {
			f.buf = append(f.buf, f.overflow...)
			f.buf = append(f.buf, '\n')
		}
	}

	f.buf = append(f.buf, p...)

	tail := len(f.buf)
	if i := bytes.LastIndexByte(f.buf, '\n'); i >= 0 {
		tail = len(f.buf) - i - 1
	}

	if tail > f.maxLine {
		f.buf = f.buf[:len(f.buf)-tail]
		f.discarding = true

		return n, errors.ErrLineTooLong
	}

	return n, nil
}

// Lines returns an iterator over the complete lines currently buffered.
//
// Lines are consumed as they are yielded; stopping early leaves the remaining
// lines buffered for the next iteration. The trailing partial line is never
// yielded. Blank lines are skipped.
func (f *Framer) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			i := bytes.IndexByte(f.buf, '\n')
			if i < 0 {
				return
			}

			raw := f.buf[:i]
			f.buf = f.buf[i+1:]

			line := decode(raw)
			if strings.TrimSpace(line) == "" {
				continue
			}

			if !yield(line) {
				return
			}
		}
	}
}

// Feed appends chunk and returns every complete line it produced.
func (f *Framer) Feed(chunk []byte) ([]string, error) {
	_, err := f.Write(chunk)

	var lines []string
	for line := range f.Lines() {
		lines = append(lines, line)
	}

	return lines, err
}

// Buffered returns the number of bytes waiting for a newline.
func (f *Framer) Buffered() int {
	return len(f.buf)
}

func decode(raw []byte) string {
	raw = bytes.TrimSuffix(raw, []byte{'\r'})
	if utf8.Valid(raw) {
		return string(raw)
	}

	return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
}
