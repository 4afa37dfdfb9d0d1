// Package sink publishes the rendered status line: either as the X11 root
// window name, where dwm and similar window managers read it, or as one
// line per update on a stream such as standard output.
package sink

import (
	"fmt"
	"io"
)

// Sink is a destination for status lines. Write errors are fatal to the
// caller: a status bar that cannot publish has nothing left to do.
type Sink interface {
	Write(line []byte) error
	Close() error
}

// Kind names a sink in configuration.
type Kind string

const (
	KindX11    Kind = "x11"
	KindStdout Kind = "stdout"
)

// Open creates the sink of the given kind. stdout is used by KindStdout.
func Open(kind Kind, stdout io.Writer) (Sink, error) {
	switch kind {
	case KindX11:
		x, err := NewX11()
		if err != nil {
			return nil, err
		}
		return x, nil
	case KindStdout:
		return NewStream(stdout), nil
	default:
		return nil, fmt.Errorf("unknown output %q (supported: x11, stdout)", kind)
	}
}

// Stream writes each line followed by a newline to w.
type Stream struct {
	w   io.Writer
	buf []byte
}

// NewStream returns a Stream writing to w.
func NewStream(w io.Writer) *Stream {
	return &Stream{w: w}
}

// Write appends a newline to line and writes it in a single call. A short
// write is reported as io.ErrShortWrite.
func (s *Stream) Write(line []byte) error {
	s.buf = append(append(s.buf[:0], line...), '\n')
	n, err := s.w.Write(s.buf)
	if err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	if n != len(s.buf) {
		return fmt.Errorf("write status: %d of %d bytes: %w", n, len(s.buf), io.ErrShortWrite)
	}
	return nil
}

// Close is a no-op; the stream belongs to the caller.
func (s *Stream) Close() error {
	return nil
}
