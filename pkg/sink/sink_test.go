package sink

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) - 1, nil }

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestStreamAppendsNewline(t *testing.T) {
	var buf bytes.Buffer
	s := NewStream(&buf)
	if err := s.Write([]byte(" A | B ")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Write([]byte("C")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got, want := buf.String(), " A | B \nC\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestStreamDoesNotRetainLine(t *testing.T) {
	var buf bytes.Buffer
	s := NewStream(&buf)
	line := []byte("abc")
	_ = s.Write(line)
	line[0] = 'x'
	if got := buf.String(); got != "abc\n" {
		t.Errorf("output = %q, want %q", got, "abc\n")
	}
}

func TestStreamShortWrite(t *testing.T) {
	err := NewStream(shortWriter{}).Write([]byte("abc"))
	if !errors.Is(err, io.ErrShortWrite) {
		t.Errorf("Write error = %v, want io.ErrShortWrite", err)
	}
}

func TestStreamWriteError(t *testing.T) {
	err := NewStream(failWriter{}).Write([]byte("abc"))
	if !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("Write error = %v, want io.ErrClosedPipe", err)
	}
}

func TestOpen(t *testing.T) {
	var buf bytes.Buffer
	s, err := Open(KindStdout, &buf)
	if err != nil {
		t.Fatalf("Open(stdout): %v", err)
	}
	if _, ok := s.(*Stream); !ok {
		t.Errorf("Open(stdout) = %T, want *Stream", s)
	}
	if _, err := Open("pigeon", &buf); err == nil {
		t.Error("Open(pigeon) should fail")
	}
}
