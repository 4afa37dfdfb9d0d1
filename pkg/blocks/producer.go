package blocks

import "unicode/utf8"

// Next-interval requests a producer may store in Call.Next. Any positive
// value is a number of ticks until the next scheduled invocation.
const (
	// KeepInterval reschedules the block with its registered interval.
	KeepInterval = -1

	// Never stops time-based scheduling. Only a signal brings the block back.
	Never = 0
)

// Call carries the inputs of one producer invocation and the producer's
// scheduling request back to the caller.
type Call struct {
	// Arg is the block's opaque argument: a path, a command, or empty.
	Arg string

	// Label is fixed text some producers emit when their condition holds
	// (e.g. a process is running).
	Label string

	// Proc is the block's process-presence state. It persists across calls.
	Proc *ProcState

	// Next is preset to KeepInterval before every call.
	Next int
}

// Producer computes the text of one block. It writes at most len(dst) bytes
// of UTF-8 text without a trailing newline into dst and returns the number
// of bytes written. Writing zero bytes suppresses the block, padding
// included, for this pass.
type Producer interface {
	Produce(dst []byte, call *Call) (int, error)
}

// ProducerFunc adapts an ordinary function to the Producer interface.
type ProducerFunc func(dst []byte, call *Call) (int, error)

// Produce calls f(dst, call).
func (f ProducerFunc) Produce(dst []byte, call *Call) (int, error) {
	return f(dst, call)
}

// Put copies s into dst and returns the number of bytes copied. When s does
// not fit it is cut at the last complete rune.
func Put(dst []byte, s string) int {
	if len(s) <= len(dst) {
		return copy(dst, s)
	}
	cut := len(dst)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return copy(dst, s[:cut])
}

// ProcState remembers the process a presence producer found last time so
// it does not rescan /proc on every call. The zero value is Unknown.
type ProcState struct {
	PID int32
}

// Tracked reports whether a process id is cached.
func (p *ProcState) Tracked() bool {
	return p.PID > 0
}

// Track caches pid.
func (p *ProcState) Track(pid int32) {
	p.PID = pid
}

// Forget returns the state to Unknown.
func (p *ProcState) Forget() {
	p.PID = 0
}
