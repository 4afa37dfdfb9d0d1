// Package blocks holds the static registry of status-line blocks, the
// mapping between display order and execution order, and the per-block
// runtime state (countdown, cached text, process tracking).
//
// A Table is built once at startup and never resized. All state is owned by
// the table and addressed by integer index.
package blocks

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
)

// DefaultCapacity is the per-block text buffer size in bytes.
const DefaultCapacity = 64

// Unscheduled is the countdown of a block that never fires on a timer.
const Unscheduled = -1

var (
	// ErrPaddingTooLong is returned when a block's padding cannot fit in
	// the per-block buffer.
	ErrPaddingTooLong = errors.New("block padding exceeds buffer capacity")

	// ErrInvalidSpec is returned for a nil producer or negative fields.
	ErrInvalidSpec = errors.New("invalid block spec")
)

// Spec is one entry of the registration table. Registration order defines
// display order.
type Spec struct {
	// Name identifies the block in logs, usually the producer name.
	Name string

	// Interval is the number of ticks between scheduled refreshes. Zero
	// means the block is only produced at startup or on signal.
	Interval int

	// Signal groups blocks for external refresh. Zero means none.
	Signal int

	Producer Producer
	Arg      string
	Label    string
	PadLeft  string
	PadRight string
}

// Block is a registered block with its runtime state.
type Block struct {
	Spec

	// Display is the block's position in the published line.
	Display int

	// Exec is the block's position in scheduling order.
	Exec int

	// Countdown is the number of ticks left until the next scheduled
	// firing, or Unscheduled.
	Countdown int

	// Proc is the process-presence cache handed to the producer.
	Proc ProcState

	text []byte
}

// Text returns the cached output of the last successful production.
func (b *Block) Text() []byte {
	return b.text
}

// Scheduled reports whether the block is currently driven by the timer.
func (b *Block) Scheduled() bool {
	return b.Countdown >= 0
}

// Once reports whether the block is produced only at startup: it has
// neither an interval nor a signal group.
func (b *Block) Once() bool {
	return b.Interval == 0 && b.Signal == 0
}

// Reschedule sets the countdown from a producer's next-interval request.
// A Once block stays unscheduled whatever next asks for.
func (b *Block) Reschedule(next int) {
	switch {
	case b.Once():
		b.Countdown = Unscheduled
	case next < 0:
		if b.Interval > 0 {
			b.Countdown = b.Interval
		} else {
			b.Countdown = Unscheduled
		}
	case next == Never:
		b.Countdown = Unscheduled
	default:
		b.Countdown = next
	}
}

// Store replaces the cached text with p. It reports whether the content
// changed and, if so, whether its length changed too.
func (b *Block) Store(p []byte) (changed, resized bool) {
	if len(p) == len(b.text) && bytes.Equal(p, b.text) {
		return false, false
	}
	resized = len(p) != len(b.text)
	b.text = append(b.text[:0], p...)
	return true, resized
}

// Table is the block registry. Blocks are stored in execution order.
type Table struct {
	blocks        []Block
	execToDisplay []int
	displayToExec []int
	capacity      int
}

// New builds a table from specs in registration order. Blocks are stably
// sorted by (interval, signal) with interval 0 sorting last, so re-runs
// with the same configuration produce the same execution order.
func New(specs []Spec, capacity int) (*Table, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	blocks := make([]Block, len(specs))
	for i, s := range specs {
		if s.Producer == nil {
			return nil, fmt.Errorf("block %d (%s): no producer: %w", i, s.Name, ErrInvalidSpec)
		}
		if s.Interval < 0 || s.Signal < 0 {
			return nil, fmt.Errorf("block %d (%s): negative interval or signal: %w", i, s.Name, ErrInvalidSpec)
		}
		if pad := len(s.PadLeft) + len(s.PadRight); pad > capacity {
			return nil, fmt.Errorf("block %d (%s): padding %d bytes, capacity %d: %w",
				i, s.Name, pad, capacity, ErrPaddingTooLong)
		}
		blocks[i] = Block{
			Spec:    s,
			Display: i,
			text:    make([]byte, 0, capacity),
		}
		blocks[i].Reschedule(KeepInterval)
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		ki, kj := sortKey(blocks[i].Interval), sortKey(blocks[j].Interval)
		if ki != kj {
			return ki < kj
		}
		return blocks[i].Signal < blocks[j].Signal
	})

	t := &Table{
		blocks:        blocks,
		execToDisplay: make([]int, len(blocks)),
		displayToExec: make([]int, len(blocks)),
		capacity:      capacity,
	}
	for e := range t.blocks {
		t.blocks[e].Exec = e
		t.execToDisplay[e] = t.blocks[e].Display
		t.displayToExec[t.blocks[e].Display] = e
	}
	return t, nil
}

func sortKey(interval int) uint64 {
	if interval == 0 {
		return math.MaxUint32
	}
	return uint64(interval)
}

// Len returns the number of blocks.
func (t *Table) Len() int {
	return len(t.blocks)
}

// Capacity returns the per-block buffer size.
func (t *Table) Capacity() int {
	return t.capacity
}

// Block returns the block at execution index exec.
func (t *Table) Block(exec int) *Block {
	return &t.blocks[exec]
}

// ByDisplay returns the block at display index display.
func (t *Table) ByDisplay(display int) *Block {
	return &t.blocks[t.displayToExec[display]]
}

// ExecToDisplay maps an execution index to a display index.
func (t *Table) ExecToDisplay(exec int) int {
	return t.execToDisplay[exec]
}

// DisplayToExec maps a display index to an execution index.
func (t *Table) DisplayToExec(display int) int {
	return t.displayToExec[display]
}

// Signals returns the distinct non-zero signal ids in ascending order.
func (t *Table) Signals() []int {
	seen := make(map[int]bool)
	var ids []int
	for i := range t.blocks {
		id := t.blocks[i].Signal
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Segment returns the padding and cached text of the block at display
// index display. It lets the table serve as a render source.
func (t *Table) Segment(display int) (left string, text []byte, right string) {
	b := t.ByDisplay(display)
	return b.PadLeft, b.text, b.PadRight
}
