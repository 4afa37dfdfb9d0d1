// Package render builds the published status line from per-block cached
// text. When exactly one block changed and its length did not, the line is
// patched in place; otherwise it is rebuilt from the first changed block
// onward. Both paths produce the same bytes as a full rebuild.
package render

// Source supplies the segments of the line in display order.
type Source interface {
	Len() int
	Segment(display int) (left string, text []byte, right string)
}

// Path identifies how the last Render call produced its output.
type Path int

const (
	PathNone Path = iota
	PathFast
	PathSlow
)

func (p Path) String() string {
	switch p {
	case PathFast:
		return "fast"
	case PathSlow:
		return "slow"
	default:
		return "none"
	}
}

// Stats counts renders by path.
type Stats struct {
	Fast int
	Slow int
}

// Renderer owns the output buffer and the byte offset of every block.
type Renderer struct {
	prefix string
	suffix string

	buf []byte

	// seg[i] is the offset at which block i's segment starts; text[i] is
	// the offset of its text, past the left padding.
	seg  []int
	text []int

	built bool
	last  Path
	stats Stats
}

// New returns a renderer for n blocks. prefix and suffix surround the
// whole line. capacity is the per-block buffer size, used to size the
// output buffer up front.
func New(n int, prefix, suffix string, capacity int) *Renderer {
	return &Renderer{
		prefix: prefix,
		suffix: suffix,
		buf:    make([]byte, 0, len(prefix)+len(suffix)+n*capacity),
		seg:    make([]int, n),
		text:   make([]int, n),
	}
}

// Render brings the line up to date with src and returns it. The returned
// slice aliases the renderer's buffer and is only valid until the next
// call. With nothing dirty the previous line is returned unchanged.
func (r *Renderer) Render(src Source, d *Dirty) []byte {
	switch {
	case !r.built:
		r.rebuild(src, 0)
	case !d.Any():
		r.last = PathNone
		return r.buf
	case d.Count() == 1 && d.Resized() == 0:
		_, text, _ := src.Segment(d.Min())
		copy(r.buf[r.text[d.Min()]:], text)
		r.last = PathFast
		r.stats.Fast++
		return r.buf
	default:
		r.rebuild(src, d.Min())
	}
	r.last = PathSlow
	r.stats.Slow++
	return r.buf
}

func (r *Renderer) rebuild(src Source, from int) {
	if !r.built {
		r.buf = append(r.buf[:0], r.prefix...)
		from = 0
		r.built = true
	} else {
		r.buf = r.buf[:r.seg[from]]
	}

	n := src.Len()
	for i := from; i < n; i++ {
		r.seg[i] = len(r.buf)
		left, text, right := src.Segment(i)
		if len(text) == 0 {
			r.text[i] = len(r.buf)
			continue
		}
		r.buf = append(r.buf, left...)
		r.text[i] = len(r.buf)
		r.buf = append(r.buf, text...)
		r.buf = append(r.buf, right...)
	}
	r.buf = append(r.buf, r.suffix...)
}

// Bytes returns the current line.
func (r *Renderer) Bytes() []byte {
	return r.buf
}

// Last returns the path taken by the most recent Render call.
func (r *Renderer) Last() Path {
	return r.last
}

// Stats returns render counts by path.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// Offset returns the byte offset of block display's text in the line.
func (r *Renderer) Offset(display int) int {
	return r.text[display]
}
