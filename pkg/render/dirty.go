package render

// Dirty aggregates the changes made to block text since the last render.
// The zero value is clean.
type Dirty struct {
	count   int
	resized int
	min     int
}

// Mark records that the block at display index display changed, and
// whether its length changed.
func (d *Dirty) Mark(display int, resized bool) {
	if d.count == 0 || display < d.min {
		d.min = display
	}
	d.count++
	if resized {
		d.resized++
	}
}

// Invalidate forces the next render to rebuild the whole line.
func (d *Dirty) Invalidate() {
	d.Mark(0, true)
}

// Any reports whether anything changed.
func (d *Dirty) Any() bool {
	return d.count > 0
}

// Count is the number of dirty blocks.
func (d *Dirty) Count() int {
	return d.count
}

// Resized is the number of dirty blocks whose length changed.
func (d *Dirty) Resized() int {
	return d.resized
}

// Min is the smallest dirty display index. Only meaningful when Any.
func (d *Dirty) Min() int {
	return d.min
}

// Reset clears the aggregates.
func (d *Dirty) Reset() {
	*d = Dirty{}
}
