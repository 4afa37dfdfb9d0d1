package producers

import (
	"time"

	"gitlab.com/tinyland/lab/pulsebar/pkg/blocks"
)

// Clock writes the local time as "9:05 PM" and reschedules itself for the
// start of the next minute.
type Clock struct {
	now func() time.Time
}

// NewClock returns a Clock reading the system time.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

func (c *Clock) Produce(dst []byte, call *blocks.Call) (int, error) {
	t := c.now()
	call.Next = 60 - t.Second()
	return blocks.Put(dst, t.Format("3:04 PM")), nil
}

// Date writes the local date as "Mon, 2 Jan 2006" and reschedules itself
// for the next midnight.
type Date struct {
	now func() time.Time
}

// NewDate returns a Date reading the system time.
func NewDate() *Date {
	return &Date{now: time.Now}
}

func (d *Date) Produce(dst []byte, call *blocks.Call) (int, error) {
	t := d.now()
	call.Next = untilMidnight(t)
	return blocks.Put(dst, t.Format("Mon, 2 Jan 2006")), nil
}

func untilMidnight(t time.Time) int {
	return (23-t.Hour())*3600 + (59-t.Minute())*60 + (60 - t.Second())
}
