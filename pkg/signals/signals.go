// Package signals maps block signal groups to OS signals and delivers them
// to the scheduler's run loop over a channel.
//
// Signal group n is exposed as OS signal Base+n. On Linux Base is glibc's
// SIGRTMIN (34), so group 3 is refreshed from a shell with
//
//	pkill -RTMIN+3 pulsebar
//
// The mapping depends only on the configured groups and is stable across
// builds.
package signals

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"

	"golang.org/x/sys/unix"
)

// ErrSignalRange is returned when a group id does not map to a usable OS
// signal.
var ErrSignalRange = errors.New("signal id out of range")

// Kind classifies a received signal.
type Kind int

const (
	// Ignored signals are caught only so they do not terminate the process.
	Ignored Kind = iota

	// Refresh asks for an immediate refresh of a block group.
	Refresh

	// Terminate asks for an orderly shutdown.
	Terminate
)

// Event is the meaning of one received OS signal.
type Event struct {
	Kind Kind
	ID   int
}

// Mapping documents one signal group.
type Mapping struct {
	ID     int
	Signal unix.Signal
	Name   string
}

// Router owns the OS signal subscription.
type Router struct {
	ids     []int
	managed map[unix.Signal]int
	stray   []os.Signal
	c       chan os.Signal
	log     *slog.Logger
}

// New validates the group ids and prepares a Router. Nothing is
// registered with the OS until Start.
func New(ids []int, logger *slog.Logger) (*Router, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		managed: make(map[unix.Signal]int, len(ids)),
		log:     logger,
	}
	for _, id := range ids {
		if id <= 0 || Base+id > Max {
			return nil, fmt.Errorf("signal %d: OS signal %d outside [%d, %d]: %w",
				id, Base+id, Base+1, Max, ErrSignalRange)
		}
		if _, dup := r.managed[unix.Signal(Base+id)]; dup {
			continue
		}
		r.managed[unix.Signal(Base+id)] = id
		r.ids = append(r.ids, id)
	}
	slices.Sort(r.ids)
	for _, sig := range strays() {
		if _, ok := r.managed[sig]; !ok {
			r.stray = append(r.stray, sig)
		}
	}
	r.c = make(chan os.Signal, len(r.managed)+len(r.stray)+2)
	return r, nil
}

// Start subscribes to the managed signals, SIGINT, SIGTERM, SIGHUP, and any
// other real-time signals. SIGHUP and unmanaged real-time signals classify
// as Ignored.
func (r *Router) Start() {
	sigs := []os.Signal{unix.SIGINT, unix.SIGTERM, unix.SIGHUP}
	for _, id := range r.ids {
		sigs = append(sigs, unix.Signal(Base+id))
	}
	sigs = append(sigs, r.stray...)
	signal.Notify(r.c, sigs...)
	r.log.Debug("signal handlers registered", "groups", len(r.ids), "stray", len(r.stray))
}

// Stop unsubscribes from every signal.
func (r *Router) Stop() {
	signal.Stop(r.c)
}

// C returns the channel signals are delivered on.
func (r *Router) C() <-chan os.Signal {
	return r.c
}

// Classify reports what sig means to the run loop.
func (r *Router) Classify(sig os.Signal) Event {
	s, ok := sig.(unix.Signal)
	if !ok {
		return Event{Kind: Ignored}
	}
	switch s {
	case unix.SIGINT, unix.SIGTERM:
		return Event{Kind: Terminate}
	}
	if id, ok := r.managed[s]; ok {
		return Event{Kind: Refresh, ID: id}
	}
	return Event{Kind: Ignored}
}

// Signal returns the OS signal for group id.
func Signal(id int) unix.Signal {
	return unix.Signal(Base + id)
}

// Mappings lists the managed groups in ascending id order.
func (r *Router) Mappings() []Mapping {
	out := make([]Mapping, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, Mapping{ID: id, Signal: Signal(id), Name: name(id)})
	}
	return out
}
