// Package scheduler drives block production. It advances a tick counter,
// fires the blocks whose countdown expired, refreshes signal groups on
// demand, and publishes the rendered line whenever a block's text changed.
//
// All block state is mutated from a single goroutine: the one calling
// Populate, Tick, Refresh, or Run. OS signals reach Run over a channel and
// are handled between ticks.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gitlab.com/tinyland/lab/pulsebar/pkg/blocks"
	"gitlab.com/tinyland/lab/pulsebar/pkg/render"
	"gitlab.com/tinyland/lab/pulsebar/pkg/signals"
)

// Sink receives every published line.
type Sink interface {
	Write(line []byte) error
}

// Notifier delivers OS signals to the run loop.
type Notifier interface {
	C() <-chan os.Signal
	Classify(sig os.Signal) signals.Event
}

// Config controls the Scheduler.
type Config struct {
	// Tick is the time unit block intervals are counted in (default 1s).
	Tick time.Duration

	// SlowProducer, when positive, logs a warning for producers that take
	// longer than this. A slow producer stalls the whole loop.
	SlowProducer time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns a Config with a one-second tick.
func DefaultConfig() Config {
	return Config{
		Tick:         time.Second,
		SlowProducer: 500 * time.Millisecond,
	}
}

// Scheduler owns the dirty aggregates and drives the renderer and sink.
type Scheduler struct {
	cfg      Config
	table    *blocks.Table
	renderer *render.Renderer
	sink     Sink
	log      *slog.Logger

	dirty   render.Dirty
	scratch []byte
	call    blocks.Call
	ticks   uint64
}

// New creates a Scheduler. Zero-value fields in cfg are replaced with
// defaults.
func New(table *blocks.Table, renderer *render.Renderer, sink Sink, cfg Config) *Scheduler {
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultConfig().Tick
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		cfg:      cfg,
		table:    table,
		renderer: renderer,
		sink:     sink,
		log:      log,
		scratch:  make([]byte, table.Capacity()),
	}
}

// Populate produces every block once, regardless of interval or signal,
// and publishes the first full line.
func (s *Scheduler) Populate() error {
	for e := 0; e < s.table.Len(); e++ {
		s.produce(s.table.Block(e), false)
	}
	s.dirty.Invalidate()
	return s.publish()
}

// Tick advances time by one unit and fires every block whose countdown
// runs out. The line is published if any text changed.
func (s *Scheduler) Tick() error {
	s.ticks++
	for e := 0; e < s.table.Len(); e++ {
		b := s.table.Block(e)
		if !b.Scheduled() {
			continue
		}
		if b.Countdown > 0 {
			b.Countdown--
		}
		if b.Countdown > 0 {
			continue
		}
		s.produce(b, false)
	}
	if !s.dirty.Any() {
		return nil
	}
	return s.publish()
}

// Refresh produces every block in signal group id immediately. Countdowns
// are left alone unless a producer asks for a specific next interval or the
// block had dropped off the timer.
func (s *Scheduler) Refresh(id int) error {
	matched := 0
	for e := 0; e < s.table.Len(); e++ {
		b := s.table.Block(e)
		if b.Signal != id {
			continue
		}
		matched++
		s.produce(b, true)
	}
	s.log.Debug("signal refresh", "signal", id, "blocks", matched)
	if !s.dirty.Any() {
		return nil
	}
	return s.publish()
}

// Run ticks every cfg.Tick and refreshes signal groups as n delivers them,
// until a termination signal arrives or ctx is done. It returns a non-nil
// error only when publishing fails.
func (s *Scheduler) Run(ctx context.Context, n Notifier) error {
	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped", "reason", ctx.Err())
			return nil
		case sig := <-n.C():
			ev := n.Classify(sig)
			switch ev.Kind {
			case signals.Terminate:
				s.log.Info("received shutdown signal", "signal", sig.String())
				return nil
			case signals.Refresh:
				if err := s.Refresh(ev.ID); err != nil {
					return err
				}
			default:
				s.log.Warn("ignoring unhandled signal", "signal", sig.String())
			}
		case <-ticker.C:
			if err := s.Tick(); err != nil {
				return err
			}
		}
	}
}

// Ticks returns the number of ticks processed so far.
func (s *Scheduler) Ticks() uint64 {
	return s.ticks
}

// Line returns the last rendered line.
func (s *Scheduler) Line() []byte {
	return s.renderer.Bytes()
}

func (s *Scheduler) produce(b *blocks.Block, keepCountdown bool) {
	s.call = blocks.Call{
		Arg:   b.Arg,
		Label: b.Label,
		Proc:  &b.Proc,
		Next:  blocks.KeepInterval,
	}

	start := time.Now()
	n, err := b.Producer.Produce(s.scratch, &s.call)
	if elapsed := time.Since(start); s.cfg.SlowProducer > 0 && elapsed > s.cfg.SlowProducer {
		s.log.Warn("slow producer", "block", b.Name, "elapsed", elapsed)
	}

	if err != nil {
		// Keep the previous text; the block retries on its next due cycle.
		s.log.Warn("producer failed", "block", b.Name, "error", err)
		if !keepCountdown {
			b.Reschedule(blocks.KeepInterval)
		}
		return
	}

	// A refresh only moves the countdown on request, or to bring an
	// unscheduled block back onto its interval.
	if !keepCountdown || s.call.Next != blocks.KeepInterval || !b.Scheduled() {
		b.Reschedule(s.call.Next)
	}

	n = min(max(n, 0), len(s.scratch))
	if changed, resized := b.Store(s.scratch[:n]); changed {
		s.dirty.Mark(b.Display, resized)
	}
}

func (s *Scheduler) publish() error {
	line := s.renderer.Render(s.table, &s.dirty)
	path := s.renderer.Last()
	s.dirty.Reset()
	if err := s.sink.Write(line); err != nil {
		return fmt.Errorf("publish status: %w", err)
	}
	s.log.Debug("published", "bytes", len(line), "path", path.String())
	return nil
}
