// Package scheduler repeats synchronization passes at a fixed interval.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/klauern/dirsync/internal/logging"
)

// Messages written to the sync log by the loop.
const (
	msgComplete   = "Synchronization process complete. Waiting for %s second(s)."
	msgFailed     = "Synchronization pass failed: %v"
	msgTerminated = "Synchronization terminated."
)

// DefaultInterval is the wait between passes when none is configured.
const DefaultInterval = 60 * time.Second

// PassFunc performs one synchronization pass.
type PassFunc func(ctx context.Context) error

// Sink receives loop status lines.
type Sink interface {
	Append(message string)
}

// Options configures a Scheduler.
type Options struct {
	// Interval is the wait after a pass completes. Defaults to DefaultInterval.
	Interval time.Duration

	// Clock drives the wait. Defaults to the real clock.
	Clock clockwork.Clock

	// Trigger, if set, starts the next pass early when it receives.
	Trigger <-chan struct{}

	// MaxPasses stops the loop after that many passes. Zero means no limit.
	MaxPasses int
}

// Scheduler runs a pass, waits, and repeats until its context is cancelled.
type Scheduler struct {
	pass PassFunc
	sink Sink
	opts Options
}

// New creates a Scheduler.
func New(pass PassFunc, sink Sink, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Scheduler{pass: pass, sink: sink, opts: opts}
}

// Run loops until ctx is cancelled or MaxPasses is reached. A pass that returns
// an error is logged and the loop carries on. Cancellation is not an error.
func (s *Scheduler) Run(ctx context.Context) error {
	for passes := 1; ; passes++ {
		if ctx.Err() != nil {
			s.terminate()
			return nil
		}

		err := s.pass(ctx)
		switch {
		case err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()):
			s.terminate()
			return nil
		case err != nil:
			logging.Error("synchronization pass failed", logging.Err(err))
			s.append(fmt.Sprintf(msgFailed, err))
		default:
			s.append(fmt.Sprintf(msgComplete, Seconds(s.opts.Interval)))
		}

		if s.opts.MaxPasses > 0 && passes >= s.opts.MaxPasses {
			return nil
		}

		if !s.wait(ctx) {
			s.terminate()
			return nil
		}
	}
}

// wait blocks until the interval elapses or a trigger fires, returning false
// if ctx ended first. The interval restarts after every pass.
func (s *Scheduler) wait(ctx context.Context) bool {
	timer := s.opts.Clock.NewTimer(s.opts.Interval)
	defer timer.Stop()

	trigger := s.opts.Trigger
	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.Chan():
			return true
		case _, ok := <-trigger:
			if !ok {
				trigger = nil
				continue
			}
			logging.Debug("pass triggered by source change")
			return true
		}
	}
}

func (s *Scheduler) terminate() {
	s.append(msgTerminated)
}

func (s *Scheduler) append(msg string) {
	if s.sink != nil {
		s.sink.Append(msg)
	}
}

// Seconds renders d as a number of seconds without trailing zeros.
func Seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
