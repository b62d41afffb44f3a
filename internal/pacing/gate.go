// Package pacing paces frame output to a fixed interval with an early-wake
// signal.
package pacing

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Gate blocks a frame loop until the next cycle boundary. Signal wakes a
// pending or future Wait early; several signals before a Wait collapse into
// one wake.
//
// Wait and Reset must be called from a single goroutine. Signal may be
// called from any goroutine.
type Gate struct {
	clock    clockwork.Clock
	interval time.Duration
	wake     chan struct{}
	next     time.Time
}

// New returns a gate with the given interval. A nil clock uses the real clock.
func New(clock clockwork.Clock, interval time.Duration) *Gate {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	g := &Gate{
		clock:    clock,
		interval: interval,
		wake:     make(chan struct{}, 1),
	}
	g.Reset()
	return g
}

func (g *Gate) Interval() time.Duration { return g.interval }

// Reset restarts the schedule from now.
func (g *Gate) Reset() {
	g.next = g.clock.Now()
}

// Signal requests an early wake. It never blocks.
func (g *Gate) Signal() {
	select {
	case g.wake <- struct{}{}:
	default:
	}
}

// Wait blocks until the next boundary, a signal, or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := g.clock.Now()
	sleep := g.advance(now)

	if sleep <= 0 {
		// Late already; a pending signal is consumed by this wake.
		select {
		case <-g.wake:
		default:
		}
		return nil
	}

	timer := g.clock.NewTimer(sleep)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-g.wake:
		g.Reset()
		return nil
	case <-timer.Chan():
		return nil
	}
}

// advance moves the schedule to the next boundary after now and returns how
// long to sleep until it. Boundaries two or more intervals in the past are
// skipped; a boundary more than two intervals ahead means the clock jumped
// back, so the sleep is capped and the schedule restarted.
func (g *Gate) advance(now time.Time) time.Duration {
	if g.interval <= 0 {
		g.next = now
		return 0
	}

	g.next = g.next.Add(g.interval)
	if behind := now.Sub(g.next); behind >= 2*g.interval {
		g.next = g.next.Add((behind/g.interval - 1) * g.interval)
	}

	sleep := g.next.Sub(now)
	if sleep > 2*g.interval {
		sleep = 2 * g.interval
		g.next = now
	}
	return sleep
}
