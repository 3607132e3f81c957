// internal/sched/tickclock.go

package sched

import (
	"sync/atomic"
	"time"
)

// Clock is the tick counter service the scheduler reads.
type Clock interface {
	Count() int64
}

// TickClock counts simulated ticks atomically. By default ticks advance as
// fast as Tick is called; after Start each Tick also waits for the next
// wall-clock interval.
type TickClock struct {
	Ch     chan struct{}
	count  atomic.Int64
	stop   chan struct{}
	paced  bool
	closed atomic.Bool
}

// NewTickClock creates a clock but does not share it.
func NewTickClock(buffer int) *TickClock {
	return &TickClock{
		Ch:   make(chan struct{}, buffer),
		stop: make(chan struct{}),
	}
}

// Start begins emitting pacing signals at the given interval.
// Must be called before the first Tick.
func (c *TickClock) Start(interval time.Duration) {
	if interval <= 0 {
		return
	}
	c.paced = true
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case c.Ch <- struct{}{}:
				case <-c.stop:
					close(c.Ch)
					return
				}
			case <-c.stop:
				close(c.Ch)
				return
			}
		}
	}()
}

// Stop releases the pacing goroutine; later ticks are no longer paced.
func (c *TickClock) Stop() {
	if c.closed.CompareAndSwap(false, true) {
		close(c.stop)
	}
}

// Tick advances the clock by one tick and returns the new count.
func (c *TickClock) Tick() int64 {
	if c.paced {
		<-c.Ch // a closed channel returns immediately
	}
	return c.count.Add(1)
}

// Count returns the current tick count atomically.
func (c *TickClock) Count() int64 {
	return c.count.Load()
}
