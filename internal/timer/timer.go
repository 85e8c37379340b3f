// Package timer holds the delay and sound counters and the fixed 60 Hz clock
// that drives them.
package timer

import (
	"sync"
	"time"
)

// Rate is the tick frequency of the timer clock.
const Rate = 60

// Timers are the two 8-bit countdown registers. Both saturate at zero.
type Timers struct {
	Delay byte
	Sound byte
}

// Tick decrements both counters by one.
func (t *Timers) Tick() {
	if t.Delay > 0 {
		t.Delay--
	}
	if t.Sound > 0 {
		t.Sound--
	}
}

// Policy decides how many pending ticks the interpreter applies per cycle.
type Policy int

const (
	// ConsumeOne applies at most one tick per interpreter cycle. Timers lag
	// wall-clock time when the CPU runs slower than 60 Hz.
	ConsumeOne Policy = iota
	// DrainAll applies every pending tick each cycle.
	DrainAll
)

func (p Policy) String() string {
	switch p {
	case ConsumeOne:
		return "one"
	case DrainAll:
		return "drain"
	default:
		return "unknown"
	}
}

// DefaultBacklog is one second worth of ticks.
const DefaultBacklog = Rate

// Clock produces ticks at a fixed rate on its own goroutine. It owns no
// interpreter state; the interpreter polls it.
type Clock struct {
	period time.Duration
	ticks  chan struct{}
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once

	started bool
}

// NewClock returns a stopped clock ticking every period. backlog bounds the
// number of unconsumed ticks kept; further ticks are dropped.
func NewClock(period time.Duration, backlog int) *Clock {
	if backlog < 1 {
		backlog = 1
	}
	return &Clock{
		period: period,
		ticks:  make(chan struct{}, backlog),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the producer goroutine.
func (c *Clock) Start() {
	if c.started {
		return
	}
	c.started = true
	go c.loop()
}

func (c *Clock) loop() {
	defer close(c.done)
	for {
		start := time.Now()
		select {
		case <-c.stop:
			return
		default:
		}
		c.Tick()
		if d := c.period - time.Since(start); d > 0 {
			time.Sleep(d)
		}
	}
}

// Stop signals the producer and waits for it to exit. Safe to call more than once.
func (c *Clock) Stop() {
	c.once.Do(func() { close(c.stop) })
	if c.started {
		<-c.done
	}
}

// Tick enqueues one tick. It returns false if the backlog is full and the
// tick was dropped.
func (c *Clock) Tick() bool {
	select {
	case c.ticks <- struct{}{}:
		return true
	default:
		return false
	}
}

// Poll consumes one pending tick, if any, without blocking.
func (c *Clock) Poll() bool {
	select {
	case <-c.ticks:
		return true
	default:
		return false
	}
}

// Pending returns the number of unconsumed ticks.
func (c *Clock) Pending() int { return len(c.ticks) }

// Apply consumes pending ticks from c into t according to p and returns how
// many were applied.
func Apply(t *Timers, c *Clock, p Policy) int {
	n := 0
	for c.Poll() {
		t.Tick()
		n++
		if p == ConsumeOne {
			break
		}
	}
	return n
}
