package loop

import (
	"sort"
	"sync"
	"time"
)

// Clock abstracts time for the loop so timers can be driven by tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending call created by Clock.AfterFunc.
type Timer interface {
	// Stop prevents the timer from firing. It returns false if the timer
	// already fired or was stopped.
	Stop() bool
}

type systemClock struct{}

// SystemClock returns a Clock backed by the time package.
func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// ManualClock is a Clock whose time only moves when Advance is called.
// Timers fire synchronously from Advance, in deadline order.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*manualTimer
}

type manualTimer struct {
	clock    *ManualClock
	deadline time.Time
	seq      uint64
	f        func()
	stopped  bool
}

// NewManualClock creates a ManualClock starting at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the clock's current time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc registers f to run once the clock has advanced by d.
func (c *ManualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &manualTimer{clock: c, deadline: c.now.Add(d), seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by d and fires every timer that
// became due, earliest first.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		sort.SliceStable(c.timers, func(i, j int) bool {
			a, b := c.timers[i], c.timers[j]
			if a.deadline.Equal(b.deadline) {
				return a.seq < b.seq
			}
			return a.deadline.Before(b.deadline)
		})
		if len(c.timers) == 0 || c.timers[0].deadline.After(target) {
			c.now = target
			c.mu.Unlock()
			return
		}
		t := c.timers[0]
		c.timers = c.timers[1:]
		if t.deadline.After(c.now) {
			c.now = t.deadline
		}
		c.mu.Unlock()

		// Fire outside the lock; f may register new timers.
		t.f()
	}
}

// PendingTimers returns the number of timers that have not fired yet.
func (c *ManualClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

func (t *manualTimer) Stop() bool {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, other := range c.timers {
		if other == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			t.stopped = true
			return true
		}
	}
	return false
}
