package game

import (
	"sort"
	"sync"
	"time"
)

// Timer is a pending callback scheduled on a Clock.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so regen ticks and effect expiry can be driven
// deterministically in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock uses the runtime timers.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// FakeClock is deterministic and test-friendly. Callbacks run synchronously
// inside Advance, in deadline order.
type FakeClock struct {
	mu     sync.Mutex
	t      time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *FakeClock
	when  time.Time
	seq   int
	f     func()
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{t: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	ft := &fakeTimer{clock: c, when: c.t.Add(d), seq: c.seq, f: f}
	c.timers = append(c.timers, ft)
	return ft
}

// Pending reports how many timers have not fired or been stopped.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// Advance moves time forward by d, firing every timer that comes due,
// including timers scheduled by callbacks during the advance.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.t.Add(d)
	for {
		next := c.popDue(target)
		if next == nil {
			break
		}
		c.t = next.when
		c.mu.Unlock()
		next.f()
		c.mu.Lock()
	}
	c.t = target
	c.mu.Unlock()
}

// popDue removes and returns the earliest timer due at or before target.
// Caller holds c.mu.
func (c *FakeClock) popDue(target time.Time) *fakeTimer {
	if len(c.timers) == 0 {
		return nil
	}
	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].when.Equal(c.timers[j].when) {
			return c.timers[i].seq < c.timers[j].seq
		}
		return c.timers[i].when.Before(c.timers[j].when)
	})
	first := c.timers[0]
	if first.when.After(target) {
		return nil
	}
	c.timers = c.timers[1:]
	return first
}

func (t *fakeTimer) Stop() bool {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, other := range c.timers {
		if other == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return true
		}
	}
	return false
}
