// Copyright 2026 The AutoGLM Web Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// Fake returns a FakeClock initialized to the given time.
//
// FakeClock is safe for concurrent use by multiple goroutines.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// FakeClock is a deterministic Clock for testing. Time advances only
// through Advance, Sleep, and After. Sleep and After never block: they
// move the fake time forward by d and record the wait, which lets
// tests assert on the total time a component spent waiting without
// actually waiting.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	sleeps  []time.Duration

	// onSleep, when set, is called after every Sleep or After with the
	// number of waits recorded so far. Tests use it to change the
	// world between poll attempts (for example, append to a log file
	// on the third wait).
	onSleep func(count int)
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the fake time forward by d without recording a wait.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Sleep records d, advances the fake time by d, and returns
// immediately. Non-positive durations are recorded as zero.
func (c *FakeClock) Sleep(d time.Duration) {
	c.wait(d)
}

// After records d, advances the fake time, and returns a channel that
// already holds the new time.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	now := c.wait(d)
	channel := make(chan time.Time, 1)
	channel <- now
	return channel
}

// OnSleep installs a hook called after each recorded wait with the
// running wait count. The hook runs outside the clock's lock, so it may
// call Now or Advance.
func (c *FakeClock) OnSleep(hook func(count int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSleep = hook
}

// Sleeps returns a copy of every recorded wait, in order.
func (c *FakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// Slept returns the sum of every recorded wait.
func (c *FakeClock) Slept() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total time.Duration
	for _, d := range c.sleeps {
		total += d
	}
	return total
}

func (c *FakeClock) wait(d time.Duration) time.Time {
	if d < 0 {
		d = 0
	}
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.sleeps = append(c.sleeps, d)
	now := c.current
	count := len(c.sleeps)
	hook := c.onSleep
	c.mu.Unlock()

	if hook != nil {
		hook(count)
	}
	return now
}
