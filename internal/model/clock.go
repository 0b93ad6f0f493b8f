package model

import (
	"sync"
	"time"
)

// Clock tracks one player's remaining thinking time. Time only leaves a
// clock through Decrement; the session layer owns the tick cadence, so
// the clock itself never consults the wall clock.
type Clock struct {
	mu       sync.Mutex
	timeLeft time.Duration
}

func NewClock(initial time.Duration) *Clock {
	return &Clock{timeLeft: initial}
}

// Decrement burns d off the clock, flooring at zero, and returns what
// remains.
func (c *Clock) Decrement(d time.Duration) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.timeLeft -= d
	if c.timeLeft < 0 {
		c.timeLeft = 0
	}
	return c.timeLeft
}

func (c *Clock) TimeLeft() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeLeft
}

func (c *Clock) Expired() bool {
	return c.TimeLeft() <= 0
}

// Reset overwrites the remaining time; used when restoring a saved game.
func (c *Clock) Reset(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeLeft = d
}
