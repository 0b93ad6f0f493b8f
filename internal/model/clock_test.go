package model

import (
	"testing"
	"time"
)

func TestClockDecrementFloorsAtZero(t *testing.T) {
	c := NewClock(3 * time.Second)

	if left := c.Decrement(time.Second); left != 2*time.Second {
		t.Errorf("after one second, %v left, want 2s", left)
	}
	if c.Expired() {
		t.Error("clock expired with time remaining")
	}
	if left := c.Decrement(5 * time.Second); left != 0 {
		t.Errorf("overdrawn clock reports %v, want 0", left)
	}
	if !c.Expired() {
		t.Error("empty clock not expired")
	}
}

func TestClockReset(t *testing.T) {
	c := NewClock(time.Second)
	c.Decrement(2 * time.Second)
	c.Reset(7 * time.Second)

	if got := c.TimeLeft(); got != 7*time.Second {
		t.Errorf("TimeLeft = %v, want 7s", got)
	}
	if c.Expired() {
		t.Error("reset clock still expired")
	}
}
