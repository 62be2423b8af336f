package game

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Timer is a countdown over a wall-clock deadline. The remaining time is
// computed on demand from the deadline and the injected clock, so there is no
// ticking goroutine and pause/resume cycles cannot drift. Callers serialize
// access; the session mutex owns all timer state.
type Timer struct {
	clock     clockwork.Clock
	base      time.Duration
	max       time.Duration
	deadline  time.Time
	remaining time.Duration
	running   bool
	paused    bool
}

func NewTimer(clock clockwork.Clock, base time.Duration) *Timer {
	return &Timer{
		clock:     clock,
		base:      base,
		max:       base,
		remaining: base,
	}
}

// Start arms a fresh countdown of the given duration, or of the base
// duration when d is zero.
func (t *Timer) Start(d time.Duration) {
	if d <= 0 {
		d = t.base
	}
	t.max = d
	t.remaining = d
	t.deadline = t.clock.Now().Add(d)
	t.running = true
	t.paused = false
}

// Pause freezes the countdown, storing the exact remaining duration computed
// from the deadline.
func (t *Timer) Pause() {
	if !t.running {
		return
	}
	t.remaining = t.remainingNow()
	t.running = false
	t.paused = true
}

// Resume continues a paused countdown from the stored remaining value.
func (t *Timer) Resume() {
	if t.running || t.remaining <= 0 {
		return
	}
	t.deadline = t.clock.Now().Add(t.remaining)
	t.running = true
	t.paused = false
}

// Stop cancels the countdown and resets remaining to the base duration.
func (t *Timer) Stop() {
	t.running = false
	t.paused = false
	t.max = t.base
	t.remaining = t.base
}

// Extend adds delta to the countdown. While running it pushes the deadline
// and the cumulative maximum forward; while paused it only grows the stored
// remaining value.
func (t *Timer) Extend(delta time.Duration) {
	if delta <= 0 {
		return
	}
	if t.running {
		t.deadline = t.deadline.Add(delta)
		t.max += delta
		return
	}
	t.remaining += delta
}

// Reset rebases the timer for a new question window and stops it.
func (t *Timer) Reset(base time.Duration) {
	t.base = base
	t.max = base
	t.remaining = base
	t.running = false
	t.paused = false
}

// Remaining returns the authoritative time left, never negative.
func (t *Timer) Remaining() time.Duration {
	if t.running {
		return t.remainingNow()
	}
	return t.remaining
}

// Running reports whether the countdown is armed and has time left.
func (t *Timer) Running() bool {
	return t.running && t.remainingNow() > 0
}

// Paused reports whether the countdown was frozen mid-run.
func (t *Timer) Paused() bool {
	return t.paused
}

// Max returns the cumulative maximum for the current run (base plus any
// extensions granted while running).
func (t *Timer) Max() time.Duration {
	return t.max
}

func (t *Timer) remainingNow() time.Duration {
	left := t.deadline.Sub(t.clock.Now())
	if left < 0 {
		return 0
	}
	return left
}
