package game

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestTimerCountsDownFromDeadline(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timer := NewTimer(clock, time.Minute)

	timer.Start(0)
	if !timer.Running() {
		t.Fatalf("expected timer running after start")
	}
	clock.Advance(10 * time.Second)
	if got := timer.Remaining(); got != 50*time.Second {
		t.Fatalf("expected 50s remaining, got %v", got)
	}
}

func TestTimerPauseResumeDoesNotDrift(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timer := NewTimer(clock, time.Minute)

	timer.Start(0)
	clock.Advance(15 * time.Second)

	before := timer.Remaining()
	for i := 0; i < 10; i++ {
		timer.Pause()
		timer.Resume()
	}
	if got := timer.Remaining(); got != before {
		t.Fatalf("pause/resume cycling drifted: before=%v after=%v", before, got)
	}

	timer.Pause()
	clock.Advance(time.Hour) // paused time must not count
	if got := timer.Remaining(); got != before {
		t.Fatalf("expected %v remaining while paused, got %v", before, got)
	}
	timer.Resume()
	clock.Advance(5 * time.Second)
	if got := timer.Remaining(); got != before-5*time.Second {
		t.Fatalf("expected %v remaining, got %v", before-5*time.Second, got)
	}
}

func TestTimerExtendWhileRunning(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timer := NewTimer(clock, 30*time.Second)

	timer.Start(0)
	clock.Advance(10 * time.Second)
	timer.Extend(15 * time.Second)

	if got := timer.Remaining(); got != 35*time.Second {
		t.Fatalf("expected 35s remaining after extend, got %v", got)
	}
	if got := timer.Max(); got != 45*time.Second {
		t.Fatalf("expected max 45s after extend, got %v", got)
	}
}

func TestTimerExtendWhilePaused(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timer := NewTimer(clock, 30*time.Second)

	timer.Start(0)
	clock.Advance(10 * time.Second)
	timer.Pause()
	timer.Extend(15 * time.Second)

	if got := timer.Remaining(); got != 35*time.Second {
		t.Fatalf("expected 35s stored remaining, got %v", got)
	}
	if got := timer.Max(); got != 30*time.Second {
		t.Fatalf("expected max unchanged at 30s, got %v", got)
	}
}

func TestTimerStopResetsToBase(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timer := NewTimer(clock, 20*time.Second)

	timer.Start(0)
	clock.Advance(5 * time.Second)
	timer.Stop()

	if timer.Running() {
		t.Fatalf("expected stopped timer")
	}
	if got := timer.Remaining(); got != 20*time.Second {
		t.Fatalf("expected base duration after stop, got %v", got)
	}
}

func TestTimerExpires(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timer := NewTimer(clock, 20*time.Second)

	timer.Start(0)
	clock.Advance(time.Minute)

	if timer.Running() {
		t.Fatalf("expected expired timer to report not running")
	}
	if got := timer.Remaining(); got != 0 {
		t.Fatalf("expected 0 remaining, got %v", got)
	}
}

func TestTimerStartWithExplicitDuration(t *testing.T) {
	clock := clockwork.NewFakeClock()
	timer := NewTimer(clock, time.Minute)

	timer.Start(90 * time.Second)
	if got := timer.Remaining(); got != 90*time.Second {
		t.Fatalf("expected 90s remaining, got %v", got)
	}
	if got := timer.Max(); got != 90*time.Second {
		t.Fatalf("expected max 90s, got %v", got)
	}
}
