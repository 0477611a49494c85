package watchdog

import (
	"context"
	"testing"
	"time"
)

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newFake() *fakeClock {
	return &fakeClock{now: time.Date(2026, 2, 21, 14, 0, 0, 0, time.Local)}
}

func TestTripsOnceAfterThreshold(t *testing.T) {
	clock := newFake()
	w := New(2500*time.Millisecond, clock)

	if w.Check() {
		t.Error("tripped immediately after startup")
	}

	clock.advance(2 * time.Second)
	if w.Check() {
		t.Error("tripped before threshold elapsed")
	}

	clock.advance(time.Second)
	if !w.Check() {
		t.Error("did not trip after threshold elapsed")
	}

	// Continuing silence must not re-fire.
	clock.advance(10 * time.Second)
	if w.Check() {
		t.Error("fired a second time for the same silence episode")
	}
	if w.Armed() {
		t.Error("still armed after tripping")
	}
}

func TestValidReadingRearms(t *testing.T) {
	clock := newFake()
	w := New(2500*time.Millisecond, clock)

	clock.advance(3 * time.Second)
	if !w.Check() {
		t.Fatal("did not trip")
	}

	w.NoteValid()
	if !w.Armed() {
		t.Error("NoteValid did not re-arm")
	}
	if w.LastValid() != clock.Now() {
		t.Errorf("LastValid: got %v, want %v", w.LastValid(), clock.Now())
	}

	// A fresh silence episode fires again, exactly once.
	clock.advance(3 * time.Second)
	if !w.Check() {
		t.Error("did not trip on second silence episode")
	}
	if w.Check() {
		t.Error("second episode fired twice")
	}
}

func TestNoteValidDefersDeadline(t *testing.T) {
	clock := newFake()
	w := New(2500*time.Millisecond, clock)

	for i := 0; i < 5; i++ {
		clock.advance(2 * time.Second)
		w.NoteValid()
		if w.Check() {
			t.Fatalf("tripped at step %d despite fresh readings", i)
		}
	}
}

func TestRunInvokesOnStale(t *testing.T) {
	w := New(10*time.Millisecond, RealClock{})

	stale := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go w.Run(ctx, time.Millisecond, func() {
		select {
		case stale <- struct{}{}:
		default:
		}
	})

	select {
	case <-stale:
	case <-time.After(time.Second):
		t.Fatal("Run never reported a stale link")
	}
}
