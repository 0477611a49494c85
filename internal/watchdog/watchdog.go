// Package watchdog detects silence on the sensor link. It runs on its own
// polling cadence so a blocked transport read cannot starve it.
package watchdog

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

// RealClock is the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Watchdog is a two-state liveness monitor. Armed is the normal state;
// once the link has been silent past the stale threshold it trips, emits a
// single stale signal, and stays quiet until the next valid reading
// re-arms it.
type Watchdog struct {
	mu        sync.Mutex
	last      time.Time
	armed     bool
	threshold time.Duration
	clock     Clock
}

// New creates an armed Watchdog. The initial deadline starts at
// construction time, so an immediate outage is reported only after the
// threshold elapses.
func New(threshold time.Duration, clock Clock) *Watchdog {
	if clock == nil {
		clock = RealClock{}
	}
	return &Watchdog{
		last:      clock.Now(),
		armed:     true,
		threshold: threshold,
		clock:     clock,
	}
}

// NoteValid records a successfully decoded reading. It refreshes the
// deadline and re-arms a tripped watchdog. Decode failures and raw bytes
// must not be reported here.
func (w *Watchdog) NoteValid() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.last = w.clock.Now()
	w.armed = true
}

// Check evaluates the deadline. It returns true exactly once per silence
// episode, on the Armed to Tripped transition.
func (w *Watchdog) Check() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.armed {
		return false
	}
	if w.clock.Now().Sub(w.last) <= w.threshold {
		return false
	}
	w.armed = false
	return true
}

// Armed reports whether the watchdog is in its normal state.
func (w *Watchdog) Armed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.armed
}

// LastValid returns the time of the last valid reading.
func (w *Watchdog) LastValid() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Run polls Check on the given interval until ctx is cancelled, invoking
// onStale for each Armed to Tripped transition.
func (w *Watchdog) Run(ctx context.Context, every time.Duration, onStale func()) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.Check() {
				onStale()
			}
		}
	}
}
