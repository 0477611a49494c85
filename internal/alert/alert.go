// Package alert maps readings to safety-alert actions: tier thresholds,
// per-tier re-announcement gating, and the one-shot shutdown decision.
// The engine emits abstract actions only; collaborators do the I/O.
package alert

import (
	"fmt"
	"sync"
	"time"
)

// Clock abstracts time.Now so rate-limit gating is testable.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Action is an abstract signal for collaborators.
type Action int

const (
	ActionNone Action = iota
	ActionCaution
	ActionWarn
	ActionShutdown
	ActionStale
)

var actionNames = [...]string{
	ActionNone:     "none",
	ActionCaution:  "caution",
	ActionWarn:     "warning",
	ActionShutdown: "shutdown",
	ActionStale:    "stale",
}

func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return "unknown"
}

// Config holds tier thresholds and re-announcement intervals.
type Config struct {
	CautionAt    float64       // degrees, default 80
	WarnAt       float64       // degrees, default 90
	CriticalAt   float64       // degrees, default 100
	CautionEvery time.Duration // default 60s
	WarnEvery    time.Duration // default 10s
}

// DefaultConfig mirrors the deployed thresholds.
func DefaultConfig() Config {
	return Config{
		CautionAt:    80,
		WarnAt:       90,
		CriticalAt:   100,
		CautionEvery: 60 * time.Second,
		WarnEvery:    10 * time.Second,
	}
}

// Engine evaluates readings against the tier ladder. It keeps only its own
// rate-limit bookkeeping, one timestamp per tier, and the shutdown latch.
// Safe for concurrent use.
type Engine struct {
	mu          sync.Mutex
	cfg         Config
	clock       Clock
	lastCaution time.Time
	lastWarn    time.Time
	shutdown    bool
}

// NewEngine creates an Engine. A nil clock uses the wall clock.
func NewEngine(cfg Config, clock Clock) *Engine {
	if clock == nil {
		clock = realClock{}
	}
	return &Engine{cfg: cfg, clock: clock}
}

// Evaluate maps one reading to at most one action. The highest tier whose
// threshold is met wins; a higher tier firing leaves the lower tiers'
// timers untouched. Suppressed announcements return ActionNone, but the
// evaluation itself is never skipped.
func (e *Engine) Evaluate(sensor int, value float64) (Action, string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case value >= e.cfg.CriticalAt:
		if e.shutdown {
			return ActionNone, ""
		}
		e.shutdown = true
		return ActionShutdown, fmt.Sprintf("sensor %d reached %.0f°C, above the %.0f°C shutdown limit", sensor, value, e.cfg.CriticalAt)

	case value >= e.cfg.WarnAt:
		now := e.clock.Now()
		if !e.lastWarn.IsZero() && now.Sub(e.lastWarn) < e.cfg.WarnEvery {
			return ActionNone, ""
		}
		e.lastWarn = now
		return ActionWarn, fmt.Sprintf("sensor %d at %.0f°C, approaching the shutdown limit", sensor, value)

	case value >= e.cfg.CautionAt:
		now := e.clock.Now()
		if !e.lastCaution.IsZero() && now.Sub(e.lastCaution) < e.cfg.CautionEvery {
			return ActionNone, ""
		}
		e.lastCaution = now
		return ActionCaution, fmt.Sprintf("sensor %d running hot at %.0f°C", sensor, value)
	}

	return ActionNone, ""
}

// EvaluateStale produces the link-stale action. It is a tier of its own,
// independent of the temperature ladder; deduplication per silence episode
// is the watchdog's job.
func (e *Engine) EvaluateStale() (Action, string) {
	return ActionStale, "the thermal sensor link is not responding, check all connections"
}

// ShutdownRequested reports whether the one-shot shutdown has fired.
func (e *Engine) ShutdownRequested() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shutdown
}
