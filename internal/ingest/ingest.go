// Package ingest owns the telemetry control loop: it pulls raw lines from
// the transport and drives the decoder, history, watchdog and alert engine
// in sequence. Collaborators are notified through one-way sinks and the
// presentation layer reads immutable status/history snapshots.
package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/luki/tempwatch/internal/alert"
	"github.com/luki/tempwatch/internal/history"
	"github.com/luki/tempwatch/internal/watchdog"
	"github.com/luki/tempwatch/internal/wire"
)

// ErrTimeout is returned by a LineSource when no complete line arrived
// within its read timeout. The loop treats it as a normal idle tick.
var ErrTimeout = errors.New("read timed out")

// LineSource is the transport boundary: a line-oriented byte source whose
// reads block with a bounded timeout. Opening, device selection and
// reconnecting belong to the transport collaborator.
type LineSource interface {
	ReadLine() (string, error)
	IsOpen() bool
}

// Sinks are the collaborator callbacks invoked by the loop. Any field may
// be nil. Sinks receive plain data and must not call back into the loop.
type Sinks struct {
	OnParseError     func(kind wire.ErrKind, raw string)
	OnReading        func(sensor int, value float64, at time.Time)
	OnAlert          func(action alert.Action, msg string)
	OnStale          func(msg string)
	OnShutdown       func(msg string)
	OnTransportError func(err error)
}

// Status is a point-in-time summary for the presentation collaborator.
type Status struct {
	Lines           uint64
	Readings        uint64
	ParseErrors     uint64
	TransportErrors uint64
	Stale           bool
	LastAlert       string
	LastAlertAt     time.Time
	ShutdownPending bool
}

// Loop wires the core components together. It exclusively owns mutation
// of the Series and Watchdog.
type Loop struct {
	src     LineSource
	dec     *wire.Decoder
	series  *history.Series
	wd      *watchdog.Watchdog
	engine  *alert.Engine
	sinks   Sinks
	clock   watchdog.Clock
	backoff time.Duration

	mu     sync.Mutex
	status Status
}

// Config assembles a Loop.
type Config struct {
	Source  LineSource
	Decoder *wire.Decoder
	Series  *history.Series
	Watch   *watchdog.Watchdog
	Engine  *alert.Engine
	Sinks   Sinks
	Clock   watchdog.Clock // nil means wall clock
	Backoff time.Duration  // delay after a transport error, default 100ms
}

// New creates a Loop.
func New(cfg Config) *Loop {
	if cfg.Clock == nil {
		cfg.Clock = watchdog.RealClock{}
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 100 * time.Millisecond
	}
	return &Loop{
		src:     cfg.Source,
		dec:     cfg.Decoder,
		series:  cfg.Series,
		wd:      cfg.Watch,
		engine:  cfg.Engine,
		sinks:   cfg.Sinks,
		clock:   cfg.Clock,
		backoff: cfg.Backoff,
	}
}

// Run reads and processes lines until ctx is cancelled. Transport errors
// are reported and retried on a short backoff; they never stop the loop.
func (l *Loop) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		if !l.src.IsOpen() {
			l.noteTransportError(errors.New("transport closed"))
			if !sleepCtx(ctx, l.backoff) {
				return
			}
			continue
		}

		line, err := l.src.ReadLine()
		switch {
		case errors.Is(err, ErrTimeout):
			continue
		case err != nil:
			l.noteTransportError(err)
			if !sleepCtx(ctx, l.backoff) {
				return
			}
			continue
		}

		if line == "" {
			continue
		}
		l.handleLine(line)
	}
}

// handleLine runs one iteration: decode, record, feed the watchdog,
// evaluate alerts. A decode failure leaves history and watchdog untouched.
func (l *Loop) handleLine(line string) {
	l.mu.Lock()
	l.status.Lines++
	l.mu.Unlock()

	reading, err := l.dec.Decode(line)
	if err != nil {
		var perr *wire.ParseError
		if errors.As(err, &perr) {
			l.mu.Lock()
			l.status.ParseErrors++
			l.mu.Unlock()
			if l.sinks.OnParseError != nil {
				l.sinks.OnParseError(perr.Kind, perr.Line)
			}
		}
		return
	}

	now := l.clock.Now()
	l.series.Record(reading.Sensor, reading.Value, now)
	l.wd.NoteValid()

	l.mu.Lock()
	l.status.Readings++
	l.status.Stale = false
	l.mu.Unlock()

	if l.sinks.OnReading != nil {
		l.sinks.OnReading(reading.Sensor, reading.Value, now)
	}

	action, msg := l.engine.Evaluate(reading.Sensor, reading.Value)
	l.dispatch(action, msg)
}

// HandleStale is wired to the watchdog's trip signal. It runs on the
// watchdog goroutine, concurrently with Run.
func (l *Loop) HandleStale() {
	_, msg := l.engine.EvaluateStale()

	l.mu.Lock()
	l.status.Stale = true
	l.mu.Unlock()

	if l.sinks.OnStale != nil {
		l.sinks.OnStale(msg)
	}
}

func (l *Loop) dispatch(action alert.Action, msg string) {
	if action == alert.ActionNone {
		return
	}

	l.mu.Lock()
	l.status.LastAlert = msg
	l.status.LastAlertAt = l.clock.Now()
	if action == alert.ActionShutdown {
		l.status.ShutdownPending = true
	}
	l.mu.Unlock()

	if l.sinks.OnAlert != nil {
		l.sinks.OnAlert(action, msg)
	}
	if action == alert.ActionShutdown && l.sinks.OnShutdown != nil {
		l.sinks.OnShutdown(msg)
	}
}

func (l *Loop) noteTransportError(err error) {
	l.mu.Lock()
	l.status.TransportErrors++
	l.mu.Unlock()
	if l.sinks.OnTransportError != nil {
		l.sinks.OnTransportError(err)
	}
}

// Status returns a copy of the loop's counters and flags.
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// sleepCtx sleeps for d unless ctx ends first, reporting whether the
// caller should keep running.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
