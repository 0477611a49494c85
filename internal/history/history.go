// Package history provides bounded per-sensor temperature history with a
// shared cycle-timestamp axis and a time-windowed snapshot view.
package history

import (
	"math"
	"sync"
	"time"
)

// Buffer is a fixed-capacity circular ring of temperature values for one
// sensor. Push is O(1); the oldest value is overwritten once full.
type Buffer struct {
	values []float64
	head   int // index of the oldest value
	count  int
	Min    float64
	Peak   float64
}

// NewBuffer creates a ring buffer with the given capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		values: make([]float64, capacity),
		Min:    math.MaxFloat64,
		Peak:   -math.MaxFloat64,
	}
}

// Push adds a value, evicting the oldest once at capacity.
func (b *Buffer) Push(v float64) {
	if b.count < len(b.values) {
		b.values[(b.head+b.count)%len(b.values)] = v
		b.count++
	} else {
		b.values[b.head] = v
		b.head = (b.head + 1) % len(b.values)
	}

	if v < b.Min {
		b.Min = v
	}
	if v > b.Peak {
		b.Peak = v
	}
}

// Len returns the number of stored values.
func (b *Buffer) Len() int { return b.count }

// Last returns the most recent value, or 0 if empty.
func (b *Buffer) Last() float64 {
	if b.count == 0 {
		return 0
	}
	return b.values[(b.head+b.count-1)%len(b.values)]
}

// Avg returns the average of all stored values.
func (b *Buffer) Avg() float64 {
	if b.count == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range b.LastN(b.count) {
		sum += v
	}
	return sum / float64(b.count)
}

// LastN returns the last n values in arrival order.
func (b *Buffer) LastN(n int) []float64 {
	if n <= 0 || b.count == 0 {
		return nil
	}
	if n > b.count {
		n = b.count
	}
	out := make([]float64, n)
	start := b.count - n
	for i := 0; i < n; i++ {
		out[i] = b.values[(b.head+start+i)%len(b.values)]
	}
	return out
}

// stampRing is a fixed-capacity circular ring of cycle timestamps.
type stampRing struct {
	stamps []time.Time
	head   int
	count  int
}

func newStampRing(capacity int) *stampRing {
	if capacity < 1 {
		capacity = 1
	}
	return &stampRing{stamps: make([]time.Time, capacity)}
}

func (r *stampRing) push(t time.Time) {
	if r.count < len(r.stamps) {
		r.stamps[(r.head+r.count)%len(r.stamps)] = t
		r.count++
	} else {
		r.stamps[r.head] = t
		r.head = (r.head + 1) % len(r.stamps)
	}
}

// since returns, in order, the stamps not older than cutoff.
func (r *stampRing) since(cutoff time.Time) []time.Time {
	var out []time.Time
	for i := 0; i < r.count; i++ {
		t := r.stamps[(r.head+i)%len(r.stamps)]
		if !t.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

// SensorSeries is one sensor's slice of a Snapshot. Values pair with the
// trailing len(Values) entries of the snapshot's Stamps.
type SensorSeries struct {
	Sensor int
	Values []float64
	Min    float64
	Peak   float64
	Last   float64
}

// Snapshot is an immutable windowed view over a Series. Sensors may carry
// differing numbers of values; with no stamps in the window there are no
// plottable points even if individual buffers hold data.
type Snapshot struct {
	Stamps  []time.Time
	Sensors []SensorSeries
	Max     float64 // highest retained value across all sensors
}

// Series owns one Buffer per sensor plus the shared cycle-timestamp ring.
// The ingestion loop is the sole writer; readers take Snapshots. Safe for
// concurrent use.
type Series struct {
	mu      sync.RWMutex
	buffers []*Buffer
	stamps  *stampRing
}

// NewSeries creates a Series for sensorCount sensors, each retaining up to
// capacity values. The shared timestamp ring has the same capacity.
func NewSeries(sensorCount, capacity int) *Series {
	buffers := make([]*Buffer, sensorCount)
	for i := range buffers {
		buffers[i] = NewBuffer(capacity)
	}
	return &Series{
		buffers: buffers,
		stamps:  newStampRing(capacity),
	}
}

// Sensors returns the configured sensor count.
func (s *Series) Sensors() int { return len(s.buffers) }

// Record appends a value to the sensor's buffer. A reading for the last
// sensor index closes a sampling cycle and advances the shared timestamp
// ring; readings for other sensors do not.
func (s *Series) Record(sensor int, value float64, at time.Time) {
	if sensor < 0 || sensor >= len(s.buffers) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.buffers[sensor].Push(value)
	if sensor == len(s.buffers)-1 {
		s.stamps.push(at)
	}
}

// Max returns the highest value seen across all sensors, or 0 when nothing
// has been recorded.
func (s *Series) Max() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxLocked()
}

func (s *Series) maxLocked() float64 {
	max := -math.MaxFloat64
	seen := false
	for _, b := range s.buffers {
		if b.Len() > 0 && b.Peak > max {
			max = b.Peak
			seen = true
		}
	}
	if !seen {
		return 0
	}
	return max
}

// Snapshot returns the trailing window of history ending at now. It never
// mutates the Series; the returned slices are copies.
func (s *Series) Snapshot(window time.Duration, now time.Time) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stamps := s.stamps.since(now.Add(-window))

	snap := Snapshot{
		Stamps:  stamps,
		Sensors: make([]SensorSeries, len(s.buffers)),
		Max:     s.maxLocked(),
	}
	for i, b := range s.buffers {
		n := b.Len()
		if n > len(stamps) {
			n = len(stamps)
		}
		snap.Sensors[i] = SensorSeries{
			Sensor: i,
			Values: b.LastN(n),
			Min:    b.Min,
			Peak:   b.Peak,
			Last:   b.Last(),
		}
	}
	return snap
}
