package history

import (
	"testing"
	"time"
)

func TestBufferEviction(t *testing.T) {
	b := NewBuffer(5)

	for i := 0; i < 7; i++ {
		b.Push(float64(30 + i))
	}

	if b.Len() != 5 {
		t.Errorf("Len: got %d, want 5", b.Len())
	}
	if b.Last() != 36.0 {
		t.Errorf("Last(): got %f, want 36.0", b.Last())
	}
	if b.Min != 30.0 {
		t.Errorf("Min: got %f, want 30.0", b.Min)
	}
	if b.Peak != 36.0 {
		t.Errorf("Peak: got %f, want 36.0", b.Peak)
	}

	// capacity + k pushes must retain exactly the last capacity values,
	// in arrival order
	vals := b.LastN(5)
	want := []float64{32, 33, 34, 35, 36}
	for i, v := range vals {
		if v != want[i] {
			t.Errorf("LastN(5)[%d]: got %f, want %f", i, v, want[i])
		}
	}

	vals = b.LastN(3)
	if len(vals) != 3 || vals[0] != 34 {
		t.Errorf("LastN(3): got %v", vals)
	}
}

func TestBufferAvg(t *testing.T) {
	b := NewBuffer(10)
	for _, v := range []float64{40, 50, 60} {
		b.Push(v)
	}
	if b.Avg() != 50.0 {
		t.Errorf("Avg: got %f, want 50.0", b.Avg())
	}
}

func TestSeriesCycleTimestamps(t *testing.T) {
	s := NewSeries(3, 100)
	base := time.Date(2026, 2, 21, 14, 0, 0, 0, time.Local)

	// Four full cycles: the stamp ring advances only on the last sensor.
	for cycle := 0; cycle < 4; cycle++ {
		at := base.Add(time.Duration(cycle) * time.Second)
		for sensor := 0; sensor < 3; sensor++ {
			s.Record(sensor, float64(40+cycle), at)
		}
	}

	snap := s.Snapshot(10*time.Minute, base.Add(4*time.Second))
	if len(snap.Stamps) != 4 {
		t.Fatalf("Stamps: got %d, want 4", len(snap.Stamps))
	}
	for i, ss := range snap.Sensors {
		if len(ss.Values) != 4 {
			t.Errorf("sensor %d: got %d values, want 4", i, len(ss.Values))
		}
		for j, v := range ss.Values {
			if v != float64(40+j) {
				t.Errorf("sensor %d value %d: got %f, want %f", i, j, v, float64(40+j))
			}
		}
	}
}

func TestSeriesMidCycleDoesNotStamp(t *testing.T) {
	s := NewSeries(3, 100)
	now := time.Date(2026, 2, 21, 14, 0, 0, 0, time.Local)

	s.Record(0, 41, now)
	s.Record(1, 42, now)

	snap := s.Snapshot(10*time.Minute, now)
	if len(snap.Stamps) != 0 {
		t.Errorf("Stamps before cycle close: got %d, want 0", len(snap.Stamps))
	}
	// Buffers hold data but there is nothing plottable without stamps.
	for _, ss := range snap.Sensors {
		if len(ss.Values) != 0 {
			t.Errorf("sensor %d: got %d plottable values, want 0", ss.Sensor, len(ss.Values))
		}
	}
	if snap.Sensors[0].Last != 41 {
		t.Errorf("sensor 0 Last: got %f, want 41", snap.Sensors[0].Last)
	}
}

func TestSeriesSilentSensorShorterSeries(t *testing.T) {
	s := NewSeries(2, 100)
	base := time.Date(2026, 2, 21, 14, 0, 0, 0, time.Local)

	// Sensor 0 reports only in the first two cycles; sensor 1 closes all
	// three. Callers must tolerate differing lengths.
	s.Record(0, 40, base)
	s.Record(1, 50, base)
	s.Record(0, 41, base.Add(time.Second))
	s.Record(1, 51, base.Add(time.Second))
	s.Record(1, 52, base.Add(2*time.Second))

	snap := s.Snapshot(10*time.Minute, base.Add(2*time.Second))
	if len(snap.Stamps) != 3 {
		t.Fatalf("Stamps: got %d, want 3", len(snap.Stamps))
	}
	if len(snap.Sensors[0].Values) != 2 {
		t.Errorf("sensor 0: got %d values, want 2", len(snap.Sensors[0].Values))
	}
	if len(snap.Sensors[1].Values) != 3 {
		t.Errorf("sensor 1: got %d values, want 3", len(snap.Sensors[1].Values))
	}
}

func TestSnapshotWindow(t *testing.T) {
	s := NewSeries(1, 100)
	base := time.Date(2026, 2, 21, 14, 0, 0, 0, time.Local)

	for i := 0; i < 10; i++ {
		s.Record(0, float64(40+i), base.Add(time.Duration(i)*time.Second))
	}

	now := base.Add(9 * time.Second)
	snap := s.Snapshot(5*time.Second, now)
	if len(snap.Stamps) != 6 {
		t.Errorf("windowed Stamps: got %d, want 6", len(snap.Stamps))
	}
	if snap.Stamps[0] != base.Add(4*time.Second) {
		t.Errorf("first stamp: got %v, want %v", snap.Stamps[0], base.Add(4*time.Second))
	}
}

func TestSeriesMax(t *testing.T) {
	s := NewSeries(2, 10)
	now := time.Date(2026, 2, 21, 14, 0, 0, 0, time.Local)

	if s.Max() != 0 {
		t.Errorf("empty Max: got %f, want 0", s.Max())
	}

	s.Record(0, 45, now)
	s.Record(1, 92, now)
	s.Record(1, 60, now)

	if s.Max() != 92 {
		t.Errorf("Max: got %f, want 92", s.Max())
	}
}

func TestRecordIgnoresBadSensor(t *testing.T) {
	s := NewSeries(2, 10)
	now := time.Now()
	s.Record(-1, 50, now)
	s.Record(2, 50, now)
	if s.Max() != 0 {
		t.Errorf("out-of-range Record stored data: Max = %f", s.Max())
	}
}
