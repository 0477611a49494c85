package logbook

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLogBookRoundTrip(t *testing.T) {
	dir := t.TempDir()

	b, err := NewAt(dir)
	if err != nil {
		t.Fatalf("NewAt: %v", err)
	}
	defer b.Close()

	now := time.Date(2026, 2, 21, 14, 30, 0, 0, time.Local)

	if err := b.Reading(3, 47.0, now); err != nil {
		t.Fatalf("Reading: %v", err)
	}
	if err := b.Event(EventParseError, `malformed packet (field-count): "Temp 3C"`, now.Add(time.Second)); err != nil {
		t.Fatalf("Event: %v", err)
	}
	if err := b.Event(EventShutdown, "sensor 2 reached 101°C", now.Add(2*time.Second)); err != nil {
		t.Fatalf("Event: %v", err)
	}
	b.Close()

	loaded, err := LoadFile(filepath.Join(dir, "2026-02-21.csv"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(loaded))
	}

	if loaded[0].Event != EventReading || loaded[0].Sensor != 3 || loaded[0].Value != 47.0 {
		t.Errorf("reading entry: got %+v", loaded[0])
	}
	if loaded[1].Event != EventParseError || loaded[1].Sensor != -1 {
		t.Errorf("parse-error entry: got %+v", loaded[1])
	}
	if loaded[2].Event != EventShutdown || loaded[2].Detail == "" {
		t.Errorf("shutdown entry: got %+v", loaded[2])
	}
}

func TestDailyRotation(t *testing.T) {
	dir := t.TempDir()

	b, err := NewAt(dir)
	if err != nil {
		t.Fatalf("NewAt: %v", err)
	}
	defer b.Close()

	day1 := time.Date(2026, 2, 21, 23, 59, 0, 0, time.Local)
	day2 := time.Date(2026, 2, 22, 0, 1, 0, 0, time.Local)

	b.Reading(0, 45, day1)
	b.Reading(0, 46, day2)
	b.Close()

	days, err := ListDays(dir)
	if err != nil {
		t.Fatalf("ListDays: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("expected 2 day files, got %d: %v", len(days), days)
	}
	if days[0] != "2026-02-22" || days[1] != "2026-02-21" {
		t.Errorf("days not newest first: %v", days)
	}
}
