// Package logbook handles persistent CSV logging of readings and safety
// events with daily file rotation. Data is stored in ~/.tempwatch/log/.
package logbook

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	dirName    = ".tempwatch"
	logSubdir  = "log"
	timeLayout = "2006-01-02T15:04:05"
	fileLayout = "2006-01-02"
)

// Event kinds recorded alongside readings.
const (
	EventReading    = "reading"
	EventParseError = "parse-error"
	EventTransport  = "transport-error"
	EventAlert      = "alert"
	EventStale      = "stale"
	EventShutdown   = "shutdown"
)

// Book appends readings and events to a daily CSV file:
//
//	~/.tempwatch/log/YYYY-MM-DD.csv with rows time,event,sensor,value,detail
//
// Safe for concurrent use; the ingest loop and the watchdog both write.
type Book struct {
	mu      sync.Mutex
	dir     string
	current *os.File
	writer  *csv.Writer
	curDate string
}

// Entry is a single row from a log file. Sensor is -1 for rows that do
// not concern one sensor.
type Entry struct {
	Time   time.Time
	Event  string
	Sensor int
	Value  float64
	Detail string
}

// New creates a log book in the default data directory.
func New() (*Book, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot find home dir: %w", err)
	}
	return NewAt(filepath.Join(home, dirName, logSubdir))
}

// NewAt creates a log book rooted at dir, creating it if needed.
func NewAt(dir string) (*Book, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create log dir: %w", err)
	}
	return &Book{dir: dir}, nil
}

// Reading logs one accepted temperature reading.
func (b *Book) Reading(sensor int, value float64, t time.Time) error {
	return b.append(t, EventReading, strconv.Itoa(sensor), fmt.Sprintf("%.1f", value), "")
}

// Event logs a non-reading row: parse errors, alerts, stale link,
// shutdown, transport trouble.
func (b *Book) Event(event, detail string, t time.Time) error {
	return b.append(t, event, "", "", detail)
}

func (b *Book) append(t time.Time, event, sensor, value, detail string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	dateStr := t.Format(fileLayout)

	if b.curDate != dateStr || b.current == nil {
		b.closeLocked()
		path := filepath.Join(b.dir, dateStr+".csv")
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		b.current = f
		b.writer = csv.NewWriter(f)
		b.curDate = dateStr

		info, _ := f.Stat()
		if info.Size() == 0 {
			b.writer.Write([]string{"time", "event", "sensor", "value", "detail"})
		}
	}

	b.writer.Write([]string{t.Format(timeLayout), event, sensor, value, detail})
	b.writer.Flush()
	return b.writer.Error()
}

// Close flushes and closes the current file.
func (b *Book) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closeLocked()
}

func (b *Book) closeLocked() {
	if b.writer != nil {
		b.writer.Flush()
	}
	if b.current != nil {
		b.current.Close()
		b.current = nil
	}
}

// ListDays returns available log dates (newest first).
func ListDays(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var days []string
	for i := len(entries) - 1; i >= 0; i-- {
		name := entries[i].Name()
		if strings.HasSuffix(name, ".csv") {
			days = append(days, strings.TrimSuffix(name, ".csv"))
		}
	}
	return days, nil
}

// LoadFile reads all entries from a log file.
func LoadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var out []Entry
	for i, row := range records {
		if i == 0 && len(row) > 0 && row[0] == "time" {
			continue
		}
		if len(row) < 5 {
			continue
		}

		t, err := time.ParseInLocation(timeLayout, row[0], time.Local)
		if err != nil {
			continue
		}

		sensor := -1
		if row[2] != "" {
			sensor, _ = strconv.Atoi(row[2])
		}
		value := 0.0
		if row[3] != "" {
			value, _ = strconv.ParseFloat(row[3], 64)
		}

		out = append(out, Entry{
			Time:   t,
			Event:  row[1],
			Sensor: sensor,
			Value:  value,
			Detail: row[4],
		})
	}

	return out, nil
}
