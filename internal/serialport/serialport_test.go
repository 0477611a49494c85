package serialport

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/luki/tempwatch/internal/ingest"
)

// chunkReader replays scripted reads; a nil chunk models a serial read
// timeout, which surfaces as (0, nil).
type chunkReader struct {
	chunks [][]byte
	pos    int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.chunks) {
		return 0, io.EOF
	}
	chunk := r.chunks[r.pos]
	r.pos++
	if chunk == nil {
		return 0, nil
	}
	n := copy(p, chunk)
	return n, nil
}

func TestLineBufferSplitsAcrossChunks(t *testing.T) {
	b := newLineBuffer(&chunkReader{chunks: [][]byte{
		[]byte("Temp 0C"),
		[]byte(" 50C\r\nTemp 1C 5"),
		[]byte("1C\n"),
	}})

	line, err := b.next()
	if err != nil || line != "Temp 0C 50C" {
		t.Errorf("first line: got %q, %v", line, err)
	}

	line, err = b.next()
	if err != nil || line != "Temp 1C 51C" {
		t.Errorf("second line: got %q, %v", line, err)
	}

	if _, err = b.next(); err != io.EOF {
		t.Errorf("after script: got %v, want EOF", err)
	}
}

func TestLineBufferTimeout(t *testing.T) {
	b := newLineBuffer(&chunkReader{chunks: [][]byte{
		[]byte("Temp 0C 5"), // partial line, then the device goes quiet
		nil,
		[]byte("0C\n"),
	}})

	if _, err := b.next(); !errors.Is(err, ingest.ErrTimeout) {
		t.Fatalf("partial line: got %v, want ErrTimeout", err)
	}

	// The partial line must survive the timeout.
	line, err := b.next()
	if err != nil || line != "Temp 0C 50C" {
		t.Errorf("resumed line: got %q, %v", line, err)
	}
}

func TestLineBufferMultipleLinesOneChunk(t *testing.T) {
	b := newLineBuffer(&chunkReader{chunks: [][]byte{
		[]byte("Temp 0C 50C\nTemp 1C 51C\nTemp 2C 52C\n"),
	}})

	for i, want := range []string{"Temp 0C 50C", "Temp 1C 51C", "Temp 2C 52C"} {
		line, err := b.next()
		if err != nil || line != want {
			t.Errorf("line %d: got %q, %v, want %q", i, line, err, want)
		}
	}
}

func TestLastPortRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), dirName, lastPortFile)

	if got := loadLast(path); got != "" {
		t.Errorf("loadLast before save: got %q, want empty", got)
	}

	if err := saveLast(path, "/dev/ttyUSB0"); err != nil {
		t.Fatalf("saveLast: %v", err)
	}

	if got := loadLast(path); got != "/dev/ttyUSB0" {
		t.Errorf("loadLast: got %q, want /dev/ttyUSB0", got)
	}
}
