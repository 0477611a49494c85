// Package serialport opens the microcontroller link and feeds the core
// newline-delimited text. It also remembers the last used port so the
// next start can reconnect without asking.
package serialport

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/luki/tempwatch/internal/ingest"
)

const (
	dirName      = ".tempwatch"
	lastPortFile = "last_port"
)

// List returns the system's serial port names.
func List() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}

// Port is an open serial connection implementing ingest.LineSource.
// Reads carry a bounded timeout so the ingest loop can re-check its
// cancellation between lines.
type Port struct {
	name string

	mu   sync.Mutex
	port serial.Port
	buf  *lineBuffer
	open bool
}

// Open connects to the named port. The read timeout bounds how long one
// ReadLine may block without a complete line.
func Open(name string, baud int, timeout time.Duration) (*Port, error) {
	sp, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	if err := sp.SetReadTimeout(timeout); err != nil {
		sp.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", name, err)
	}
	return &Port{
		name: name,
		port: sp,
		buf:  newLineBuffer(sp),
		open: true,
	}, nil
}

// Name returns the port's device name.
func (p *Port) Name() string { return p.name }

// ReadLine returns the next complete line without its terminator. With no
// complete line inside the read timeout it returns ingest.ErrTimeout.
func (p *Port) ReadLine() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.open {
		return "", fmt.Errorf("port %s: %w", p.name, os.ErrClosed)
	}
	line, err := p.buf.next()
	if err != nil && err != ingest.ErrTimeout {
		// Device gone; further reads will fail the same way.
		p.closeLocked()
	}
	return line, err
}

// IsOpen reports whether the port is usable.
func (p *Port) IsOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

// Close releases the port. Safe to call more than once.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

func (p *Port) closeLocked() error {
	if !p.open {
		return nil
	}
	p.open = false
	return p.port.Close()
}

// lineBuffer splits a timeout-bounded reader into lines, holding partial
// lines across calls. Serial reads report a timeout as (0, nil).
type lineBuffer struct {
	r       io.Reader
	pending []byte
	chunk   []byte
}

func newLineBuffer(r io.Reader) *lineBuffer {
	return &lineBuffer{r: r, chunk: make([]byte, 256)}
}

func (b *lineBuffer) next() (string, error) {
	for {
		if i := indexNewline(b.pending); i >= 0 {
			line := strings.TrimRight(string(b.pending[:i]), "\r")
			b.pending = b.pending[i+1:]
			return line, nil
		}

		n, err := b.r.Read(b.chunk)
		if n > 0 {
			b.pending = append(b.pending, b.chunk[:n]...)
			continue
		}
		if err != nil {
			return "", err
		}
		return "", ingest.ErrTimeout
	}
}

func indexNewline(p []byte) int {
	for i, c := range p {
		if c == '\n' {
			return i
		}
	}
	return -1
}

// LastPortPath returns where the last used port name is persisted.
func LastPortPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot find home dir: %w", err)
	}
	return filepath.Join(home, dirName, lastPortFile), nil
}

// LoadLast returns the persisted last used port name, or "" when none is
// recorded.
func LoadLast() string {
	path, err := LastPortPath()
	if err != nil {
		return ""
	}
	return loadLast(path)
}

func loadLast(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SaveLast persists the port name after a successful connect.
func SaveLast(name string) error {
	path, err := LastPortPath()
	if err != nil {
		return err
	}
	return saveLast(path, name)
}

func saveLast(path, name string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cannot create data dir: %w", err)
	}
	return os.WriteFile(path, []byte(name+"\n"), 0644)
}
