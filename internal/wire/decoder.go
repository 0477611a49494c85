// Package wire decodes the microcontroller's line-oriented temperature
// protocol into validated readings. Two grammar variants exist in the
// field; a Decoder accepts exactly one, chosen at construction.
package wire

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Grammar selects which wire variant a Decoder accepts.
type Grammar int

const (
	// GrammarCompact is `Temp <n>C <v>C`: tag, integer sensor index and
	// integer value, each carrying one trailing suffix letter.
	GrammarCompact Grammar = iota
	// GrammarLabeled is `Sensor <n> : <v><unit>`: tag and index before a
	// colon, possibly fractional value with a trailing unit token after it.
	GrammarLabeled
)

// String returns the config-file spelling of the grammar.
func (g Grammar) String() string {
	if g == GrammarLabeled {
		return "labeled"
	}
	return "compact"
}

// ParseGrammar maps a config-file spelling to a Grammar.
func ParseGrammar(s string) (Grammar, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "compact", "":
		return GrammarCompact, nil
	case "labeled":
		return GrammarLabeled, nil
	}
	return GrammarCompact, fmt.Errorf("unknown protocol grammar %q", s)
}

// ErrKind classifies why a line was rejected.
type ErrKind int

const (
	ErrEncoding ErrKind = iota
	ErrMalformedPrefix
	ErrFieldCount
	ErrSensorOutOfRange
	ErrValueOutOfRange
)

var errKindNames = [...]string{
	ErrEncoding:         "encoding",
	ErrMalformedPrefix:  "malformed-prefix",
	ErrFieldCount:       "field-count",
	ErrSensorOutOfRange: "sensor-out-of-range",
	ErrValueOutOfRange:  "value-out-of-range",
}

func (k ErrKind) String() string {
	if int(k) < len(errKindNames) {
		return errKindNames[k]
	}
	return "unknown"
}

// ParseError reports a rejected line. The raw line is retained so
// collaborators can log it verbatim.
type ParseError struct {
	Kind ErrKind
	Line string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed packet (%s): %q", e.Kind, e.Line)
}

// Reading is one validated temperature report.
type Reading struct {
	Sensor int     // index in [0, sensor count)
	Value  float64 // degrees Celsius
}

// Config bounds what a Decoder accepts.
type Config struct {
	Sensors  int     // configured sensor count N
	MinValue float64 // lowest plausible temperature
	MaxValue float64 // highest plausible temperature
	Grammar  Grammar
}

// Decoder turns raw lines into Readings. It is a pure function of the
// line and its configuration and is safe for concurrent use.
type Decoder struct {
	cfg Config
}

// NewDecoder creates a Decoder for the given bounds and grammar.
func NewDecoder(cfg Config) *Decoder {
	return &Decoder{cfg: cfg}
}

const compactTag = "Temp"

// Decode parses one line, already stripped of its terminator. On failure
// the returned error is a *ParseError classifying the rejection.
func (d *Decoder) Decode(line string) (Reading, error) {
	if !utf8.ValidString(line) {
		return Reading{}, &ParseError{Kind: ErrEncoding, Line: line}
	}
	if d.cfg.Grammar == GrammarLabeled {
		return d.decodeLabeled(line)
	}
	return d.decodeCompact(line)
}

// decodeCompact handles `Temp <n>C <v>C`.
func (d *Decoder) decodeCompact(line string) (Reading, error) {
	if !strings.HasPrefix(line, compactTag) {
		return Reading{}, &ParseError{Kind: ErrMalformedPrefix, Line: line}
	}
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return Reading{}, &ParseError{Kind: ErrFieldCount, Line: line}
	}
	if fields[0] != compactTag {
		return Reading{}, &ParseError{Kind: ErrMalformedPrefix, Line: line}
	}

	sensor, err := strconv.Atoi(stripSuffix(fields[1]))
	if err != nil || sensor < 0 || sensor >= d.cfg.Sensors {
		return Reading{}, &ParseError{Kind: ErrSensorOutOfRange, Line: line}
	}

	value, err := strconv.Atoi(stripSuffix(fields[2]))
	if err != nil || float64(value) < d.cfg.MinValue || float64(value) > d.cfg.MaxValue {
		return Reading{}, &ParseError{Kind: ErrValueOutOfRange, Line: line}
	}

	return Reading{Sensor: sensor, Value: float64(value)}, nil
}

// decodeLabeled handles `<tag> <n> : <v><unit>`.
func (d *Decoder) decodeLabeled(line string) (Reading, error) {
	before, after, found := strings.Cut(line, ":")
	if !found {
		return Reading{}, &ParseError{Kind: ErrMalformedPrefix, Line: line}
	}

	head := strings.Fields(before)
	if len(head) != 2 {
		return Reading{}, &ParseError{Kind: ErrFieldCount, Line: line}
	}

	tail := strings.Fields(after)
	if len(tail) != 1 {
		return Reading{}, &ParseError{Kind: ErrFieldCount, Line: line}
	}

	sensor, err := strconv.Atoi(head[1])
	if err != nil || sensor < 0 || sensor >= d.cfg.Sensors {
		return Reading{}, &ParseError{Kind: ErrSensorOutOfRange, Line: line}
	}

	value, err := strconv.ParseFloat(strings.TrimRight(tail[0], unitLetters), 64)
	if err != nil || value < d.cfg.MinValue || value > d.cfg.MaxValue {
		return Reading{}, &ParseError{Kind: ErrValueOutOfRange, Line: line}
	}

	return Reading{Sensor: sensor, Value: value}, nil
}

// unitLetters covers the unit tokens seen on the wire (C, F, °C).
const unitLetters = "CFcf°"

// stripSuffix drops the single trailing suffix letter of a compact field.
// An empty result is left for the numeric parse to reject.
func stripSuffix(field string) string {
	if len(field) < 2 {
		return ""
	}
	return field[:len(field)-1]
}
