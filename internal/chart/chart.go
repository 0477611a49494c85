// Package chart provides sparkline rendering for sensor history with
// tier-colored blocks, minute tick marks, timeline labels, and a
// threshold scale bar.
package chart

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/luki/tempwatch/internal/alert"
)

var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Point is one plottable sample: a value on the shared cycle-time axis.
type Point struct {
	Value float64
	Time  time.Time
}

// Zip pairs a snapshot's values with the trailing stamps of the shared
// time axis. Sensors mid-cycle carry fewer values than stamps.
func Zip(stamps []time.Time, values []float64) []Point {
	if len(values) > len(stamps) {
		values = values[len(values)-len(stamps):]
	}
	offset := len(stamps) - len(values)
	pts := make([]Point, len(values))
	for i, v := range values {
		pts[i] = Point{Value: v, Time: stamps[offset+i]}
	}
	return pts
}

// TierColor returns the color for a temperature under the alert tiers.
func TierColor(v float64, cfg alert.Config) lipgloss.Color {
	switch {
	case v >= cfg.CriticalAt:
		return lipgloss.Color("196") // red
	case v >= cfg.WarnAt:
		return lipgloss.Color("208") // orange
	case v >= cfg.CautionAt:
		return lipgloss.Color("220") // yellow
	default:
		return lipgloss.Color("78") // soft green
	}
}

// RenderSparkline renders points as color-coded blocks with a subtle pipe
// at each minute boundary.
func RenderSparkline(points []Point, width int, rangeMin, rangeMax float64, cfg alert.Config) string {
	if width <= 0 {
		return ""
	}

	if len(points) == 0 {
		dim := lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
		return dim.Render(strings.Repeat("╌", width))
	}

	if len(points) > width {
		points = points[len(points)-width:]
	}

	padLen := width - len(points)
	span := rangeMax - rangeMin
	if span <= 0 {
		span = 1
	}

	var sb strings.Builder

	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
	for i := 0; i < padLen; i++ {
		sb.WriteString(dim.Render("╌"))
	}

	tickStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))

	for i, p := range points {
		norm := (p.Value - rangeMin) / span
		norm = math.Max(0, math.Min(1, norm))

		idx := int(norm * 7)
		if idx > 7 {
			idx = 7
		}

		if isMinuteTick(points, i) {
			sb.WriteString(tickStyle.Render("│"))
		} else {
			ch := string(sparkBlocks[idx])
			style := lipgloss.NewStyle().Foreground(TierColor(p.Value, cfg))
			if p.Value >= cfg.CriticalAt {
				style = style.Bold(true)
			}
			sb.WriteString(style.Render(ch))
		}
	}

	return sb.String()
}

func isMinuteTick(points []Point, i int) bool {
	p := points[i]
	if p.Time.IsZero() {
		return false
	}
	if p.Time.Second() == 0 {
		return true
	}
	return i > 0 && !points[i-1].Time.IsZero() && p.Time.Minute() != points[i-1].Time.Minute()
}

// RenderTimeline renders the time labels under the sparkline, showing
// HH:MM at each minute tick position.
func RenderTimeline(points []Point, width int) string {
	if len(points) == 0 || width <= 0 {
		return ""
	}

	if len(points) > width {
		points = points[len(points)-width:]
	}

	padLen := width - len(points)

	line := make([]rune, width)
	for i := range line {
		line[i] = ' '
	}

	tickStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))

	type tick struct {
		pos   int
		label string
	}
	var ticks []tick

	for i, p := range points {
		if isMinuteTick(points, i) {
			ticks = append(ticks, tick{pos: padLen + i, label: p.Time.Format("15:04")})
		}
	}

	lastEnd := -1
	for _, t := range ticks {
		start := t.pos - 2
		if start < 0 {
			start = 0
		}
		end := start + len(t.label)
		if end > width {
			continue
		}
		if start <= lastEnd+1 {
			continue
		}
		for j, ch := range t.label {
			line[start+j] = ch
		}
		lastEnd = end
	}

	return tickStyle.Render(string(line))
}

// RenderScale renders a scale bar showing the current value against the
// caution, warning and critical thresholds.
func RenderScale(current, rangeMin, rangeMax float64, cfg alert.Config, width int) string {
	if width <= 0 {
		return ""
	}

	span := rangeMax - rangeMin
	if span <= 0 {
		span = 1
	}
	pos := func(v float64) int {
		p := int(float64(width-1) * (v - rangeMin) / span)
		if p < 0 || v <= rangeMin {
			return -1
		}
		if p >= width {
			return -1
		}
		return p
	}

	cautionPos := pos(cfg.CautionAt)
	warnPos := pos(cfg.WarnAt)
	critPos := pos(cfg.CriticalAt)

	curPos := int(float64(width-1) * (current - rangeMin) / span)
	if curPos < 0 {
		curPos = 0
	}
	if curPos >= width {
		curPos = width - 1
	}

	var sb strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i == curPos:
			style := lipgloss.NewStyle().Foreground(TierColor(current, cfg)).Bold(true)
			sb.WriteString(style.Render("◆"))
		case i == critPos:
			sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("▪"))
		case i == warnPos:
			sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Render("▪"))
		case i == cautionPos:
			sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Render("▪"))
		default:
			sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("236")).Render("·"))
		}
	}

	return sb.String()
}

// RenderValue renders a temperature value with tier color coding.
func RenderValue(temp float64, cfg alert.Config) string {
	s := fmt.Sprintf("%5.1f°C", temp)
	style := lipgloss.NewStyle().Foreground(TierColor(temp, cfg))
	if temp >= cfg.CriticalAt {
		style = style.Bold(true)
	}
	return style.Render(s)
}
