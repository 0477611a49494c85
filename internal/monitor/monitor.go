// Package monitor implements the live temperature TUI using BubbleTea.
// It is a pure presentation collaborator: once per second it polls the
// core's windowed snapshot and status, with no mutation path back in.
package monitor

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/luki/tempwatch/internal/alert"
	"github.com/luki/tempwatch/internal/chart"
	"github.com/luki/tempwatch/internal/history"
	"github.com/luki/tempwatch/internal/ingest"
)

const pollInterval = 1 * time.Second

// Sources are the read-only views the TUI polls.
type Sources struct {
	Series *history.Series
	Status func() ingest.Status
	Port   string // transport endpoint name, for the title bar
}

// ── Messages ─────────────────────────────────────────────────────────

type tickMsg time.Time

// ── Model ────────────────────────────────────────────────────────────

// Model is the BubbleTea model for the live monitor.
type Model struct {
	src       Sources
	tiers     alert.Config
	window    time.Duration
	snap      history.Snapshot
	status    ingest.Status
	width     int
	height    int
	scroll    int
	startTime time.Time
	lastPoll  time.Time
	paused    bool
}

// New creates the initial model.
func New(src Sources, tiers alert.Config, window time.Duration) Model {
	return Model{
		src:       src,
		tiers:     tiers,
		window:    window,
		startTime: time.Now(),
	}
}

// ── Commands ─────────────────────────────────────────────────────────

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// ── Init / Update ────────────────────────────────────────────────────

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.scroll > 0 {
				m.scroll--
			}
		case "down", "j":
			m.scroll++
		case "home":
			m.scroll = 0
		case " ", "p":
			m.paused = !m.paused
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		if !m.paused {
			now := time.Time(msg)
			m.snap = m.src.Series.Snapshot(m.window, now)
			m.status = m.src.Status()
			m.lastPoll = now
		}
		return m, tickCmd()
	}

	return m, nil
}

// ── Color palette ────────────────────────────────────────────────────

var (
	colorTitleBg  = lipgloss.Color("17")
	colorTitleFg  = lipgloss.Color("51")
	colorBorder   = lipgloss.Color("62")
	colorLabel    = lipgloss.Color("252")
	colorDim      = lipgloss.Color("240")
	colorFooterBg = lipgloss.Color("235")
	colorOk       = lipgloss.Color("78")
	colorWarn     = lipgloss.Color("220")
	colorHigh     = lipgloss.Color("208")
	colorCrit     = lipgloss.Color("196")
	colorPaused   = lipgloss.Color("196")
)

// ── View ─────────────────────────────────────────────────────────────

func (m Model) View() string {
	if m.width == 0 {
		return "  Initializing..."
	}

	contentWidth := m.width - 2
	if contentWidth < 40 {
		contentWidth = 40
	}

	var sections []string

	sections = append(sections, m.renderTitleBar(contentWidth))

	if banner := m.renderBanner(contentWidth); banner != "" {
		sections = append(sections, banner)
	}

	if len(m.snap.Stamps) == 0 {
		waiting := lipgloss.NewStyle().
			Foreground(colorDim).
			Width(contentWidth).
			Align(lipgloss.Center).
			Padding(2, 0).
			Render("Waiting for a full sensor cycle...")
		sections = append(sections, waiting)
	} else {
		sections = append(sections, m.renderSensorPanel(contentWidth))
	}

	sections = append(sections, m.renderFooter(contentWidth))

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)

	lines := strings.Split(content, "\n")
	visibleLines := m.height
	if visibleLines < 5 {
		visibleLines = 5
	}
	maxScroll := len(lines) - visibleLines
	if maxScroll < 0 {
		maxScroll = 0
	}
	if m.scroll > maxScroll {
		m.scroll = maxScroll
	}

	start := m.scroll
	end := start + visibleLines
	if end > len(lines) {
		end = len(lines)
	}

	return strings.Join(lines[start:end], "\n")
}

func (m Model) renderTitleBar(width int) string {
	logo := lipgloss.NewStyle().
		Bold(true).
		Foreground(colorTitleFg).
		Render("TEMPWATCH")

	// The hottest sensor drives the title bar color, same bands as the
	// charts, so the worst case is visible at a glance.
	maxTemp := lipgloss.NewStyle().
		Bold(true).
		Foreground(chart.TierColor(m.snap.Max, m.tiers)).
		Render(fmt.Sprintf("max %.0f°C", m.snap.Max))

	var statusParts []string
	statusParts = append(statusParts, maxTemp)

	if m.src.Port != "" {
		statusParts = append(statusParts, lipgloss.NewStyle().
			Foreground(colorDim).
			Render(m.src.Port))
	}

	statusParts = append(statusParts, lipgloss.NewStyle().
		Foreground(colorDim).
		Render(fmt.Sprintf("up %s", fmtDuration(time.Since(m.startTime)))))

	if !m.lastPoll.IsZero() {
		statusParts = append(statusParts, lipgloss.NewStyle().
			Foreground(colorDim).
			Render(m.lastPoll.Format("15:04:05")))
	}

	if m.paused {
		statusParts = append(statusParts, lipgloss.NewStyle().
			Foreground(colorPaused).
			Bold(true).
			Render("PAUSED"))
	}

	sep := lipgloss.NewStyle().Foreground(colorDim).Render(" │ ")
	right := strings.Join(statusParts, sep)

	gap := width - lipgloss.Width(logo) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}

	return lipgloss.NewStyle().
		Background(colorTitleBg).
		Width(width).
		Padding(0, 1).
		Render(logo + strings.Repeat(" ", gap) + right)
}

// renderBanner surfaces safety state: pending shutdown, stale link, or
// the most recent alert.
func (m Model) renderBanner(width int) string {
	style := lipgloss.NewStyle().Bold(true).Width(width).Padding(0, 1)

	switch {
	case m.status.ShutdownPending:
		return style.Foreground(colorCrit).
			Render(" SHUTDOWN REQUESTED: " + m.status.LastAlert)
	case m.status.Stale:
		return style.Foreground(colorCrit).
			Render(" SENSOR LINK DOWN: no valid readings, check connections")
	case m.status.LastAlert != "":
		return style.Foreground(colorWarn).
			Render(fmt.Sprintf(" ALERT %s: %s", m.status.LastAlertAt.Format("15:04:05"), m.status.LastAlert))
	}
	return ""
}

func (m Model) renderSensorPanel(totalWidth int) string {
	innerWidth := totalWidth - 4
	if innerWidth < 30 {
		innerWidth = 30
	}

	chartWidth := innerWidth - 46
	if chartWidth < 15 {
		chartWidth = 15
	}
	if chartWidth > 140 {
		chartWidth = 140
	}

	labelW := 8
	tempW := 7

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	valS := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	frameL := lipgloss.NewStyle().Foreground(colorBorder).Render("▕")
	frameR := lipgloss.NewStyle().Foreground(colorBorder).Render("▏")

	rangeMin, rangeMax := m.plotRange()

	var rows []string
	var lastPts []chart.Point

	for _, ss := range m.snap.Sensors {
		label := lipgloss.NewStyle().
			Foreground(colorLabel).
			Width(labelW).
			Render(fmt.Sprintf("Temp %d", ss.Sensor))

		temp := lipgloss.NewStyle().
			Width(tempW).
			Align(lipgloss.Right).
			Render(chart.RenderValue(ss.Last, m.tiers))

		pts := chart.Zip(m.snap.Stamps, ss.Values)
		if len(pts) > 0 {
			lastPts = pts
		}
		spark := chart.RenderSparkline(pts, chartWidth, rangeMin, rangeMax, m.tiers)

		stats := dimS.Render(" avg") + valS.Render(fmt.Sprintf("%5.1f", avg(ss.Values))) +
			dimS.Render(" lo") + valS.Render(fmt.Sprintf("%5.1f", ss.Min)) +
			dimS.Render(" pk") + valS.Render(fmt.Sprintf("%5.1f", ss.Peak))

		rows = append(rows, label+" "+temp+" "+frameL+spark+frameR+stats)
	}

	if lastPts != nil {
		timeline := chart.RenderTimeline(lastPts, chartWidth)
		if strings.TrimSpace(timeline) != "" {
			pad := strings.Repeat(" ", labelW+tempW+2)
			rows = append(rows, pad+" "+timeline)
		}
	}

	scale := chart.RenderScale(m.snap.Max, rangeMin, rangeMax, m.tiers, chartWidth)
	rows = append(rows, strings.Repeat(" ", labelW+tempW+2)+" "+scale)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Width(totalWidth).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// plotRange spans all sensors so the sparklines share one scale, with
// headroom so the critical threshold stays visible.
func (m Model) plotRange() (float64, float64) {
	min := math.MaxFloat64
	max := -math.MaxFloat64
	for _, ss := range m.snap.Sensors {
		if len(ss.Values) == 0 {
			continue
		}
		if ss.Min < min {
			min = ss.Min
		}
		if ss.Peak > max {
			max = ss.Peak
		}
	}
	if min == math.MaxFloat64 {
		return 0, m.tiers.CriticalAt + 10
	}

	min = math.Max(0, min-5)
	if c := m.tiers.CriticalAt + 5; max < c {
		max = c
	}
	return min, max
}

func (m Model) renderFooter(width int) string {
	okS := lipgloss.NewStyle().Foreground(colorOk).Render("██")
	warnS := lipgloss.NewStyle().Foreground(colorWarn).Render("██")
	highS := lipgloss.NewStyle().Foreground(colorHigh).Render("██")
	critS := lipgloss.NewStyle().Foreground(colorCrit).Render("██")
	tickS := lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Render("│")

	dimS := lipgloss.NewStyle().Foreground(colorDim)
	legend := okS + dimS.Render(" ok ") +
		warnS + dimS.Render(" caution ") +
		highS + dimS.Render(" warning ") +
		critS + dimS.Render(" critical ") +
		tickS + dimS.Render(" 1min")

	st := m.status
	counters := dimS.Render(fmt.Sprintf("lines %d  rejects %d", st.Lines, st.ParseErrors))

	keys := dimS.Render("q") + lipgloss.NewStyle().Foreground(colorLabel).Render(":quit") +
		dimS.Render("  j/k") + lipgloss.NewStyle().Foreground(colorLabel).Render(":scroll") +
		dimS.Render("  p") + lipgloss.NewStyle().Foreground(colorLabel).Render(":pause")

	gap := width - lipgloss.Width(legend) - lipgloss.Width(counters) - lipgloss.Width(keys) - 6
	if gap < 2 {
		gap = 2
	}
	half := gap / 2

	return lipgloss.NewStyle().
		Background(colorFooterBg).
		Width(width).
		Padding(0, 1).
		Render(legend + strings.Repeat(" ", half) + counters + strings.Repeat(" ", gap-half) + keys)
}

func avg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func fmtDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	min := d / time.Minute
	d -= min * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, min, s)
	}
	return fmt.Sprintf("%dm%02ds", min, s)
}
