package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
	historySize     = 30
	topAlgorithms   = 5
)

// Model represents the BubbleTea dashboard model
type Model struct {
	serverURL  string
	interval   time.Duration
	client     *MetricsClient
	lastUpdate time.Time
	prev       *Snapshot
	stats      Stats
	history    History
	err        error
	quitting   bool

	// Progress bars
	memoryProgress  progress.Model
	requestProgress progress.Model
}

// History keeps the last historySize values of each plotted series.
type History struct {
	RequestRate   []float64
	LatencyMS     []float64
	FallbackRatio []float64
	MemoryMB      []float64

	// Peak values for progress bars
	RequestRatePeak float64
	MemoryMax       float64
}

// Lipgloss styles (k9s-inspired color scheme)
var (
	// Header style - bright cyan background, bold black text
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	// Border style - dim gray (#444444) - currently unused
	// borderStyle = lipgloss.NewStyle().
	// 		BorderForeground(lipgloss.Color("238"))

	// Section title style - bold bright cyan
	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	// Label style - dim cyan
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	// Value style - bright white
	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	// Dim style - for units and secondary info
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	// Status styles with unicode symbols
	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	// Container style - rounded border with dim gray
	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)

	// Footer style - bright keys on dim background
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	// Sparkline container
	sparklineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51"))
)

// NewModel creates a new dashboard model polling serverURL every interval.
func NewModel(serverURL string, interval time.Duration) Model {
	memProg := progress.New(
		progress.WithGradient("#00ff00", "#ffff00"),
		progress.WithWidth(40),
	)

	reqProg := progress.New(
		progress.WithGradient("#00ffff", "#ff00ff"),
		progress.WithWidth(40),
	)

	return Model{
		serverURL:       serverURL,
		interval:        interval,
		client:          NewMetricsClient(serverURL),
		memoryProgress:  memProg,
		requestProgress: reqProg,
		history: History{
			RequestRate:     make([]float64, 0, historySize),
			LatencyMS:       make([]float64, 0, historySize),
			FallbackRatio:   make([]float64, 0, historySize),
			MemoryMB:        make([]float64, 0, historySize),
			RequestRatePeak: 1.0,
			MemoryMax:       512.0,
		},
	}
}

// getLatencyBadge returns a colored status badge based on latency
func getLatencyBadge(latencyMS float64) string {
	if latencyMS < 100 {
		return healthyStyle.Render("[✓]")
	} else if latencyMS < 500 {
		return warningStyle.Render("[⚠]")
	}
	return errorStyle.Render("[✗]")
}

// getStatusBadge returns the overall badge from latency and 5xx share.
func getStatusBadge(latencyMS, errorRatio float64) string {
	switch {
	case errorRatio >= 0.05 || latencyMS >= 500:
		return errorStyle.Render("✗ ERROR")
	case errorRatio > 0 || latencyMS >= 100:
		return warningStyle.Render("⚠ WARN")
	default:
		return healthyStyle.Render("✓ HEALTHY")
	}
}

// getFallbackBadge grades the share of decompress calls that degraded.
func getFallbackBadge(ratio float64) string {
	if ratio < 0.05 {
		return healthyStyle.Render("[✓]")
	} else if ratio < 0.25 {
		return warningStyle.Render("[⚠]")
	}
	return errorStyle.Render("[✗]")
}

// appendToHistory appends a value to history, maintaining max size
func appendToHistory(history []float64, value float64) []float64 {
	history = append(history, value)
	if len(history) > historySize {
		history = history[1:]
	}
	return history
}

// createSparkline creates a sparkline chart from historical data
func createSparkline(data []float64) string {
	if len(data) == 0 {
		return dimStyle.Render(fmt.Sprintf("%*s", sparklineWidth, "no data"))
	}

	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range data {
		spark.Push(v)
	}
	spark.Draw()

	return sparklineStyle.Render(spark.View())
}

// Message types
type tickMsg time.Time
type snapshotMsg struct{ snap *Snapshot }
type errMsg error

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tick(m.interval),
		fetchMetrics(m.client),
	)
}

// tick creates a tick command for auto-refresh
func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchMetrics scrapes the server once.
func fetchMetrics(client *MetricsClient) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		snap, err := client.Scrape(ctx)
		if err != nil {
			return errMsg(err)
		}
		return snapshotMsg{snap: snap}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, fetchMetrics(m.client)
		}

	case tickMsg:
		return m, tea.Batch(
			tick(m.interval),
			fetchMetrics(m.client),
		)

	case snapshotMsg:
		m = m.apply(msg.snap)
		return m, nil

	case errMsg:
		m.err = error(msg)
		return m, nil
	}

	return m, nil
}

// apply folds a new snapshot into the stats and history.
func (m Model) apply(snap *Snapshot) Model {
	st := Compute(m.prev, snap)

	h := m.history
	h.RequestRate = appendToHistory(h.RequestRate, st.RequestRate)
	h.LatencyMS = appendToHistory(h.LatencyMS, st.LatencyP95*1000)
	h.FallbackRatio = appendToHistory(h.FallbackRatio, st.FallbackRatio*100)
	h.MemoryMB = appendToHistory(h.MemoryMB, st.ResidentBytes/(1<<20))
	if st.RequestRate > h.RequestRatePeak {
		h.RequestRatePeak = st.RequestRate
	}

	m.stats = st
	m.history = h
	m.prev = snap
	m.lastUpdate = snap.At
	m.err = nil
	return m
}

// View renders the dashboard
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.err != nil {
		return m.renderError()
	}

	return m.renderDashboard()
}

// renderError renders the error view
func (m Model) renderError() string {
	header := headerStyle.Render("middleout Metrics Dashboard")

	var content string
	content += "\n"
	content += errorStyle.Render("⚠ Cannot scrape middleout server") + "\n"
	content += "\n"
	content += dimStyle.Render("URL: ") + valueStyle.Render(m.serverURL) + "\n"
	content += dimStyle.Render("Error: ") + errorStyle.Render(m.err.Error()) + "\n"
	content += "\n"
	content += dimStyle.Render("Please ensure:") + "\n"
	content += dimStyle.Render("  1. middleout serve is running") + "\n"
	content += dimStyle.Render("  2. --server points at its host:port") + "\n"
	content += "\n"
	content += footerStyle.Render("[q] quit  [r] retry") + "\n"

	return containerStyle.Render(header + "\n" + content)
}

// renderDashboard renders the main dashboard view with sparklines and progress bars
func (m Model) renderDashboard() string {
	var content string
	st := m.stats

	lastUpdateStr := "Never"
	if !m.lastUpdate.IsZero() {
		lastUpdateStr = m.lastUpdate.Format("3:04:05 PM")
	}
	latencyMS := st.LatencyP95 * 1000

	header := headerStyle.Render(" middleout Monitor ")
	headerLine := fmt.Sprintf("%s   %s   %s   %s",
		getStatusBadge(latencyMS, st.ErrorRatio),
		dimStyle.Render("Uptime:"),
		valueStyle.Render(FormatUptime(st.Uptime)),
		dimStyle.Render(lastUpdateStr))

	content += header + "\n"
	content += headerLine + "\n"

	// HTTP
	content += "\n" + sectionStyle.Render("┃ HTTP Requests") + "\n"

	rateBadge := getLatencyBadge(latencyMS)
	content += labelStyle.Render("  Rate: ") +
		valueStyle.Render(FormatRate(st.RequestRate)) +
		" " + rateBadge +
		"   " + createSparkline(m.history.RequestRate) + "\n"

	content += labelStyle.Render("  Latency (p95): ") +
		valueStyle.Render(FormatLatency(st.LatencyP95)) +
		" " + rateBadge +
		"   " + createSparkline(m.history.LatencyMS) + "\n"

	ratePercent := 0.0
	if m.history.RequestRatePeak > 0 {
		ratePercent = min(st.RequestRate/m.history.RequestRatePeak, 1.0)
	}
	content += labelStyle.Render("  Load: ") +
		m.requestProgress.ViewAs(ratePercent) +
		" " + dimStyle.Render(fmt.Sprintf("%.0f%%", ratePercent*100)) + "\n"

	content += labelStyle.Render("  Errors: ") +
		valueStyle.Render(FormatRatio(st.ErrorRatio)) +
		"  " + labelStyle.Render("Rate limited: ") +
		valueStyle.Render(FormatCount(st.RateLimited)) + "\n"

	// Codecs
	content += "\n" + sectionStyle.Render("┃ Codecs") + "\n"
	if len(st.Operations) == 0 {
		content += dimStyle.Render("  no operations yet") + "\n"
	}
	for i, op := range st.Operations {
		if i == topAlgorithms {
			break
		}
		content += labelStyle.Render(fmt.Sprintf("  %-12s", op.Name)) +
			valueStyle.Render(FormatCount(op.Count)) + "\n"
	}

	content += labelStyle.Render("  Fallbacks: ") +
		valueStyle.Render(FormatRatio(st.FallbackRatio)) +
		" " + getFallbackBadge(st.FallbackRatio) +
		"   " + createSparkline(m.history.FallbackRatio) + "\n"
	for _, fb := range st.Fallbacks {
		content += dimStyle.Render(fmt.Sprintf("    %s=", fb.Name)) +
			valueStyle.Render(FormatCount(fb.Count)) + "\n"
	}

	// System
	content += "\n" + sectionStyle.Render("┃ System") + "\n"

	memoryPercent := 0.0
	if m.history.MemoryMax > 0 {
		memoryPercent = min(st.ResidentBytes/(1<<20)/m.history.MemoryMax, 1.0)
	}
	content += labelStyle.Render("  Memory: ") +
		m.memoryProgress.ViewAs(memoryPercent) +
		" " + dimStyle.Render(FormatBytes(st.ResidentBytes)) + "\n"

	content += labelStyle.Render("  Goroutines: ") +
		valueStyle.Render(fmt.Sprintf("%d", st.Goroutines)) + "\n"

	footer := footerKeyStyle.Render("[q]") + footerStyle.Render(" quit  ") +
		footerKeyStyle.Render("[r]") + footerStyle.Render(" refresh  ") +
		footerStyle.Render(fmt.Sprintf("Auto: %v", m.interval))

	content += "\n" + footer

	return containerStyle.Render(content)
}

// Run starts the dashboard in the terminal and blocks until the user quits.
func Run(ctx context.Context, serverURL string, interval time.Duration) error {
	p := tea.NewProgram(NewModel(serverURL, interval), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
