package monitor

import (
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModel(t *testing.T) {
	model := NewModel("http://localhost:9191", 5*time.Second)
	assert.Equal(t, "http://localhost:9191", model.serverURL)
	assert.Equal(t, 5*time.Second, model.interval)
	assert.NotNil(t, model.client)
	assert.False(t, model.quitting)
}

func TestModel_Init(t *testing.T) {
	model := NewModel("http://localhost:9191", 5*time.Second)
	assert.NotNil(t, model.Init())
}

func TestModel_Update_QuitKey(t *testing.T) {
	model := NewModel("http://localhost:9191", 5*time.Second)

	keyMsg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
	updatedModel, cmd := model.Update(keyMsg)

	m := updatedModel.(Model)
	assert.True(t, m.quitting)
	assert.NotNil(t, cmd)
	assert.Empty(t, m.View())
}

func TestModel_Update_RefreshKey(t *testing.T) {
	model := NewModel("http://localhost:9191", 5*time.Second)

	keyMsg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}
	updatedModel, cmd := model.Update(keyMsg)

	m := updatedModel.(Model)
	assert.False(t, m.quitting)
	assert.NotNil(t, cmd)
}

func TestModel_Update_TickMsg(t *testing.T) {
	model := NewModel("http://localhost:9191", 5*time.Second)

	updatedModel, cmd := model.Update(tickMsg(time.Now()))

	m := updatedModel.(Model)
	assert.False(t, m.quitting)
	assert.NotNil(t, cmd)
}

func TestModel_Update_SnapshotMsg(t *testing.T) {
	model := NewModel("http://localhost:9191", 5*time.Second)
	t0 := time.Date(2026, 1, 1, 12, 34, 56, 0, time.UTC)

	first := &Snapshot{At: t0, Requests: 10, Operations: map[string]float64{"rle": 1}}
	updated, cmd := model.Update(snapshotMsg{snap: first})
	assert.Nil(t, cmd)

	second := &Snapshot{At: t0.Add(time.Minute), Requests: 70, Operations: map[string]float64{"rle": 5}}
	updated, _ = updated.(Model).Update(snapshotMsg{snap: second})

	m := updated.(Model)
	assert.InDelta(t, 60.0, m.stats.RequestRate, 1e-9)
	assert.Equal(t, []float64{0, 60}, m.history.RequestRate)
	assert.Equal(t, 60.0, m.history.RequestRatePeak)
	assert.Same(t, second, m.prev)
	assert.Equal(t, second.At, m.lastUpdate)
	assert.Nil(t, m.err)
}

func TestModel_Update_ErrMsg(t *testing.T) {
	model := NewModel("http://localhost:9191", 5*time.Second)

	updatedModel, cmd := model.Update(errMsg(fmt.Errorf("connection refused")))

	m := updatedModel.(Model)
	require.Error(t, m.err)
	assert.Contains(t, m.err.Error(), "connection refused")
	assert.Nil(t, cmd)

	// A successful scrape clears the error.
	updatedModel, _ = m.Update(snapshotMsg{snap: &Snapshot{At: time.Now()}})
	assert.NoError(t, updatedModel.(Model).err)
}

func TestModel_FetchFromServer(t *testing.T) {
	srv, pm := newMetricsServer(t)
	pm.Operations.WithLabelValues("compress", "stk").Add(7)

	model := NewModel(srv.URL, time.Second)
	msg := fetchMetrics(model.client)()

	snap, ok := msg.(snapshotMsg)
	require.True(t, ok, "got %T: %v", msg, msg)
	assert.Equal(t, 7.0, snap.snap.Operations["stk"])
}

func TestModel_View_WithStats(t *testing.T) {
	model := NewModel("http://localhost:9191", 5*time.Second)
	model.stats = Stats{
		RequestRate:   45.7,
		LatencyP95:    0.0123,
		FallbackRatio: 0.1,
		Operations:    []AlgorithmCount{{"rle", 12}, {"middle-out", 3}},
		Fallbacks:     []AlgorithmCount{{"format", 2}},
		Uptime:        2*time.Hour + 15*time.Minute,
		Goroutines:    42,
		ResidentBytes: 24.5 * 1024 * 1024,
	}
	model.lastUpdate = time.Date(2026, 1, 1, 12, 34, 56, 0, time.UTC)

	view := model.View()

	assert.Contains(t, view, "middleout Monitor")
	assert.Contains(t, view, "12:34:56")
	assert.Contains(t, view, "2h 15m")
	assert.Contains(t, view, "HTTP Requests")
	assert.Contains(t, view, "45.7 req/min")
	assert.Contains(t, view, "12.3ms")
	assert.Contains(t, view, "Codecs")
	assert.Contains(t, view, "rle")
	assert.Contains(t, view, "middle-out")
	assert.Contains(t, view, "10.0%")
	assert.Contains(t, view, "format=")
	assert.Contains(t, view, "System")
	assert.Contains(t, view, "24.5 MB")
	assert.Contains(t, view, "42")
	assert.Contains(t, view, "[q]")
	assert.Contains(t, view, "[r]")
}

func TestModel_View_WithError(t *testing.T) {
	model := NewModel("http://localhost:9191", 5*time.Second)
	model.err = fmt.Errorf("connection refused")

	view := model.View()

	assert.Contains(t, view, "Cannot scrape middleout server")
	assert.Contains(t, view, "connection refused")
	assert.Contains(t, view, "http://localhost:9191")
	assert.Contains(t, view, "[q]")
	assert.Contains(t, view, "[r]")
}

func TestModel_View_NoData(t *testing.T) {
	model := NewModel("http://localhost:9191", 5*time.Second)

	view := model.View()

	assert.Contains(t, view, "middleout Monitor")
	assert.Contains(t, view, "no operations yet")
	assert.Contains(t, view, "[q]")
}

func TestBadges(t *testing.T) {
	assert.Contains(t, getStatusBadge(10, 0), "HEALTHY")
	assert.Contains(t, getStatusBadge(150, 0), "WARN")
	assert.Contains(t, getStatusBadge(10, 0.01), "WARN")
	assert.Contains(t, getStatusBadge(10, 0.2), "ERROR")
	assert.Contains(t, getFallbackBadge(0.5), "✗")
	assert.Contains(t, getFallbackBadge(0), "✓")
}
