package report

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ryanbrace/loadforge/internal/engine"
)

func TestDashboardModelShowsInitializingBeforeFirstResize(t *testing.T) {
	m := dashboardModel{}
	if view := m.View(); view != "Initializing..." {
		t.Fatalf("want the model to render a placeholder before its first WindowSizeMsg, got %q", view)
	}
}

func TestDashboardModelQuitsOnQ(t *testing.T) {
	m := dashboardModel{}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("want a quit command returned for the 'q' key")
	}
}

func TestDashboardModelAppliesWindowSizeAndSnapshot(t *testing.T) {
	source := fakeSource{snap: engine.NodeStats{Steps: []engine.StepStats{
		{ScenarioName: "checkout", StepName: "pay", OKCount: 3, RPS: 1.5},
	}}}
	m := dashboardModel{source: source}

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = next.(dashboardModel)
	if !m.ready {
		t.Fatal("want the model ready after a WindowSizeMsg")
	}

	next, cmd := m.Update(snapshotMsg(source.snap))
	m = next.(dashboardModel)
	if cmd == nil {
		t.Fatal("want the model to schedule the next poll after consuming a snapshot")
	}

	view := m.View()
	if !strings.Contains(view, "checkout") || !strings.Contains(view, "pay") {
		t.Fatalf("want the rendered view to include the snapshot's rows, got %q", view)
	}
}
