package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ryanbrace/loadforge/internal/engine"
)

var (
	colorPrimary = lipgloss.Color("#5F5FD7")
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

type snapshotMsg engine.NodeStats

// dashboardModel is the Bubble Tea model for the in-terminal dashboard.
type dashboardModel struct {
	source   Source
	snapshot engine.NodeStats

	width  int
	height int
	ready  bool
}

func (m dashboardModel) Init() tea.Cmd {
	return waitForSnapshot(m.source)
}

func waitForSnapshot(source Source) tea.Cmd {
	return tea.Tick(PollInterval, func(time.Time) tea.Msg {
		return snapshotMsg(source.LiveSnapshot())
	})
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case snapshotMsg:
		m.snapshot = engine.NodeStats(msg)
		return m, waitForSnapshot(m.source)
	}

	return m, nil
}

func (m dashboardModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	w := m.width
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(colorPrimary).
		Width(w).
		Padding(0, 1).
		Render(" loadforge")

	var rows []string
	rows = append(rows, fmt.Sprintf("%-18s %-18s %6s %6s %8s %8s %8s %8s",
		"scenario", "step", "ok", "fail", "min_ms", "mean_ms", "max_ms", "rps"))
	for _, s := range m.snapshot.Steps {
		rows = append(rows, fmt.Sprintf("%-18s %-18s %6d %6d %8.1f %8.1f %8.1f %8.1f",
			s.ScenarioName, s.StepName, s.OKCount, s.FailCount, s.MinMS, s.MeanMS, s.MaxMS, s.RPS))
	}
	table := boxStyle.Width(w - 2).Render(strings.Join(rows, "\n"))

	help := helpStyle.Render("  q: quit")

	return strings.Join([]string{title, table, help}, "\n")
}

// DashboardSink renders a full-screen Bubble Tea dashboard. Run blocks
// until the user quits or ctx is cancelled.
type DashboardSink struct{}

// NewDashboardSink builds a DashboardSink.
func NewDashboardSink() *DashboardSink {
	return &DashboardSink{}
}

func (d *DashboardSink) Run(ctx context.Context, source Source) {
	model := dashboardModel{source: source}
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, _ = p.Run()
}

var _ Sink = (*DashboardSink)(nil)
