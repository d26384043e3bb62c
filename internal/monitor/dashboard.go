package monitor

import (
	"fmt"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/specflow/internal/state"
	"github.com/fyrsmithlabs/specflow/internal/tasks"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
	historySize     = 30
)

// Model represents the BubbleTea dashboard model
type Model struct {
	collector  *Collector
	interval   time.Duration
	lastUpdate time.Time
	snapshot   Snapshot
	err        error
	quitting   bool

	// Task completion progress bar and its history ring for the sparkline
	taskProgress progress.Model
	history      []float64

	// Live task updates, nil when no watcher is attached
	taskUpdates <-chan tasks.Progress
}

// Lipgloss styles (k9s-inspired color scheme)
var (
	// Header style - bright cyan background, bold black text
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

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

// NewModel creates a new dashboard model. taskUpdates may be nil; when a
// live task watcher feeds it, the task section refreshes between ticks.
func NewModel(collector *Collector, interval time.Duration, taskUpdates <-chan tasks.Progress) Model {
	taskProg := progress.New(
		progress.WithGradient("#00ff00", "#ffff00"),
		progress.WithWidth(40),
	)

	return Model{
		collector:    collector,
		interval:     interval,
		quitting:     false,
		taskProgress: taskProg,
		history:      make([]float64, 0, historySize),
		taskUpdates:  taskUpdates,
	}
}

// getStatusBadge returns the overall workflow status badge
func getStatusBadge(snap Snapshot) string {
	if snap.Failed {
		return errorStyle.Render("✗ FAILED")
	}
	if snap.Done {
		return healthyStyle.Render("✓ DONE")
	}
	return warningStyle.Render("● ACTIVE")
}

// getStatusStyle returns the style for a phase checkpoint status
func getStatusStyle(status state.Status) lipgloss.Style {
	switch status {
	case state.StatusCompleted:
		return healthyStyle
	case state.StatusFailed:
		return errorStyle
	case state.StatusInProgress:
		return warningStyle
	default:
		return dimStyle
	}
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

	return sparklineStyle.Render(spark.View())
}

// Message types
type tickMsg time.Time
type snapshotMsg Snapshot
type taskMsg tasks.Progress
type errMsg error

// Init initializes the model
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tick(m.interval),
		fetchSnapshot(m.collector),
	}
	if m.taskUpdates != nil {
		cmds = append(cmds, listenForTasks(m.taskUpdates))
	}
	return tea.Batch(cmds...)
}

// tick creates a tick command for auto-refresh
func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchSnapshot collects the workflow state and artifacts
func fetchSnapshot(c *Collector) tea.Cmd {
	return func() tea.Msg {
		snap, err := c.Collect()
		if err != nil {
			return errMsg(err)
		}
		return snapshotMsg(snap)
	}
}

// listenForTasks waits for the next live task update. A closed channel
// ends the subscription without a message.
func listenForTasks(updates <-chan tasks.Progress) tea.Cmd {
	return func() tea.Msg {
		progress, ok := <-updates
		if !ok {
			return nil
		}
		return taskMsg(progress)
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
			return m, fetchSnapshot(m.collector)
		}

	case tickMsg:
		// Auto-refresh triggered
		return m, tea.Batch(
			tick(m.interval),
			fetchSnapshot(m.collector),
		)

	case snapshotMsg:
		m.snapshot = Snapshot(msg)
		if m.snapshot.Tasks != nil {
			m.history = appendToHistory(m.history, m.snapshot.Tasks.Percentage)
		}
		m.lastUpdate = time.Now()
		m.err = nil
		return m, nil

	case taskMsg:
		// Live update from the task watcher; re-arm the subscription
		progress := tasks.Progress(msg)
		m.snapshot.Tasks = &progress
		m.history = appendToHistory(m.history, progress.Percentage)
		m.lastUpdate = time.Now()
		return m, listenForTasks(m.taskUpdates)

	case errMsg:
		m.err = error(msg)
		return m, nil
	}

	return m, nil
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
	header := headerStyle.Render("specflow Monitor")

	var content string
	content += "\n"
	content += errorStyle.Render("⚠ Cannot read workflow state") + "\n"
	content += "\n"
	content += dimStyle.Render("Feature: ") + valueStyle.Render(m.snapshot.Feature) + "\n"
	content += dimStyle.Render("Error: ") + errorStyle.Render(m.err.Error()) + "\n"
	content += "\n"
	content += dimStyle.Render("Please ensure:") + "\n"
	content += dimStyle.Render("  1. the repository is initialized (specflow init)") + "\n"
	content += dimStyle.Render("  2. a workflow has started (specflow run)") + "\n"
	content += "\n"
	content += footerStyle.Render("[q] quit  [r] retry") + "\n"

	box := containerStyle.Render(header + "\n" + content)
	return box
}

// renderDashboard renders the main dashboard view
func (m Model) renderDashboard() string {
	var content string

	lastUpdateStr := "Never"
	if !m.lastUpdate.IsZero() {
		lastUpdateStr = m.lastUpdate.Format("3:04:05 PM")
	}

	header := headerStyle.Render(" specflow Monitor ")
	statusBadge := getStatusBadge(m.snapshot)
	headerLine := fmt.Sprintf("%s   %s %s   %s %s   %s",
		statusBadge,
		dimStyle.Render("Mode:"),
		valueStyle.Render(modeOrDefault(m.snapshot.Mode)),
		dimStyle.Render("Started:"),
		valueStyle.Render(FormatAge(m.snapshot.StartedAt)),
		dimStyle.Render(lastUpdateStr))

	content += header + "\n"
	content += headerLine + "\n"

	// Workflow section: one row per phase with its checkpoint status
	content += "\n" + sectionStyle.Render("┃ Workflow") + "\n"
	content += labelStyle.Render("  Feature: ") +
		valueStyle.Render(m.snapshot.Feature)
	if m.snapshot.RunID != "" {
		content += "  " + dimStyle.Render(m.snapshot.RunID)
	}
	content += "\n"

	for _, row := range m.snapshot.Phases {
		style := getStatusStyle(row.Status)
		line := "  " + style.Render(StatusSymbol(row.Status)) + " "
		if row.Phase == m.snapshot.CurrentPhase && !m.snapshot.Done {
			line += valueStyle.Render(string(row.Phase)) + " " + warningStyle.Render("◀")
		} else {
			line += labelStyle.Render(string(row.Phase))
		}
		content += line + "\n"
	}

	// Tasks section with progress bar and completion sparkline
	content += "\n" + sectionStyle.Render("┃ Tasks") + "\n"
	if m.snapshot.Tasks == nil {
		content += dimStyle.Render("  no task list yet") + "\n"
	} else {
		t := m.snapshot.Tasks
		percent := t.Percentage / 100.0
		if percent > 1.0 {
			percent = 1.0
		}
		content += labelStyle.Render("  Progress: ") +
			m.taskProgress.ViewAs(percent) +
			" " + dimStyle.Render(FormatTasks(t.Completed, t.Total)) + "\n"

		if t.NextPending != nil {
			content += labelStyle.Render("  Next: ") +
				valueStyle.Render(t.NextPending.ID) +
				" " + dimStyle.Render(t.NextPending.Text) + "\n"
		}

		taskSparkline := createSparkline(m.history)
		content += labelStyle.Render("  Trend: ") + taskSparkline + "\n"
	}

	// Artifacts section
	content += "\n" + sectionStyle.Render("┃ Artifacts") + "\n"
	docsStr := "none"
	if len(m.snapshot.AvailableDocs) > 0 {
		docsStr = ""
		for i, k := range m.snapshot.AvailableDocs {
			if i > 0 {
				docsStr += ", "
			}
			docsStr += k.DisplayName()
		}
	}
	content += labelStyle.Render("  Docs: ") + valueStyle.Render(docsStr) + "\n"

	clarStr := fmt.Sprintf("%d", m.snapshot.Clarifications)
	if m.snapshot.Clarifications > 0 {
		content += labelStyle.Render("  Clarifications: ") +
			warningStyle.Render(clarStr+" unresolved") + "\n"
	} else {
		content += labelStyle.Render("  Clarifications: ") +
			healthyStyle.Render("none") + "\n"
	}

	// Footer with keyboard shortcuts
	footer := footerKeyStyle.Render("[q]") + footerStyle.Render(" quit  ") +
		footerKeyStyle.Render("[r]") + footerStyle.Render(" refresh  ") +
		footerStyle.Render(fmt.Sprintf("Auto: %v", m.interval))

	content += "\n" + footer

	return containerStyle.Render(content)
}

func modeOrDefault(mode string) string {
	if mode == "" {
		return "unknown"
	}
	return mode
}
