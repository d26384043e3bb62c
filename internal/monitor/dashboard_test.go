package monitor

import (
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/specflow/internal/artifact"
	"github.com/fyrsmithlabs/specflow/internal/orchestrator"
	"github.com/fyrsmithlabs/specflow/internal/state"
	"github.com/fyrsmithlabs/specflow/internal/tasks"
)

func testModel(t *testing.T) Model {
	t.Helper()
	c, err := NewCollector("001-user-auth", state.NewMemoryStore(), testSet(t))
	require.NoError(t, err)
	return NewModel(c, 5*time.Second, nil)
}

// testSnapshot is a mid-workflow snapshot for view assertions.
func testSnapshot() Snapshot {
	return Snapshot{
		Feature:      "001-user-auth",
		Mode:         "staged",
		RunID:        "run_42",
		CurrentPhase: orchestrator.PhasePlan,
		Phases: []PhaseRow{
			{Phase: orchestrator.PhasePrinciples, Status: state.StatusCompleted},
			{Phase: orchestrator.PhaseSpecify, Status: state.StatusCompleted},
			{Phase: orchestrator.PhaseClarify, Status: state.StatusSkipped},
			{Phase: orchestrator.PhasePlan, Status: state.StatusPending},
			{Phase: orchestrator.PhaseTasks, Status: state.StatusPending},
			{Phase: orchestrator.PhaseAnalyze, Status: state.StatusPending},
			{Phase: orchestrator.PhaseImplement, Status: state.StatusPending},
		},
		Tasks: &tasks.Progress{
			Completed:   3,
			Total:       10,
			Percentage:  30,
			NextPending: &tasks.Item{ID: "T004", Text: "Wire storage"},
		},
		Clarifications: 2,
		AvailableDocs:  []artifact.Kind{artifact.KindResearch},
		StartedAt:      time.Now().Add(-10 * time.Minute),
	}
}

func TestNewModel(t *testing.T) {
	model := testModel(t)
	assert.NotNil(t, model.collector)
	assert.Equal(t, 5*time.Second, model.interval)
	assert.False(t, model.quitting)
	assert.Empty(t, model.history)
	assert.Nil(t, model.taskUpdates)
}

func TestModel_Init(t *testing.T) {
	model := testModel(t)
	cmd := model.Init()

	// Init should return a tick command to start auto-refresh
	assert.NotNil(t, cmd)
}

func TestModel_Update_QuitKey(t *testing.T) {
	model := testModel(t)

	keyMsg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
	updatedModel, cmd := model.Update(keyMsg)

	m := updatedModel.(Model)
	assert.True(t, m.quitting)
	assert.NotNil(t, cmd) // Should return tea.Quit
}

func TestModel_Update_RefreshKey(t *testing.T) {
	model := testModel(t)

	keyMsg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}
	updatedModel, cmd := model.Update(keyMsg)

	m := updatedModel.(Model)
	assert.False(t, m.quitting)
	assert.NotNil(t, cmd) // Should return fetchSnapshot command
}

func TestModel_Update_TickMsg(t *testing.T) {
	model := testModel(t)

	msg := tickMsg(time.Now())
	updatedModel, cmd := model.Update(msg)

	m := updatedModel.(Model)
	assert.False(t, m.quitting)
	assert.NotNil(t, cmd) // Should return batch command (tick + fetchSnapshot)
}

func TestModel_Update_SnapshotMsg(t *testing.T) {
	model := testModel(t)

	updatedModel, cmd := model.Update(snapshotMsg(testSnapshot()))

	m := updatedModel.(Model)
	assert.Equal(t, "001-user-auth", m.snapshot.Feature)
	assert.Equal(t, orchestrator.PhasePlan, m.snapshot.CurrentPhase)
	assert.Equal(t, []float64{30}, m.history, "task percentage feeds the trend history")
	assert.False(t, m.lastUpdate.IsZero())
	assert.Nil(t, m.err)
	assert.Nil(t, cmd)
}

func TestModel_Update_SnapshotMsg_ClearsError(t *testing.T) {
	model := testModel(t)
	model.err = fmt.Errorf("state unreadable")

	updatedModel, _ := model.Update(snapshotMsg(testSnapshot()))

	m := updatedModel.(Model)
	assert.Nil(t, m.err, "a successful collect clears a previous error")
}

func TestModel_Update_TaskMsg(t *testing.T) {
	updates := make(chan tasks.Progress, 1)
	c, err := NewCollector("001-user-auth", state.NewMemoryStore(), testSet(t))
	require.NoError(t, err)
	model := NewModel(c, 5*time.Second, updates)

	msg := taskMsg(tasks.Progress{Completed: 4, Total: 10, Percentage: 40})
	updatedModel, cmd := model.Update(msg)

	m := updatedModel.(Model)
	require.NotNil(t, m.snapshot.Tasks)
	assert.Equal(t, 4, m.snapshot.Tasks.Completed)
	assert.Equal(t, []float64{40}, m.history)
	assert.NotNil(t, cmd, "the task subscription re-arms after each update")
}

func TestModel_Update_ErrMsg(t *testing.T) {
	model := testModel(t)

	msg := errMsg(fmt.Errorf("state file corrupted"))
	updatedModel, cmd := model.Update(msg)

	m := updatedModel.(Model)
	assert.NotNil(t, m.err)
	assert.Contains(t, m.err.Error(), "state file corrupted")
	assert.Nil(t, cmd)
}

func TestListenForTasks_ClosedChannel(t *testing.T) {
	updates := make(chan tasks.Progress)
	close(updates)

	msg := listenForTasks(updates)()
	assert.Nil(t, msg, "a closed channel ends the subscription silently")
}

func TestAppendToHistory_Capped(t *testing.T) {
	var history []float64
	for i := 0; i < historySize+10; i++ {
		history = appendToHistory(history, float64(i))
	}
	assert.Len(t, history, historySize)
	assert.Equal(t, float64(10), history[0], "oldest entries fall off")
}

func TestModel_View_WithSnapshot(t *testing.T) {
	model := testModel(t)
	model.snapshot = testSnapshot()
	model.lastUpdate = time.Date(2024, 1, 1, 12, 34, 56, 0, time.UTC)

	view := model.View()

	assert.Contains(t, view, "specflow Monitor")
	assert.Contains(t, view, "12:34:56")
	assert.Contains(t, view, "Workflow")
	assert.Contains(t, view, "001-user-auth")
	assert.Contains(t, view, "principles")
	assert.Contains(t, view, "implement")
	assert.Contains(t, view, "◀", "the current phase is marked")
	assert.Contains(t, view, "Tasks")
	assert.Contains(t, view, "3/10 tasks")
	assert.Contains(t, view, "T004")
	assert.Contains(t, view, "Artifacts")
	assert.Contains(t, view, "research.md")
	assert.Contains(t, view, "2 unresolved")
	assert.Contains(t, view, "[q]")
	assert.Contains(t, view, "[r]")
}

func TestModel_View_Done(t *testing.T) {
	model := testModel(t)
	snap := testSnapshot()
	snap.CurrentPhase = orchestrator.PhaseDone
	snap.Done = true
	for i := range snap.Phases {
		snap.Phases[i].Status = state.StatusCompleted
	}
	model.snapshot = snap

	view := model.View()
	assert.Contains(t, view, "DONE")
	assert.NotContains(t, view, "◀", "a finished workflow has no current phase")
}

func TestModel_View_Failed(t *testing.T) {
	model := testModel(t)
	snap := testSnapshot()
	snap.Failed = true
	snap.Phases[3].Status = state.StatusFailed
	model.snapshot = snap

	view := model.View()
	assert.Contains(t, view, "FAILED")
}

func TestModel_View_WithError(t *testing.T) {
	model := testModel(t)
	model.snapshot.Feature = "001-user-auth"
	model.err = fmt.Errorf("workflow state corrupted")

	view := model.View()

	assert.Contains(t, view, "Cannot read workflow state")
	assert.Contains(t, view, "workflow state corrupted")
	assert.Contains(t, view, "001-user-auth")
	assert.Contains(t, view, "[q]")
	assert.Contains(t, view, "[r]")
}

func TestModel_View_NoData(t *testing.T) {
	model := testModel(t)
	// No snapshot collected yet, no error

	view := model.View()

	assert.Contains(t, view, "specflow Monitor")
	assert.Contains(t, view, "no task list yet")
	assert.Contains(t, view, "[q]")
}

func TestModel_View_Quitting(t *testing.T) {
	model := testModel(t)
	model.quitting = true

	assert.Empty(t, model.View())
}
