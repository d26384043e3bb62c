package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/specflow/internal/config"
	"github.com/fyrsmithlabs/specflow/internal/state"
)

// stateWith builds workflow state with the given phases recorded.
func stateWith(completed, skipped []Phase) *state.WorkflowState {
	st := state.NewState("001-user-auth", config.ModeUnattended)
	for _, p := range completed {
		st.RecordCheckpoint(string(p), &state.Checkpoint{Status: state.StatusCompleted})
	}
	for _, p := range skipped {
		st.RecordCheckpoint(string(p), &state.Checkpoint{Status: state.StatusSkipped})
	}
	return st
}

func TestAllPhases(t *testing.T) {
	phases := AllPhases()

	require.Len(t, phases, 8, "should have 8 phases")
	assert.Equal(t, PhasePrinciples, phases[0], "principles should be first")
	assert.Equal(t, PhaseSpecify, phases[1], "specify should be second")
	assert.Equal(t, PhaseClarify, phases[2], "clarify should be third")
	assert.Equal(t, PhasePlan, phases[3], "plan should be fourth")
	assert.Equal(t, PhaseTasks, phases[4], "tasks should be fifth")
	assert.Equal(t, PhaseAnalyze, phases[5], "analyze should be sixth")
	assert.Equal(t, PhaseImplement, phases[6], "implement should be seventh")
	assert.Equal(t, PhaseDone, phases[7], "done should be last")
}

func TestPhase_Optional(t *testing.T) {
	assert.True(t, PhaseClarify.Optional(), "clarify should be optional")
	assert.True(t, PhaseAnalyze.Optional(), "analyze should be optional")

	for _, p := range []Phase{PhasePrinciples, PhaseSpecify, PhasePlan, PhaseTasks, PhaseImplement, PhaseDone} {
		assert.False(t, p.Optional(), "%s should not be optional", p)
	}
}

func TestPhase_Valid(t *testing.T) {
	for _, p := range AllPhases() {
		assert.True(t, p.Valid(), "%s should be valid", p)
	}
	assert.False(t, Phase("refactor").Valid(), "unknown phase should be invalid")
	assert.False(t, Phase("").Valid(), "empty phase should be invalid")
}

func TestNextPhase(t *testing.T) {
	tests := []struct {
		name      string
		completed []Phase
		skipped   []Phase
		want      Phase
	}{
		{
			name: "fresh state starts at principles",
			want: PhasePrinciples,
		},
		{
			name:      "after specify comes clarify",
			completed: []Phase{PhasePrinciples, PhaseSpecify},
			want:      PhaseClarify,
		},
		{
			name:      "skipped clarify advances to plan",
			completed: []Phase{PhasePrinciples, PhaseSpecify},
			skipped:   []Phase{PhaseClarify},
			want:      PhasePlan,
		},
		{
			name:      "after tasks with analyze skipped comes implement",
			completed: []Phase{PhasePrinciples, PhaseSpecify, PhaseClarify, PhasePlan, PhaseTasks},
			skipped:   []Phase{PhaseAnalyze},
			want:      PhaseImplement,
		},
		{
			name:      "everything done reaches done",
			completed: []Phase{PhasePrinciples, PhaseSpecify, PhasePlan, PhaseTasks, PhaseImplement},
			skipped:   []Phase{PhaseClarify, PhaseAnalyze},
			want:      PhaseDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := stateWith(tt.completed, tt.skipped)
			assert.Equal(t, tt.want, NextPhase(st))
		})
	}
}

func TestNextPhaseAfter(t *testing.T) {
	st := stateWith([]Phase{PhasePrinciples}, nil)
	assert.Equal(t, PhaseClarify, nextPhaseAfter(st, PhaseSpecify),
		"completing specify should land on clarify")

	st = stateWith(
		[]Phase{PhasePrinciples, PhaseSpecify, PhasePlan, PhaseTasks},
		[]Phase{PhaseClarify, PhaseAnalyze},
	)
	assert.Equal(t, PhaseDone, nextPhaseAfter(st, PhaseImplement),
		"completing the last phase should land on done")
}

func TestValidateModeTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr bool
	}{
		{name: "same mode", from: config.ModeStaged, to: config.ModeStaged},
		{name: "unattended to staged tightens", from: config.ModeUnattended, to: config.ModeStaged},
		{name: "unattended to interactive tightens", from: config.ModeUnattended, to: config.ModeInteractive},
		{name: "staged to interactive tightens", from: config.ModeStaged, to: config.ModeInteractive},
		{name: "interactive to staged relaxes", from: config.ModeInteractive, to: config.ModeStaged, wantErr: true},
		{name: "interactive to unattended relaxes", from: config.ModeInteractive, to: config.ModeUnattended, wantErr: true},
		{name: "staged to unattended relaxes", from: config.ModeStaged, to: config.ModeUnattended, wantErr: true},
		{name: "unknown source mode", from: "batch", to: config.ModeStaged, wantErr: true},
		{name: "unknown target mode", from: config.ModeStaged, to: "batch", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateModeTransition(tt.from, tt.to)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidModeTransition)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPausesBefore(t *testing.T) {
	for _, p := range AllPhases() {
		assert.True(t, pausesBefore(config.ModeInteractive, p),
			"interactive should pause before %s", p)
		assert.False(t, pausesBefore(config.ModeUnattended, p),
			"unattended should never pause before %s", p)
	}

	assert.True(t, pausesBefore(config.ModeStaged, PhaseImplement),
		"staged should pause before implement")
	for _, p := range []Phase{PhasePrinciples, PhaseSpecify, PhaseClarify, PhasePlan, PhaseTasks, PhaseAnalyze} {
		assert.False(t, pausesBefore(config.ModeStaged, p),
			"staged should not pause before %s", p)
	}
}

func TestCompletionPercentage(t *testing.T) {
	assert.Equal(t, 0, completionPercentage(stateWith(nil, nil)))

	st := stateWith([]Phase{PhasePrinciples, PhaseSpecify}, []Phase{PhaseClarify})
	assert.Equal(t, 42, completionPercentage(st), "3 of 7 phases accounted for")

	st = stateWith(
		[]Phase{PhasePrinciples, PhaseSpecify, PhasePlan, PhaseTasks, PhaseImplement},
		[]Phase{PhaseClarify, PhaseAnalyze},
	)
	assert.Equal(t, 100, completionPercentage(st))
}
