package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/specflow/internal/artifact"
	"github.com/fyrsmithlabs/specflow/internal/config"
	"github.com/fyrsmithlabs/specflow/internal/feature"
	"github.com/fyrsmithlabs/specflow/internal/state"
	"github.com/fyrsmithlabs/specflow/internal/tasks"
)

// Workflow errors.
var (
	// ErrPhaseExecutionFailed indicates the phase executor reported a
	// failure. The failure is checkpointed and resume re-enters the
	// same phase.
	ErrPhaseExecutionFailed = errors.New("phase execution failed")

	// ErrInvalidModeTransition indicates a resume tried to relax the
	// supervision level the workflow was started with.
	ErrInvalidModeTransition = errors.New("invalid mode transition")
)

// Phase is one step of the workflow pipeline.
type Phase string

const (
	// PhasePrinciples establishes the project principles document.
	PhasePrinciples Phase = "principles"

	// PhaseSpecify produces the feature specification.
	PhaseSpecify Phase = "specify"

	// PhaseClarify resolves ambiguity markers in the specification.
	// Optional.
	PhaseClarify Phase = "clarify"

	// PhasePlan produces the implementation plan and design documents.
	PhasePlan Phase = "plan"

	// PhaseTasks derives the executable task list from the plan.
	PhaseTasks Phase = "tasks"

	// PhaseAnalyze cross-checks spec, plan, and tasks for consistency.
	// Optional.
	PhaseAnalyze Phase = "analyze"

	// PhaseImplement executes the task list.
	PhaseImplement Phase = "implement"

	// PhaseDone is the terminal marker. Reaching it ends the workflow
	// and releases the state file.
	PhaseDone Phase = "done"
)

// AllPhases returns the canonical phase order, terminal phase last.
func AllPhases() []Phase {
	return []Phase{
		PhasePrinciples,
		PhaseSpecify,
		PhaseClarify,
		PhasePlan,
		PhaseTasks,
		PhaseAnalyze,
		PhaseImplement,
		PhaseDone,
	}
}

// Optional reports whether the phase may be explicitly skipped.
func (p Phase) Optional() bool {
	return p == PhaseClarify || p == PhaseAnalyze
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	for _, known := range AllPhases() {
		if p == known {
			return true
		}
	}
	return false
}

// NextPhase returns the first canonical phase not yet completed or
// skipped, PhaseDone when every prior phase is accounted for.
func NextPhase(st *state.WorkflowState) Phase {
	for _, p := range AllPhases() {
		if p == PhaseDone {
			break
		}
		if st.IsCompleted(string(p)) || st.IsSkipped(string(p)) {
			continue
		}
		return p
	}
	return PhaseDone
}

// nextPhaseAfter is NextPhase with completed treated as already done, so
// the persisted current phase lands in the same write as the checkpoint.
func nextPhaseAfter(st *state.WorkflowState, completed Phase) Phase {
	for _, p := range AllPhases() {
		if p == PhaseDone {
			break
		}
		if p == completed || st.IsCompleted(string(p)) || st.IsSkipped(string(p)) {
			continue
		}
		return p
	}
	return PhaseDone
}

// modeRank orders execution modes by supervision level.
func modeRank(mode string) int {
	switch mode {
	case config.ModeUnattended:
		return 0
	case config.ModeStaged:
		return 1
	case config.ModeInteractive:
		return 2
	default:
		return -1
	}
}

// ValidateModeTransition permits keeping or tightening supervision when
// resuming a workflow. Relaxing it mid-run would drop pause guarantees
// the run was started under.
func ValidateModeTransition(from, to string) error {
	fromRank := modeRank(from)
	if fromRank < 0 {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidModeTransition, from)
	}
	toRank := modeRank(to)
	if toRank < 0 {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidModeTransition, to)
	}
	if toRank < fromRank {
		return fmt.Errorf("%w: cannot relax %s to %s mid-run", ErrInvalidModeTransition, from, to)
	}
	return nil
}

// pausesBefore reports whether mode requires a continue signal before
// phase runs.
func pausesBefore(mode string, phase Phase) bool {
	switch mode {
	case config.ModeInteractive:
		return true
	case config.ModeStaged:
		return phase == PhaseImplement
	default:
		return false
	}
}

// completionPercentage is the share of non-terminal phases completed or
// skipped.
func completionPercentage(st *state.WorkflowState) int {
	total := len(AllPhases()) - 1
	done := len(st.CompletedPhases) + len(st.SkippedPhases)
	if done > total {
		done = total
	}
	return done * 100 / total
}

// ExecutionResult is the executor's metadata for a completed phase.
type ExecutionResult struct {
	Metadata map[string]string `json:"metadata,omitempty"`
}

// PhaseExecutor performs the actual work of one phase. Execution is an
// opaque blocking call; all artifact content generation happens behind
// this interface.
type PhaseExecutor interface {
	Execute(ctx context.Context, phase Phase, set *artifact.Set) (*ExecutionResult, error)
}

// FeatureResolver locates the active feature.
type FeatureResolver interface {
	ResolveCurrent(ctx context.Context, override string) (*feature.Feature, error)
}

// ConfirmFunc is consulted before a pausing phase runs. Returning false
// pauses the run without error.
type ConfirmFunc func(ctx context.Context, next Phase, st *state.WorkflowState) (bool, error)

// PhaseProgress reports progress during a run.
type PhaseProgress struct {
	Phase      Phase        `json:"phase"`
	Status     state.Status `json:"status"`
	Message    string       `json:"message"`
	Percentage int          `json:"percentage"`
}

// ProgressCallback receives progress updates during execution.
type ProgressCallback func(progress PhaseProgress)

// RunOptions configures one Run or Resume invocation.
type RunOptions struct {
	// FeatureOverride selects the feature explicitly instead of branch
	// or directory detection.
	FeatureOverride string

	// Mode overrides the workflow mode. On an existing run only
	// tightening supervision is allowed.
	Mode string

	// SkipPhases marks optional phases to skip. Skips are recorded so
	// a later resume does not re-offer them.
	SkipPhases []Phase

	// Confirm is consulted before each pausing phase. When nil the run
	// pauses unconditionally at pause points.
	Confirm ConfirmFunc
}

// RunResult reports where a run stopped.
type RunResult struct {
	Feature *feature.Feature     `json:"feature"`
	State   *state.WorkflowState `json:"state,omitempty"`

	// Paused is set when the mode required a continue signal.
	// NextPhase names the phase waiting to run.
	Paused    bool  `json:"paused"`
	NextPhase Phase `json:"next_phase,omitempty"`

	// Done is set when the terminal phase was reached. ArchivePath
	// names the archived state file when archiving is configured.
	Done        bool   `json:"done"`
	ArchivePath string `json:"archive_path,omitempty"`
}

// StatusReport summarizes the workflow position for display.
type StatusReport struct {
	Feature   *feature.Feature     `json:"feature"`
	State     *state.WorkflowState `json:"state,omitempty"`
	NextPhase Phase                `json:"next_phase"`

	// Tasks is the live task-list progress, re-parsed from the
	// artifact rather than the checkpoint cache.
	Tasks *tasks.Progress `json:"tasks,omitempty"`
}
