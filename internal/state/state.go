package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the current workflow state schema version.
const SchemaVersion = 2

// ErrStateCorrupted indicates the state file exists but cannot be used.
// Never auto-repaired; resolution requires an explicit user decision.
var ErrStateCorrupted = errors.New("workflow state corrupted")

// Status is a checkpoint status value.
type Status string

const (
	// StatusPending marks a phase not yet started.
	StatusPending Status = "pending"
	// StatusInProgress marks a phase currently executing.
	StatusInProgress Status = "in_progress"
	// StatusCompleted marks a successfully finished phase.
	StatusCompleted Status = "completed"
	// StatusFailed marks a phase halted by an executor failure.
	StatusFailed Status = "failed"
	// StatusSkipped marks an optional phase the caller skipped.
	StatusSkipped Status = "skipped"
)

// Checkpoint records one phase's outcome and progress metadata.
type Checkpoint struct {
	// Status is the phase outcome.
	Status Status `json:"status"`

	// TasksCompleted and TasksTotal cache task-list progress. The tasks
	// artifact is the source of truth; these are reconciled against a
	// fresh parse before being trusted.
	TasksCompleted int `json:"tasks_completed"`
	TasksTotal     int `json:"tasks_total"`

	// CurrentTaskRef points at the task in flight when checkpointed.
	CurrentTaskRef string `json:"current_task_ref,omitempty"`

	// FailureReason explains a failed status.
	FailureReason string `json:"failure_reason,omitempty"`

	// CompletedAt is when the phase finished. Zero until completed.
	CompletedAt time.Time `json:"completed_at"`
}

// WorkflowState is the persisted progress of one feature's workflow.
type WorkflowState struct {
	SchemaVersion int    `json:"schema_version"`
	RunID         string `json:"run_id"`
	FeatureID     string `json:"feature_id"`
	Mode          string `json:"mode"`
	CurrentPhase  string `json:"current_phase"`

	// CompletedPhases is ordered and always a prefix of the canonical
	// phase order, modulo explicitly recorded skips.
	CompletedPhases []string `json:"completed_phases"`
	SkippedPhases   []string `json:"skipped_phases"`

	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`

	Checkpoints map[string]*Checkpoint `json:"checkpoints"`
}

// NewState creates the initial state for a feature workflow.
func NewState(featureID, mode string) *WorkflowState {
	now := time.Now().UTC()
	return &WorkflowState{
		SchemaVersion:   SchemaVersion,
		RunID:           "run_" + uuid.New().String(),
		FeatureID:       featureID,
		Mode:            mode,
		CompletedPhases: []string{},
		SkippedPhases:   []string{},
		StartedAt:       now,
		LastUpdated:     now,
		Checkpoints:     make(map[string]*Checkpoint),
	}
}

// RecordCheckpoint stores a phase checkpoint and maintains the completed
// and skipped phase lists. Recording the same completed phase twice
// appends it only once.
func (s *WorkflowState) RecordCheckpoint(phase string, cp *Checkpoint) {
	if s.Checkpoints == nil {
		s.Checkpoints = make(map[string]*Checkpoint)
	}

	switch cp.Status {
	case StatusCompleted:
		if cp.CompletedAt.IsZero() {
			cp.CompletedAt = time.Now().UTC()
		}
		if !contains(s.CompletedPhases, phase) {
			s.CompletedPhases = append(s.CompletedPhases, phase)
		}
	case StatusSkipped:
		if !contains(s.SkippedPhases, phase) {
			s.SkippedPhases = append(s.SkippedPhases, phase)
		}
	}

	s.Checkpoints[phase] = cp
	s.LastUpdated = time.Now().UTC()
}

// IsCompleted reports whether the phase has a completed checkpoint.
func (s *WorkflowState) IsCompleted(phase string) bool {
	return contains(s.CompletedPhases, phase)
}

// IsSkipped reports whether the phase was explicitly skipped.
func (s *WorkflowState) IsSkipped(phase string) bool {
	return contains(s.SkippedPhases, phase)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// migrate upgrades older schema versions in place. Unknown versions are
// rejected rather than guessed at.
func migrate(st *WorkflowState) error {
	switch st.SchemaVersion {
	case SchemaVersion:
	case 1:
		// v1 predates mode selection and skip tracking.
		if st.Mode == "" {
			st.Mode = "interactive"
		}
		if st.SkippedPhases == nil {
			st.SkippedPhases = []string{}
		}
		st.SchemaVersion = SchemaVersion
	default:
		return fmt.Errorf("%w: unsupported schema version %d", ErrStateCorrupted, st.SchemaVersion)
	}

	if st.CompletedPhases == nil {
		st.CompletedPhases = []string{}
	}
	if st.Checkpoints == nil {
		st.Checkpoints = make(map[string]*Checkpoint)
	}
	return nil
}
