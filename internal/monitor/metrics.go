package monitor

import (
	"errors"
	"time"

	"github.com/fyrsmithlabs/specflow/internal/artifact"
	"github.com/fyrsmithlabs/specflow/internal/orchestrator"
	"github.com/fyrsmithlabs/specflow/internal/state"
	"github.com/fyrsmithlabs/specflow/internal/tasks"
)

// PhaseRow is one row of the dashboard's phase table.
type PhaseRow struct {
	Phase  orchestrator.Phase
	Status state.Status
}

// Snapshot is a point-in-time view of one feature's workflow, assembled
// from the persisted state and whatever artifacts exist on disk.
type Snapshot struct {
	Feature      string
	Mode         string
	RunID        string
	CurrentPhase orchestrator.Phase
	Phases       []PhaseRow

	Tasks          *tasks.Progress
	Clarifications int
	AvailableDocs  []artifact.Kind

	Failed bool
	Done   bool

	StartedAt   time.Time
	LastUpdated time.Time
}

// Collector assembles snapshots for the dashboard. Task and artifact
// reads are best-effort: a feature without a task list simply has no
// task section, not an error.
type Collector struct {
	feature string
	store   state.Store
	set     *artifact.Set
}

// NewCollector creates a collector for one feature.
func NewCollector(feature string, store state.Store, set *artifact.Set) (*Collector, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if set == nil {
		return nil, errors.New("artifact set is required")
	}
	return &Collector{feature: feature, store: store, set: set}, nil
}

// Collect reads the current workflow state and artifacts. A missing
// state file yields an all-pending snapshot; a corrupted one is an error.
func (c *Collector) Collect() (Snapshot, error) {
	snap := Snapshot{
		Feature:      c.feature,
		CurrentPhase: orchestrator.PhasePrinciples,
	}

	st, err := c.store.Load()
	if err != nil {
		return Snapshot{}, err
	}
	if st != nil {
		snap.Mode = st.Mode
		snap.RunID = st.RunID
		snap.CurrentPhase = orchestrator.NextPhase(st)
		snap.StartedAt = st.StartedAt
		snap.LastUpdated = st.LastUpdated
	}
	snap.Done = snap.CurrentPhase == orchestrator.PhaseDone
	snap.Phases = phaseRows(st)
	for _, row := range snap.Phases {
		if row.Status == state.StatusFailed {
			snap.Failed = true
		}
	}

	if items, err := tasks.ParseFile(c.set.Tasks); err == nil {
		progress := tasks.ComputeProgress(items)
		snap.Tasks = &progress
	}
	if n, err := artifact.CountClarifications(c.set.Spec); err == nil {
		snap.Clarifications = n
	}
	snap.AvailableDocs = artifact.Validate(c.set).AvailableDocs

	return snap, nil
}

// phaseRows maps every non-terminal phase to its checkpoint status.
// Phases without a checkpoint are pending, including the one currently
// executing: a checkpoint only exists once a phase has finished.
func phaseRows(st *state.WorkflowState) []PhaseRow {
	var rows []PhaseRow
	for _, p := range orchestrator.AllPhases() {
		if p == orchestrator.PhaseDone {
			break
		}
		row := PhaseRow{Phase: p, Status: state.StatusPending}
		if st != nil {
			if cp := st.Checkpoints[string(p)]; cp != nil {
				row.Status = cp.Status
			}
		}
		rows = append(rows, row)
	}
	return rows
}
