package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/specflow/internal/artifact"
	"github.com/fyrsmithlabs/specflow/internal/config"
	"github.com/fyrsmithlabs/specflow/internal/feature"
	"github.com/fyrsmithlabs/specflow/internal/hooks"
	"github.com/fyrsmithlabs/specflow/internal/logging"
	"github.com/fyrsmithlabs/specflow/internal/state"
	"github.com/fyrsmithlabs/specflow/internal/tasks"
)

const instrumentationName = "github.com/fyrsmithlabs/specflow/internal/orchestrator"

// Config configures the orchestrator.
type Config struct {
	// RepoRoot is the repository root all paths resolve against.
	RepoRoot string

	// SpecsDir is the feature tree root, relative to RepoRoot.
	SpecsDir string

	// Mode is the default workflow mode for new runs.
	Mode string

	// DeleteStateOnDone removes the state document at workflow
	// completion instead of archiving it.
	DeleteStateOnDone bool
}

// Orchestrator drives a feature workflow phase by phase, checkpointing
// after every phase so an interrupted run resumes where it stopped.
type Orchestrator struct {
	config   *Config
	features FeatureResolver
	resolver *artifact.Resolver
	store    state.Store
	executor PhaseExecutor
	hooks    *hooks.Manager
	logger   *logging.Logger

	tracer       trace.Tracer
	meter        metric.Meter
	phaseCounter metric.Int64Counter

	progressCallback ProgressCallback
}

// New creates an orchestrator. The hook manager may be nil.
func New(cfg *Config, features FeatureResolver, store state.Store, executor PhaseExecutor, hookManager *hooks.Manager, logger *logging.Logger) (*Orchestrator, error) {
	if cfg == nil || cfg.RepoRoot == "" {
		return nil, errors.New("repository root is required")
	}
	if features == nil {
		return nil, errors.New("feature resolver is required")
	}
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if executor == nil {
		return nil, errors.New("phase executor is required")
	}
	if cfg.Mode == "" {
		cfg.Mode = config.ModeInteractive
	}
	if modeRank(cfg.Mode) < 0 {
		return nil, fmt.Errorf("unknown workflow mode %q", cfg.Mode)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	o := &Orchestrator{
		config:   cfg,
		features: features,
		resolver: artifact.NewResolver(cfg.SpecsDir),
		store:    store,
		executor: executor,
		hooks:    hookManager,
		logger:   logger,
		tracer:   otel.Tracer(instrumentationName),
		meter:    otel.Meter(instrumentationName),
	}

	o.initMetrics()

	return o, nil
}

// initMetrics initializes OpenTelemetry metrics.
func (o *Orchestrator) initMetrics() {
	var err error

	o.phaseCounter, err = o.meter.Int64Counter(
		"specflow.phases.executed_total",
		metric.WithDescription("Total number of phase executions"),
		metric.WithUnit("{phase}"),
	)
	if err != nil {
		o.logger.Warn(context.Background(), "failed to create phase counter", zap.Error(err))
	}
}

// OnProgress sets the progress callback.
func (o *Orchestrator) OnProgress(callback ProgressCallback) {
	o.progressCallback = callback
}

// Run advances the workflow from its current phase until it completes,
// pauses, fails, or the context is cancelled. A run with no persisted
// state starts fresh at the first phase.
func (o *Orchestrator) Run(ctx context.Context, opts *RunOptions) (*RunResult, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.run")
	defer span.End()

	if opts == nil {
		opts = &RunOptions{}
	}

	feat, err := o.features.ResolveCurrent(ctx, opts.FeatureOverride)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	st, err := o.loadState(feat, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	ctx = logging.WithFeature(ctx, feat.BranchName)
	ctx = logging.WithRunID(ctx, st.RunID)
	span.SetAttributes(
		attribute.String("workflow.feature", feat.BranchName),
		attribute.String("workflow.run_id", st.RunID),
		attribute.String("workflow.mode", st.Mode),
	)

	set := o.resolver.Resolve(o.config.RepoRoot, feat.BranchName)

	changed, err := o.applySkips(st, opts.SkipPhases)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if changed {
		if err := o.store.Save(st); err != nil {
			return nil, fmt.Errorf("failed to save workflow state: %w", err)
		}
	}

	for {
		phase := NextPhase(st)
		if phase == PhaseDone {
			return o.finish(ctx, feat, st)
		}

		if err := ctx.Err(); err != nil {
			return &RunResult{Feature: feat, State: st, NextPhase: phase}, err
		}

		if pausesBefore(st.Mode, phase) {
			proceed := false
			if opts.Confirm != nil {
				ok, err := opts.Confirm(ctx, phase, st)
				if err != nil {
					return nil, err
				}
				proceed = ok
			}
			if !proceed {
				st.CurrentPhase = string(phase)
				if err := o.store.Save(st); err != nil {
					return nil, fmt.Errorf("failed to save workflow state: %w", err)
				}
				o.logger.Info(ctx, "workflow paused",
					zap.String("next_phase", string(phase)),
					zap.String("mode", st.Mode),
				)
				return &RunResult{Feature: feat, State: st, Paused: true, NextPhase: phase}, nil
			}
		}

		if err := o.step(ctx, feat, st, set, phase); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return &RunResult{Feature: feat, State: st, NextPhase: phase}, err
		}
	}
}

// Resume continues a previously started workflow. Unlike Run it requires
// persisted state to exist.
func (o *Orchestrator) Resume(ctx context.Context, opts *RunOptions) (*RunResult, error) {
	st, err := o.store.Load()
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, errors.New("no workflow state to resume")
	}
	return o.Run(ctx, opts)
}

// Status reports the workflow position without advancing it. Task
// progress is re-parsed from the task list artifact; checkpoint counts
// are never trusted over the file.
func (o *Orchestrator) Status(ctx context.Context, featureOverride string) (*StatusReport, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.status")
	defer span.End()

	feat, err := o.features.ResolveCurrent(ctx, featureOverride)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	st, err := o.store.Load()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	report := &StatusReport{Feature: feat, NextPhase: PhasePrinciples}
	if st != nil {
		report.State = st
		report.NextPhase = NextPhase(st)
	}

	set := o.resolver.Resolve(o.config.RepoRoot, feat.BranchName)
	if items, err := tasks.ParseFile(set.Tasks); err == nil {
		progress := tasks.ComputeProgress(items)
		report.Tasks = &progress
	}

	return report, nil
}

// loadState loads existing state or creates fresh state for the feature.
func (o *Orchestrator) loadState(feat *feature.Feature, opts *RunOptions) (*state.WorkflowState, error) {
	st, err := o.store.Load()
	if err != nil {
		return nil, err
	}

	if st == nil {
		mode := o.config.Mode
		if opts.Mode != "" {
			mode = opts.Mode
		}
		if modeRank(mode) < 0 {
			return nil, fmt.Errorf("unknown workflow mode %q", mode)
		}
		st = state.NewState(feat.BranchName, mode)
		st.CurrentPhase = string(NextPhase(st))
		return st, nil
	}

	if st.FeatureID != feat.BranchName {
		return nil, fmt.Errorf("workflow state belongs to feature %s, not %s; finish or archive it first", st.FeatureID, feat.BranchName)
	}

	if opts.Mode != "" && opts.Mode != st.Mode {
		if err := ValidateModeTransition(st.Mode, opts.Mode); err != nil {
			return nil, err
		}
		st.Mode = opts.Mode
	}

	return st, nil
}

// applySkips records skip checkpoints for the requested optional phases.
// Reports whether state changed so the caller persists at most once.
func (o *Orchestrator) applySkips(st *state.WorkflowState, skips []Phase) (bool, error) {
	changed := false
	for _, p := range skips {
		if !p.Valid() {
			return changed, fmt.Errorf("unknown phase %q", p)
		}
		if !p.Optional() {
			return changed, fmt.Errorf("phase %s is required and cannot be skipped", p)
		}
		if st.IsSkipped(string(p)) {
			continue
		}
		if st.IsCompleted(string(p)) {
			return changed, fmt.Errorf("phase %s already completed; cannot skip", p)
		}
		st.RecordCheckpoint(string(p), &state.Checkpoint{Status: state.StatusSkipped})
		changed = true
	}
	return changed, nil
}

// step gates and executes one phase, writing exactly one checkpoint.
func (o *Orchestrator) step(ctx context.Context, feat *feature.Feature, st *state.WorkflowState, set *artifact.Set, phase Phase) error {
	ctx, span := o.tracer.Start(ctx, "orchestrator.phase")
	defer span.End()
	span.SetAttributes(attribute.String("workflow.phase", string(phase)))
	ctx = logging.WithPhase(ctx, string(phase))

	// Gate failures are configuration problems, not phase failures.
	// Nothing is checkpointed; the run halts where it stood.
	if _, err := artifact.Check(RequiredInputs(phase), set); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if phase == PhaseClarify {
		if n, err := artifact.CountClarifications(set.Spec); err == nil {
			o.logger.Info(ctx, "unresolved clarification markers", zap.Int("count", n))
		}
	}

	o.fireHook(ctx, hooks.Event{Type: hooks.TypePhaseStart, Feature: feat.BranchName, Phase: string(phase)})
	o.reportProgress(PhaseProgress{
		Phase:      phase,
		Status:     state.StatusInProgress,
		Message:    fmt.Sprintf("starting %s", phase),
		Percentage: completionPercentage(st),
	})

	o.logger.Info(ctx, "executing phase", zap.String("phase", string(phase)))
	start := time.Now()
	result, execErr := o.executor.Execute(ctx, phase, set)
	elapsed := time.Since(start)

	if execErr != nil {
		o.checkpointFailure(ctx, set, st, phase, execErr)

		if o.phaseCounter != nil {
			o.phaseCounter.Add(ctx, 1, metric.WithAttributes(
				attribute.String("phase", string(phase)),
				attribute.String("status", string(state.StatusFailed)),
			))
		}

		o.fireHook(ctx, hooks.Event{
			Type:    hooks.TypePhaseFailed,
			Feature: feat.BranchName,
			Phase:   string(phase),
			Data:    map[string]interface{}{"reason": execErr.Error()},
		})
		o.reportProgress(PhaseProgress{
			Phase:      phase,
			Status:     state.StatusFailed,
			Message:    execErr.Error(),
			Percentage: completionPercentage(st),
		})

		span.RecordError(execErr)
		span.SetStatus(codes.Error, execErr.Error())
		return fmt.Errorf("%w: %s: %v", ErrPhaseExecutionFailed, phase, execErr)
	}

	cp := &state.Checkpoint{Status: state.StatusCompleted}
	if phase == PhaseImplement {
		o.refreshTaskCounts(ctx, set, cp)
	}

	// The persisted current phase always names the first phase not yet
	// done, in the same write as the checkpoint.
	st.CurrentPhase = string(nextPhaseAfter(st, phase))
	if err := o.store.Checkpoint(st, string(phase), cp); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to checkpoint %s: %w", phase, err)
	}

	if o.phaseCounter != nil {
		o.phaseCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("phase", string(phase)),
			attribute.String("status", string(state.StatusCompleted)),
		))
	}

	var data map[string]interface{}
	if result != nil && len(result.Metadata) > 0 {
		data = map[string]interface{}{"metadata": result.Metadata}
	}
	if phase == PhaseImplement {
		if data == nil {
			data = make(map[string]interface{})
		}
		data["tasks_completed"] = cp.TasksCompleted
		data["tasks_total"] = cp.TasksTotal
	}
	o.fireHook(ctx, hooks.Event{Type: hooks.TypePhaseComplete, Feature: feat.BranchName, Phase: string(phase), Data: data})

	o.reportProgress(PhaseProgress{
		Phase:      phase,
		Status:     state.StatusCompleted,
		Message:    fmt.Sprintf("completed %s", phase),
		Percentage: completionPercentage(st),
	})
	o.logger.Info(ctx, "phase completed",
		zap.String("phase", string(phase)),
		zap.Duration("duration", elapsed),
	)

	return nil
}

// checkpointFailure records a failed checkpoint so resume re-enters the
// same phase. A store error here is logged, not returned; the execution
// failure is the error the caller needs.
func (o *Orchestrator) checkpointFailure(ctx context.Context, set *artifact.Set, st *state.WorkflowState, phase Phase, execErr error) {
	cp := &state.Checkpoint{
		Status:        state.StatusFailed,
		FailureReason: execErr.Error(),
	}
	if phase == PhaseImplement {
		o.refreshTaskCounts(ctx, set, cp)
	}

	st.CurrentPhase = string(phase)
	if err := o.store.Checkpoint(st, string(phase), cp); err != nil {
		o.logger.Error(ctx, "failed to checkpoint phase failure",
			zap.String("phase", string(phase)),
			zap.Error(err),
		)
	}
}

// refreshTaskCounts reconciles checkpoint task counts against a fresh
// parse of the task list. The artifact wins over any cached counts.
func (o *Orchestrator) refreshTaskCounts(ctx context.Context, set *artifact.Set, cp *state.Checkpoint) {
	items, err := tasks.ParseFile(set.Tasks)
	if err != nil {
		o.logger.Warn(ctx, "task list unreadable, keeping checkpoint counts", zap.Error(err))
		return
	}
	progress := tasks.ComputeProgress(items)
	cp.TasksCompleted = progress.Completed
	cp.TasksTotal = progress.Total
	if progress.NextPending != nil {
		cp.CurrentTaskRef = progress.NextPending.ID
	} else {
		cp.CurrentTaskRef = ""
	}
}

// finish releases the workflow state once the terminal phase is reached.
func (o *Orchestrator) finish(ctx context.Context, feat *feature.Feature, st *state.WorkflowState) (*RunResult, error) {
	st.CurrentPhase = string(PhaseDone)
	result := &RunResult{Feature: feat, State: st, Done: true}

	if o.config.DeleteStateOnDone {
		if err := o.store.Delete(); err != nil {
			return nil, fmt.Errorf("failed to delete workflow state: %w", err)
		}
	} else {
		path, err := o.store.Archive(feat.BranchName)
		if err != nil {
			return nil, fmt.Errorf("failed to archive workflow state: %w", err)
		}
		result.ArchivePath = path
	}

	o.fireHook(ctx, hooks.Event{Type: hooks.TypeWorkflowDone, Feature: feat.BranchName})
	o.reportProgress(PhaseProgress{
		Phase:      PhaseDone,
		Status:     state.StatusCompleted,
		Message:    "workflow complete",
		Percentage: 100,
	})
	o.logger.Info(ctx, "workflow complete",
		zap.String("feature", feat.BranchName),
		zap.String("archive", result.ArchivePath),
	)

	return result, nil
}

// fireHook dispatches a lifecycle event. Hook failures are logged and
// never interrupt the workflow.
func (o *Orchestrator) fireHook(ctx context.Context, event hooks.Event) {
	if err := o.hooks.Fire(ctx, event); err != nil {
		o.logger.Warn(ctx, "hook failed",
			zap.String("event", string(event.Type)),
			zap.Error(err),
		)
	}
}

// reportProgress calls the progress callback if set.
func (o *Orchestrator) reportProgress(progress PhaseProgress) {
	if o.progressCallback != nil {
		o.progressCallback(progress)
	}
}
