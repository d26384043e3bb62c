package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/specflow/internal/artifact"
	"github.com/fyrsmithlabs/specflow/internal/config"
	"github.com/fyrsmithlabs/specflow/internal/tasks"
)

// ArtifactSeeder materializes an artifact file from a template.
// *template.Provider satisfies it.
type ArtifactSeeder interface {
	CreateFromTemplate(kind artifact.Kind, dest string) error
}

// ScaffoldExecutor is a PhaseExecutor that materializes each phase's
// output artifacts from templates and leaves the authoring to whoever
// drives the workflow. Generating phases seed their artifact when it is
// absent; re-entering a phase never touches an artifact that already
// exists. The implement phase completes only once every item in the task
// list is checked off.
type ScaffoldExecutor struct {
	seeder ArtifactSeeder
}

// NewScaffoldExecutor creates a scaffold executor backed by seeder.
func NewScaffoldExecutor(seeder ArtifactSeeder) (*ScaffoldExecutor, error) {
	if seeder == nil {
		return nil, errors.New("artifact seeder is required")
	}
	return &ScaffoldExecutor{seeder: seeder}, nil
}

// Execute implements PhaseExecutor.
func (e *ScaffoldExecutor) Execute(ctx context.Context, phase Phase, set *artifact.Set) (*ExecutionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch phase {
	case PhasePrinciples:
		return e.seedPrinciples(set)
	case PhaseSpecify:
		return e.seed(artifact.KindSpec, set.Spec)
	case PhasePlan:
		return e.seed(artifact.KindPlan, set.Plan)
	case PhaseTasks:
		return e.seed(artifact.KindTasks, set.Tasks)
	case PhaseImplement:
		return e.verifyTasksComplete(set)
	default:
		// clarify and analyze revise artifacts that already exist;
		// there is nothing to materialize.
		return &ExecutionResult{}, nil
	}
}

// seed materializes the artifact for kind at dest unless it already
// exists. An existing artifact means the phase was authored on a prior
// pass and is left untouched.
func (e *ScaffoldExecutor) seed(kind artifact.Kind, dest string) (*ExecutionResult, error) {
	if _, err := os.Stat(dest); err == nil {
		return &ExecutionResult{}, nil
	}
	if err := e.seeder.CreateFromTemplate(kind, dest); err != nil {
		return nil, fmt.Errorf("failed to seed %s: %w", kind, err)
	}
	return &ExecutionResult{Metadata: map[string]string{"seeded": dest}}, nil
}

// seedPrinciples writes the project principles document. Principles live
// outside the feature directory so every feature shares them.
func (e *ScaffoldExecutor) seedPrinciples(set *artifact.Set) (*ExecutionResult, error) {
	dest := PrinciplesPath(set.RepoRoot)
	if _, err := os.Stat(dest); err == nil {
		return &ExecutionResult{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
	}
	if err := os.WriteFile(dest, []byte(principlesSeed), 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return &ExecutionResult{Metadata: map[string]string{"seeded": dest}}, nil
}

// verifyTasksComplete succeeds only when every task in the list is
// checked off. An incomplete list fails the phase so resume re-enters
// implement until the work is done.
func (e *ScaffoldExecutor) verifyTasksComplete(set *artifact.Set) (*ExecutionResult, error) {
	items, err := tasks.ParseFile(set.Tasks)
	if err != nil {
		return nil, fmt.Errorf("failed to parse task list: %w", err)
	}

	progress := tasks.ComputeProgress(items)
	if progress.NextPending != nil {
		remaining := progress.Total - progress.Completed
		return nil, fmt.Errorf("%d of %d tasks incomplete, next is %s", remaining, progress.Total, progress.NextPending.ID)
	}
	return &ExecutionResult{}, nil
}

// PrinciplesPath returns the project principles document location for a
// repository.
func PrinciplesPath(repoRoot string) string {
	return filepath.Join(repoRoot, config.ConfigDirName, "memory", "principles.md")
}

// principlesSeed is the starting principles document. Kept deliberately
// small; teams replace the articles with their own.
const principlesSeed = `# Project Principles

**Status**: Draft

Articles below bind every specification, plan, and implementation in this
repository. Amend them deliberately; downstream phases check against them.

## Article I: [PRINCIPLE NAME]

[State the principle and what it forbids or requires.]

## Article II: [PRINCIPLE NAME]

[State the principle and what it forbids or requires.]
`
