package orchestrator

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/fyrsmithlabs/specflow/internal/artifact"
)

// RequiredInputs returns the artifacts a phase consumes, in canonical
// order. Phases that create their own inputs require nothing.
func RequiredInputs(phase Phase) []artifact.Kind {
	switch phase {
	case PhaseClarify, PhasePlan:
		return []artifact.Kind{artifact.KindSpec}
	case PhaseTasks:
		return []artifact.Kind{artifact.KindPlan}
	case PhaseAnalyze:
		return []artifact.Kind{artifact.KindSpec, artifact.KindPlan, artifact.KindTasks}
	case PhaseImplement:
		return []artifact.Kind{artifact.KindPlan, artifact.KindTasks}
	default:
		return nil
	}
}

// PhaseReport is the outcome of a phase prerequisite check.
type PhaseReport struct {
	Phase Phase `json:"phase"`

	// Required lists the kinds the phase demands; Missing the absent
	// subset, in required order.
	Required []artifact.Kind `json:"required"`
	Missing  []artifact.Kind `json:"missing,omitempty"`

	// AvailableDocs lists present optional design documents.
	AvailableDocs []artifact.Kind `json:"available_docs"`

	Satisfied bool `json:"satisfied"`

	// Clarifications counts unresolved ambiguity markers in the
	// specification. Only populated for the clarify phase.
	Clarifications int `json:"clarifications,omitempty"`

	// Paths holds the resolved artifact paths for the feature.
	Paths *artifact.Set `json:"paths,omitempty"`
}

// CheckPhase reports whether a phase's prerequisites are satisfied
// without mutating anything. The report is returned alongside the error
// so callers can render the full missing list.
func (o *Orchestrator) CheckPhase(ctx context.Context, featureOverride string, phase Phase) (*PhaseReport, error) {
	ctx, span := o.tracer.Start(ctx, "orchestrator.check_phase")
	defer span.End()
	span.SetAttributes(attribute.String("workflow.phase", string(phase)))

	if !phase.Valid() {
		err := fmt.Errorf("unknown phase %q", phase)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	feat, err := o.features.ResolveCurrent(ctx, featureOverride)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	set := o.resolver.Resolve(o.config.RepoRoot, feat.BranchName)
	check, gateErr := artifact.Check(RequiredInputs(phase), set)

	report := &PhaseReport{
		Phase:         phase,
		Required:      RequiredInputs(phase),
		Missing:       check.Missing,
		AvailableDocs: check.AvailableDocs,
		Satisfied:     check.Satisfied(),
		Paths:         set,
	}

	if gateErr != nil {
		span.RecordError(gateErr)
		span.SetStatus(codes.Error, gateErr.Error())
		return report, gateErr
	}

	if phase == PhaseClarify {
		n, err := artifact.CountClarifications(set.Spec)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return report, err
		}
		report.Clarifications = n
	}

	return report, nil
}
