package template

import (
	_ "embed"

	"github.com/fyrsmithlabs/specflow/internal/artifact"
)

// Embedded defaults for the artifacts a workflow seeds. The remaining
// kinds are produced by phase execution, not from templates.
var (
	//go:embed templates/spec-template.md
	defaultSpecTemplate string

	//go:embed templates/plan-template.md
	defaultPlanTemplate string

	//go:embed templates/tasks-template.md
	defaultTasksTemplate string
)

// DefaultKinds lists the kinds that ship with an embedded template.
func DefaultKinds() []artifact.Kind {
	return []artifact.Kind{artifact.KindSpec, artifact.KindPlan, artifact.KindTasks}
}

// defaultContent returns the embedded template for kind, empty when none
// ships.
func defaultContent(kind artifact.Kind) string {
	switch kind {
	case artifact.KindSpec:
		return defaultSpecTemplate
	case artifact.KindPlan:
		return defaultPlanTemplate
	case artifact.KindTasks:
		return defaultTasksTemplate
	default:
		return ""
	}
}
