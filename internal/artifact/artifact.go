package artifact

// Kind identifies one artifact within a feature directory.
type Kind string

const (
	// KindSpec is the feature specification.
	KindSpec Kind = "spec"
	// KindPlan is the implementation plan.
	KindPlan Kind = "plan"
	// KindResearch is the supporting research document.
	KindResearch Kind = "research"
	// KindDataModel is the data model document.
	KindDataModel Kind = "data-model"
	// KindContracts is the API contracts directory.
	KindContracts Kind = "contracts"
	// KindQuickstart is the quickstart document.
	KindQuickstart Kind = "quickstart"
	// KindTasks is the task list.
	KindTasks Kind = "tasks"
)

// AllKinds returns every artifact kind in canonical order.
func AllKinds() []Kind {
	return []Kind{
		KindSpec,
		KindPlan,
		KindResearch,
		KindDataModel,
		KindContracts,
		KindQuickstart,
		KindTasks,
	}
}

// OptionalKinds returns the design documents that phases may consume when
// present but never require individually.
func OptionalKinds() []Kind {
	return []Kind{KindResearch, KindDataModel, KindContracts, KindQuickstart}
}

// FileName returns the artifact's name within the feature directory.
func (k Kind) FileName() string {
	if k == KindContracts {
		return "contracts"
	}
	return string(k) + ".md"
}

// IsDir reports whether the artifact is directory-valued.
func (k Kind) IsDir() bool {
	return k == KindContracts
}

// DisplayName returns the artifact name as shown in reports, with a
// trailing slash for directories.
func (k Kind) DisplayName() string {
	if k.IsDir() {
		return k.FileName() + "/"
	}
	return k.FileName()
}

// Set holds the absolute artifact paths for one feature.
type Set struct {
	// RepoRoot is the repository root the set was resolved against.
	RepoRoot string `json:"repo_root"`

	// FeatureDir is the absolute path of the feature directory.
	FeatureDir string `json:"feature_dir"`

	Spec       string `json:"spec"`
	Plan       string `json:"plan"`
	Research   string `json:"research"`
	DataModel  string `json:"data_model"`
	Contracts  string `json:"contracts"`
	Quickstart string `json:"quickstart"`
	Tasks      string `json:"tasks"`
}

// Path returns the absolute path for the given kind, or "" for an
// unknown kind.
func (s *Set) Path(k Kind) string {
	switch k {
	case KindSpec:
		return s.Spec
	case KindPlan:
		return s.Plan
	case KindResearch:
		return s.Research
	case KindDataModel:
		return s.DataModel
	case KindContracts:
		return s.Contracts
	case KindQuickstart:
		return s.Quickstart
	case KindTasks:
		return s.Tasks
	default:
		return ""
	}
}
