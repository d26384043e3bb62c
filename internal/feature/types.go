package feature

// Feature is a numbered, named unit of work tracked via a directory and,
// when the repository has version control, a branch of the same name.
// Immutable after allocation.
type Feature struct {
	// Number is the zero-padded allocation number, e.g. "001".
	Number string `json:"number"`

	// Slug is the kebab-case identifier derived from the description.
	Slug string `json:"slug"`

	// BranchName is "<number>-<slug>", shared by the feature directory
	// and the git branch.
	BranchName string `json:"branch_name"`

	// Dir is the absolute path of the feature directory.
	Dir string `json:"dir"`
}

// RepositoryContext describes the repository surrounding one invocation.
// Recomputed fresh every time, never cached across processes.
type RepositoryContext struct {
	// Root is the repository root.
	Root string `json:"root"`

	// HasVersionControl reports whether the root is inside a git repository.
	HasVersionControl bool `json:"has_version_control"`

	// Branch is the current branch name, empty when undetectable.
	Branch string `json:"branch,omitempty"`

	// ActiveFeature is the resolved feature's branch name, empty when no
	// feature context exists.
	ActiveFeature string `json:"active_feature,omitempty"`
}

// AllocateRequest carries parameters for allocating a new feature.
type AllocateRequest struct {
	// Description is the free-text description the slug derives from.
	Description string

	// CreateBranch creates and checks out branch "<number>-<slug>" when
	// the repository has version control.
	CreateBranch bool
}
