package artifact

import (
	"os"
	"path/filepath"
)

// DefaultSpecsDir is the feature root directory, relative to the
// repository root.
const DefaultSpecsDir = "specs"

// Resolver maps features to their artifact paths.
type Resolver struct {
	specsDir string
}

// NewResolver creates a resolver whose feature root is specsDir, relative
// to the repository root. An empty specsDir selects DefaultSpecsDir.
func NewResolver(specsDir string) *Resolver {
	if specsDir == "" {
		specsDir = DefaultSpecsDir
	}
	return &Resolver{specsDir: specsDir}
}

// FeatureRoot returns the directory that holds all feature directories.
func (r *Resolver) FeatureRoot(repoRoot string) string {
	return filepath.Join(repoRoot, r.specsDir)
}

// Resolve maps a feature directory name to its artifact paths without
// touching the filesystem. Usable before the feature directory exists.
func (r *Resolver) Resolve(repoRoot, featureDir string) *Set {
	dir := filepath.Join(r.FeatureRoot(repoRoot), featureDir)
	return &Set{
		RepoRoot:   repoRoot,
		FeatureDir: dir,
		Spec:       filepath.Join(dir, KindSpec.FileName()),
		Plan:       filepath.Join(dir, KindPlan.FileName()),
		Research:   filepath.Join(dir, KindResearch.FileName()),
		DataModel:  filepath.Join(dir, KindDataModel.FileName()),
		Contracts:  filepath.Join(dir, KindContracts.FileName()),
		Quickstart: filepath.Join(dir, KindQuickstart.FileName()),
		Tasks:      filepath.Join(dir, KindTasks.FileName()),
	}
}

// ResolveValidated resolves paths and additionally reports per-kind
// existence from a live filesystem query.
func (r *Resolver) ResolveValidated(repoRoot, featureDir string) (*Set, *Validation) {
	set := r.Resolve(repoRoot, featureDir)
	return set, Validate(set)
}

// Validation reports which artifacts of a Set exist on disk.
type Validation struct {
	// FeatureDirExists reports whether the feature directory itself exists.
	FeatureDirExists bool

	// Present maps every kind to its existence. A contracts directory
	// counts as present only when it contains at least one entry.
	Present map[Kind]bool

	// AvailableDocs lists the optional kinds that are present, in
	// canonical order, independent of what any caller requires.
	AvailableDocs []Kind
}

// Has reports whether the given kind exists.
func (v *Validation) Has(k Kind) bool {
	return v.Present[k]
}

// Validate queries the filesystem for every artifact in the set. Stat
// failures are treated as absent. Never writes.
func Validate(set *Set) *Validation {
	v := &Validation{Present: make(map[Kind]bool, len(AllKinds()))}

	if info, err := os.Stat(set.FeatureDir); err == nil && info.IsDir() {
		v.FeatureDirExists = true
	}

	for _, k := range AllKinds() {
		v.Present[k] = exists(set.Path(k), k.IsDir())
	}
	for _, k := range OptionalKinds() {
		if v.Present[k] {
			v.AvailableDocs = append(v.AvailableDocs, k)
		}
	}
	return v
}

func exists(path string, wantDir bool) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if wantDir {
		if !info.IsDir() {
			return false
		}
		entries, err := os.ReadDir(path)
		return err == nil && len(entries) > 0
	}
	return info.Mode().IsRegular()
}
