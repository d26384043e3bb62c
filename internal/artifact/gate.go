package artifact

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrMissingArtifact indicates one or more required artifacts are absent.
var ErrMissingArtifact = errors.New("missing required artifact")

// MissingError reports every missing required kind, so one failure carries
// the complete remediation list.
type MissingError struct {
	FeatureDir string
	Kinds      []Kind
}

func (e *MissingError) Error() string {
	names := make([]string, len(e.Kinds))
	for i, k := range e.Kinds {
		names[i] = k.DisplayName()
	}
	return fmt.Sprintf("missing required artifacts in %s: %s", e.FeatureDir, strings.Join(names, ", "))
}

func (e *MissingError) Unwrap() error {
	return ErrMissingArtifact
}

// Report is the outcome of a prerequisite check.
type Report struct {
	FeatureDir string `json:"feature_dir"`

	// Missing lists required kinds that are absent, in required order.
	Missing []Kind `json:"missing,omitempty"`

	// AvailableDocs lists every present optional kind, independent of
	// what was required.
	AvailableDocs []Kind `json:"available_docs"`
}

// Satisfied reports whether every required artifact was present.
func (r *Report) Satisfied() bool {
	return len(r.Missing) == 0
}

// Check validates that every required kind exists in the set, reporting
// all missing kinds in one pass. The report is returned alongside the
// error so callers can render remediation hints. Never mutates the
// filesystem.
func Check(required []Kind, set *Set) (*Report, error) {
	v := Validate(set)
	report := &Report{
		FeatureDir:    set.FeatureDir,
		AvailableDocs: v.AvailableDocs,
	}
	for _, k := range required {
		if !v.Has(k) {
			report.Missing = append(report.Missing, k)
		}
	}
	if len(report.Missing) > 0 {
		return report, &MissingError{FeatureDir: set.FeatureDir, Kinds: report.Missing}
	}
	return report, nil
}

// ClarificationMarker flags an unresolved ambiguity inside a specification.
const ClarificationMarker = "[NEEDS CLARIFICATION"

// CountClarifications counts unresolved ambiguity markers in the artifact
// at path. A missing file counts as zero markers.
func CountClarifications(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read artifact: %w", err)
	}
	return strings.Count(string(data), ClarificationMarker), nil
}
