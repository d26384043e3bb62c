package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_AllPresent(t *testing.T) {
	root := t.TempDir()
	set := NewResolver("").Resolve(root, "001-add-auth")
	writeArtifact(t, set.Spec)
	writeArtifact(t, set.Plan)

	report, err := Check([]Kind{KindSpec, KindPlan}, set)
	require.NoError(t, err)
	assert.True(t, report.Satisfied())
	assert.Empty(t, report.Missing)
	assert.Equal(t, set.FeatureDir, report.FeatureDir)
}

func TestCheck_ReportsEveryMissingKind(t *testing.T) {
	root := t.TempDir()
	set := NewResolver("").Resolve(root, "001-add-auth")
	writeArtifact(t, set.Spec)

	report, err := Check([]Kind{KindSpec, KindPlan, KindTasks}, set)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingArtifact))

	var missing *MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []Kind{KindPlan, KindTasks}, missing.Kinds)

	// Message enumerates every missing artifact, not just the first.
	assert.Contains(t, err.Error(), "plan.md")
	assert.Contains(t, err.Error(), "tasks.md")

	// The report is still usable for remediation output.
	require.NotNil(t, report)
	assert.False(t, report.Satisfied())
	assert.Equal(t, []Kind{KindPlan, KindTasks}, report.Missing)
}

func TestCheck_SpecOnly(t *testing.T) {
	root := t.TempDir()
	set := NewResolver("").Resolve(root, "001-add-auth")

	_, err := Check([]Kind{KindSpec}, set)
	require.Error(t, err)

	writeArtifact(t, set.Spec)

	_, err = Check([]Kind{KindSpec}, set)
	require.NoError(t, err)
}

func TestCheck_AvailableDocsIndependentOfRequired(t *testing.T) {
	root := t.TempDir()
	set := NewResolver("").Resolve(root, "001-add-auth")
	writeArtifact(t, set.Plan)
	writeArtifact(t, set.Research)
	writeArtifact(t, set.Quickstart)

	report, err := Check([]Kind{KindPlan}, set)
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindResearch, KindQuickstart}, report.AvailableDocs)
}

func TestCheck_EmptyContractsDirExcluded(t *testing.T) {
	root := t.TempDir()
	set := NewResolver("").Resolve(root, "001-add-auth")
	writeArtifact(t, set.Spec)
	require.NoError(t, os.MkdirAll(set.Contracts, 0755))

	report, err := Check([]Kind{KindSpec}, set)
	require.NoError(t, err)
	assert.NotContains(t, report.AvailableDocs, KindContracts)
}

func TestCountClarifications(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.md")

	content := "# Spec\n\n" +
		"- Login flow [NEEDS CLARIFICATION: which providers?]\n" +
		"- Session TTL [NEEDS CLARIFICATION: hours or days?]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	n, err := CountClarifications(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCountClarifications_MissingFile(t *testing.T) {
	n, err := CountClarifications(filepath.Join(t.TempDir(), "spec.md"))
	require.NoError(t, err)
	assert.Zero(t, n)
}
