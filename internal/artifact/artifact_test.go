package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_FileName(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindSpec, "spec.md"},
		{KindPlan, "plan.md"},
		{KindResearch, "research.md"},
		{KindDataModel, "data-model.md"},
		{KindContracts, "contracts"},
		{KindQuickstart, "quickstart.md"},
		{KindTasks, "tasks.md"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.FileName())
		})
	}
}

func TestKind_DisplayName(t *testing.T) {
	assert.Equal(t, "spec.md", KindSpec.DisplayName())
	assert.Equal(t, "contracts/", KindContracts.DisplayName())
}

func TestKind_IsDir(t *testing.T) {
	for _, k := range AllKinds() {
		if k == KindContracts {
			assert.True(t, k.IsDir())
		} else {
			assert.False(t, k.IsDir(), "kind %s", k)
		}
	}
}

func TestAllKinds_CanonicalOrder(t *testing.T) {
	want := []Kind{
		KindSpec, KindPlan, KindResearch, KindDataModel,
		KindContracts, KindQuickstart, KindTasks,
	}
	assert.Equal(t, want, AllKinds())
}

func TestOptionalKinds(t *testing.T) {
	want := []Kind{KindResearch, KindDataModel, KindContracts, KindQuickstart}
	assert.Equal(t, want, OptionalKinds())
}

func TestSet_Path(t *testing.T) {
	set := NewResolver("").Resolve("/repo", "001-add-auth")

	for _, k := range AllKinds() {
		assert.NotEmpty(t, set.Path(k), "kind %s", k)
	}
	assert.Equal(t, set.Spec, set.Path(KindSpec))
	assert.Equal(t, set.Contracts, set.Path(KindContracts))
	assert.Empty(t, set.Path(Kind("bogus")))
}
