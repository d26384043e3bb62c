package git

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initRepo creates a git repository with one commit and returns its path.
func initRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	readme := filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(readme, []byte("# test\n"), 0644))

	_, err = wt.Add("README.md")
	require.NoError(t, err)

	_, err = wt.Commit("initial commit", &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)

	return dir
}

func TestDetectBranch_NotARepo(t *testing.T) {
	_, err := DetectBranch(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotGitRepo))
}

func TestDetectBranch_OnBranch(t *testing.T) {
	dir := initRepo(t)

	branch, err := DetectBranch(dir)
	require.NoError(t, err)
	assert.Equal(t, "master", branch)
}

func TestDetectBranch_FromSubdirectory(t *testing.T) {
	dir := initRepo(t)
	sub := filepath.Join(dir, "specs", "001-auth")
	require.NoError(t, os.MkdirAll(sub, 0755))

	branch, err := DetectBranch(sub)
	require.NoError(t, err)
	assert.Equal(t, "master", branch)
}

func TestDetectBranch_UnbornHead(t *testing.T) {
	dir := t.TempDir()
	_, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	_, err = DetectBranch(dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrHeadNotFound))
}

func TestDetectBranch_DetachedHead(t *testing.T) {
	dir := initRepo(t)

	repo, err := gogit.PlainOpen(dir)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.Checkout(&gogit.CheckoutOptions{Hash: head.Hash()}))

	branch, err := DetectBranch(dir)
	require.NoError(t, err)
	assert.Equal(t, DetachedBranch, branch)
}

func TestFindRepoRoot(t *testing.T) {
	dir := initRepo(t)
	sub := filepath.Join(dir, "specs", "001-auth")
	require.NoError(t, os.MkdirAll(sub, 0755))

	root, err := FindRepoRoot(sub)
	require.NoError(t, err)

	wantRoot, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	gotRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	assert.Equal(t, wantRoot, gotRoot)
}

func TestFindRepoRoot_NotARepo(t *testing.T) {
	_, err := FindRepoRoot(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotGitRepo))
}

func TestCreateBranch(t *testing.T) {
	dir := initRepo(t)

	require.NoError(t, CreateBranch(dir, "001-add-oauth2-login"))

	branch, err := DetectBranch(dir)
	require.NoError(t, err)
	assert.Equal(t, "001-add-oauth2-login", branch)
}

func TestCreateBranch_NotARepo(t *testing.T) {
	err := CreateBranch(t.TempDir(), "001-auth")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotGitRepo))
}

func TestCreateBranch_DuplicateFails(t *testing.T) {
	dir := initRepo(t)

	require.NoError(t, CreateBranch(dir, "001-auth"))
	assert.Error(t, CreateBranch(dir, "001-auth"))
}

func TestHasVersionControl(t *testing.T) {
	assert.True(t, HasVersionControl(initRepo(t)))
	assert.False(t, HasVersionControl(t.TempDir()))
}

func TestIsFeatureBranch(t *testing.T) {
	tests := []struct {
		branch string
		want   bool
	}{
		{branch: "001-add-oauth2-login", want: true},
		{branch: "042-auth", want: true},
		{branch: "main", want: false},
		{branch: "42-auth", want: false},
		{branch: "0001-auth", want: false},
		{branch: "feature/001-auth", want: false},
		{branch: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.branch, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFeatureBranch(tt.branch))
		})
	}
}

func TestIsMainBranch(t *testing.T) {
	assert.True(t, IsMainBranch("main"))
	assert.True(t, IsMainBranch("master"))
	assert.False(t, IsMainBranch("001-auth"))
	assert.False(t, IsMainBranch("develop"))
}
