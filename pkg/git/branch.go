// Package git provides branch detection and creation for feature
// workflows.
//
// Helpers degrade predictably outside version control: callers can treat
// ErrNotGitRepo as "fall back to directory-based resolution" rather than a
// failure.
package git

import (
	"errors"
	"fmt"
	"regexp"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

var (
	// ErrNotGitRepo indicates the path is not inside a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrHeadNotFound indicates HEAD could not be resolved (for example an
	// unborn branch with no commits).
	ErrHeadNotFound = errors.New("HEAD not found")
)

// DetachedBranch is returned by DetectBranch when HEAD does not point at
// a branch.
const DetachedBranch = "detached"

// featureBranchPattern matches branches named like feature directories
// (three digits and a hyphen, for example 003-user-auth).
var featureBranchPattern = regexp.MustCompile(`^\d{3}-`)

// open opens the repository containing path, walking up to find .git.
func open(path string) (*gogit.Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotGitRepo, path)
	}
	return repo, nil
}

// FindRepoRoot returns the worktree root of the repository containing
// path.
func FindRepoRoot(path string) (string, error) {
	repo, err := open(path)
	if err != nil {
		return "", err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to open worktree: %w", err)
	}

	return wt.Filesystem.Root(), nil
}

// DetectBranch returns the checked-out branch name for the repository
// containing path. Returns DetachedBranch when HEAD points at a commit
// instead of a branch.
func DetectBranch(path string) (string, error) {
	repo, err := open(path)
	if err != nil {
		return "", err
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHeadNotFound, err)
	}

	// head.Name() returns refs/heads/branch-name format
	if head.Name().IsBranch() {
		return head.Name().Short(), nil
	}

	return DetachedBranch, nil
}

// CreateBranch creates a branch at the current HEAD and checks it out.
func CreateBranch(path, name string) error {
	repo, err := open(path)
	if err != nil {
		return err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}

	if err := wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
	}); err != nil {
		return fmt.Errorf("failed to create branch %q: %w", name, err)
	}

	return nil
}

// HasVersionControl reports whether path is inside a git repository.
func HasVersionControl(path string) bool {
	_, err := open(path)
	return err == nil
}

// IsFeatureBranch reports whether branch follows the NNN-slug naming
// used for feature work.
func IsFeatureBranch(branch string) bool {
	return featureBranchPattern.MatchString(branch)
}

// IsMainBranch returns true for conventional default branch names.
func IsMainBranch(branch string) bool {
	return branch == "main" || branch == "master"
}
