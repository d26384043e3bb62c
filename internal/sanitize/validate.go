// Package sanitize provides slug derivation and input validation.
package sanitize

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Validation errors for security checks.
var (
	// ErrPathTraversal indicates a path contains directory traversal sequences.
	ErrPathTraversal = errors.New("path contains directory traversal")

	// ErrInvalidFeatureDir indicates a feature directory name is malformed.
	ErrInvalidFeatureDir = errors.New("invalid feature directory name")

	// ErrEmptyPath indicates an empty path was provided.
	ErrEmptyPath = errors.New("path cannot be empty")
)

// featureDirPattern matches feature directory names: three digits, a
// hyphen, and a slug.
var featureDirPattern = regexp.MustCompile(`^\d{3}-[a-z0-9][a-z0-9-]*$`)

// ValidateFeatureDir checks that a feature directory name is safe to join
// onto the specs root. Names arrive from branch names, environment
// overrides, and command flags, so they are treated as untrusted input.
func ValidateFeatureDir(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidFeatureDir)
	}

	if len(name) > 255 {
		return fmt.Errorf("%w: exceeds 255 characters", ErrInvalidFeatureDir)
	}

	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("%w: contains path separators", ErrInvalidFeatureDir)
	}

	if strings.Contains(name, "..") {
		return fmt.Errorf("%w: contains traversal sequence", ErrInvalidFeatureDir)
	}

	if filepath.Clean(name) != name {
		return fmt.Errorf("%w: not a clean path element", ErrInvalidFeatureDir)
	}

	if !featureDirPattern.MatchString(name) {
		return fmt.Errorf("%w: must match NNN-slug, got %q", ErrInvalidFeatureDir, name)
	}

	return nil
}

// ValidatePath checks a path for security issues:
//   - No directory traversal (..)
//   - Resolves to absolute path and validates it stays within expected root
//   - Returns the cleaned, absolute path or an error
//
// If allowedRoot is empty, only traversal checks are performed.
// If allowedRoot is provided, the path must resolve within that directory.
func ValidatePath(path, allowedRoot string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}

	// Check for obvious traversal patterns before any processing
	if strings.Contains(path, "..") {
		return "", fmt.Errorf("%w: contains '..'", ErrPathTraversal)
	}

	cleanPath := filepath.Clean(path)

	// Re-check after cleaning (handles edge cases like "foo/../..")
	if strings.Contains(cleanPath, "..") {
		return "", fmt.Errorf("%w: resolves to traversal", ErrPathTraversal)
	}

	absPath := cleanPath
	if !filepath.IsAbs(cleanPath) {
		var err error
		absPath, err = filepath.Abs(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
	}

	if strings.Contains(absPath, "..") {
		return "", fmt.Errorf("%w: absolute path contains traversal", ErrPathTraversal)
	}

	if allowedRoot != "" {
		absRoot, err := filepath.Abs(allowedRoot)
		if err != nil {
			return "", fmt.Errorf("failed to resolve allowed root: %w", err)
		}

		// Use filepath.Rel to check the containment relationship
		rel, err := filepath.Rel(absRoot, absPath)
		if err != nil {
			return "", fmt.Errorf("%w: path outside allowed root", ErrPathTraversal)
		}

		if strings.HasPrefix(rel, "..") {
			return "", fmt.Errorf("%w: path escapes allowed root", ErrPathTraversal)
		}
	}

	return absPath, nil
}
