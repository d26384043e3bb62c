package template

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/fyrsmithlabs/specflow/internal/artifact"
)

// ErrInvalidManifest indicates the template manifest failed to parse or
// references an unknown artifact kind.
var ErrInvalidManifest = errors.New("invalid template manifest")

// Manifest maps artifact kinds to project template files.
//
// TOML shape:
//
//	[templates]
//	spec = "docs/spec-template.md"
//	plan = ".specflow/templates/company-plan.md"
type Manifest struct {
	Overrides map[artifact.Kind]string
}

// LoadManifest reads the manifest at path. A missing file yields an empty
// manifest. A present but invalid one is an error.
func LoadManifest(path string) (*Manifest, error) {
	manifest := &Manifest{Overrides: map[artifact.Kind]string{}}
	if path == "" {
		return manifest, nil
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return manifest, nil
		}
		return nil, fmt.Errorf("failed to stat template manifest: %w", err)
	}

	var doc struct {
		Templates map[string]string `toml:"templates"`
	}
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidManifest, path, err)
	}

	for name, target := range doc.Templates {
		kind := artifact.Kind(name)
		if !validKind(kind) {
			return nil, fmt.Errorf("%w: unknown artifact kind %q in %s", ErrInvalidManifest, name, path)
		}
		if kind.IsDir() {
			return nil, fmt.Errorf("%w: directory artifact %q cannot have a template", ErrInvalidManifest, name)
		}
		if target == "" || filepath.IsAbs(target) || strings.Contains(target, "..") {
			return nil, fmt.Errorf("%w: template path for %q must be relative to the repository root: %q", ErrInvalidManifest, name, target)
		}
		manifest.Overrides[kind] = target
	}

	return manifest, nil
}

func validKind(kind artifact.Kind) bool {
	for _, k := range artifact.AllKinds() {
		if k == kind {
			return true
		}
	}
	return false
}
