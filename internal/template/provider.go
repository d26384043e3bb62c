package template

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/specflow/internal/artifact"
)

// ErrDestinationExists indicates CreateFromTemplate would overwrite an
// existing artifact.
var ErrDestinationExists = errors.New("destination already exists")

// Config holds provider settings. Paths are relative to RepoRoot.
type Config struct {
	// RepoRoot is the repository root directory.
	RepoRoot string

	// Dir holds project template files named "<kind>-template.md".
	// Defaults to .specflow/templates.
	Dir string

	// Manifest is the optional TOML manifest mapping kinds to template
	// files. Defaults to .specflow/templates.toml.
	Manifest string
}

// Provider materializes artifacts from templates.
type Provider struct {
	repoRoot string
	dir      string
	manifest *Manifest
}

// NewProvider creates a provider, loading the manifest when present.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.RepoRoot == "" {
		return nil, errors.New("repository root is required")
	}
	if cfg.Dir == "" {
		cfg.Dir = filepath.Join(".specflow", "templates")
	}
	if cfg.Manifest == "" {
		cfg.Manifest = filepath.Join(".specflow", "templates.toml")
	}

	manifest, err := LoadManifest(filepath.Join(cfg.RepoRoot, cfg.Manifest))
	if err != nil {
		return nil, err
	}

	return &Provider{
		repoRoot: cfg.RepoRoot,
		dir:      filepath.Join(cfg.RepoRoot, cfg.Dir),
		manifest: manifest,
	}, nil
}

// CreateFromTemplate materializes the artifact for kind at dest. An
// existing dest is never overwritten. Directory kinds are created empty,
// as are file kinds with no template source.
func (p *Provider) CreateFromTemplate(kind artifact.Kind, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dest)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", dest, err)
	}

	if kind.IsDir() {
		if err := os.MkdirAll(dest, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dest, err)
		}
		return nil
	}

	content, err := p.content(kind)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create parent of %s: %w", dest, err)
	}
	if err := os.WriteFile(dest, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return nil
}

// content resolves the template text for kind. A manifest override that
// points at a missing file is an error; a missing conventional file
// falls back to the embedded default.
func (p *Provider) content(kind artifact.Kind) (string, error) {
	if override, ok := p.manifest.Overrides[kind]; ok {
		data, err := os.ReadFile(filepath.Join(p.repoRoot, override))
		if err != nil {
			return "", fmt.Errorf("failed to read template override for %s: %w", kind, err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(filepath.Join(p.dir, templateFileName(kind)))
	if err == nil {
		return string(data), nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read template for %s: %w", kind, err)
	}

	return defaultContent(kind), nil
}

// InstallDefaults writes the embedded templates into the template
// directory, skipping files that exist unless force is set. It returns
// the paths written.
func (p *Provider) InstallDefaults(force bool) ([]string, error) {
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create template directory %s: %w", p.dir, err)
	}

	var written []string
	for _, kind := range DefaultKinds() {
		path := filepath.Join(p.dir, templateFileName(kind))
		if !force {
			if _, err := os.Stat(path); err == nil {
				continue
			}
		}
		if err := os.WriteFile(path, []byte(defaultContent(kind)), 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// Dir returns the absolute template directory.
func (p *Provider) Dir() string {
	return p.dir
}

// templateFileName is the conventional project file for kind.
func templateFileName(kind artifact.Kind) string {
	return string(kind) + "-template.md"
}
