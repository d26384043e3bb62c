// Package config provides configuration loading for specflow.
//
// Configuration is loaded from a project-local YAML file with environment
// variable overrides. This package covers workflow, template, logging, and
// observability settings.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Config holds the complete specflow configuration.
type Config struct {
	Workflow      WorkflowConfig      `koanf:"workflow"`
	Templates     TemplatesConfig     `koanf:"templates"`
	Logging       LoggingConfig       `koanf:"logging"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// WorkflowConfig holds workflow engine configuration.
type WorkflowConfig struct {
	// SpecsDir is the feature directory root, relative to the repository root.
	SpecsDir string `koanf:"specs_dir"`

	// StateFile is the workflow state document, relative to the repository root.
	StateFile string `koanf:"state_file"`

	// Mode is the default execution mode: interactive, staged, or unattended.
	Mode string `koanf:"mode"`

	// DeleteStateOnDone removes the state file after the done phase instead
	// of archiving it.
	DeleteStateOnDone bool `koanf:"delete_state_on_done"`

	// SkipBranch disables git branch creation when allocating a feature.
	SkipBranch bool `koanf:"skip_branch"`

	// WatchDebounce bounds how often task file changes are re-parsed.
	WatchDebounce Duration `koanf:"watch_debounce"`
}

// TemplatesConfig holds artifact template configuration.
type TemplatesConfig struct {
	// Dir holds project template files, relative to the repository root.
	Dir string `koanf:"dir"`

	// Manifest is the optional TOML manifest mapping artifact kinds to
	// template files, relative to the repository root.
	Manifest string `koanf:"manifest"`
}

// LoggingConfig holds the logging section. It is mapped onto the logging
// package's config at startup.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry bool   `koanf:"enable_telemetry"`
	ServiceName     string `koanf:"service_name"`
	Endpoint        string `koanf:"endpoint"`
	Protocol        string `koanf:"protocol"`
}

// Modes accepted by WorkflowConfig.Mode.
const (
	ModeInteractive = "interactive"
	ModeStaged      = "staged"
	ModeUnattended  = "unattended"
)

// Validate validates the configuration.
//
// Returns an error if:
//   - Workflow mode is not interactive, staged, or unattended
//   - Specs dir or state file is absolute or escapes the repository
//   - Watch debounce is not positive
//   - Service name is empty when telemetry is enabled
func (c *Config) Validate() error {
	switch c.Workflow.Mode {
	case ModeInteractive, ModeStaged, ModeUnattended:
	default:
		return fmt.Errorf("invalid workflow mode: %q (must be interactive, staged, or unattended)", c.Workflow.Mode)
	}

	if err := validateRelativePath("workflow.specs_dir", c.Workflow.SpecsDir); err != nil {
		return err
	}
	if err := validateRelativePath("workflow.state_file", c.Workflow.StateFile); err != nil {
		return err
	}
	if err := validateRelativePath("templates.dir", c.Templates.Dir); err != nil {
		return err
	}
	if err := validateRelativePath("templates.manifest", c.Templates.Manifest); err != nil {
		return err
	}

	if c.Workflow.WatchDebounce.Duration() <= 0 {
		return errors.New("watch debounce must be positive")
	}

	if c.Observability.EnableTelemetry && c.Observability.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}
	switch c.Observability.Protocol {
	case "", "grpc", "http/protobuf":
	default:
		return fmt.Errorf("invalid observability protocol: %q (must be grpc or http/protobuf)", c.Observability.Protocol)
	}

	return nil
}

// validateRelativePath rejects absolute paths and traversal so configured
// locations stay inside the repository.
func validateRelativePath(field, path string) error {
	if path == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	if filepath.IsAbs(path) {
		return fmt.Errorf("%s must be relative to the repository root: %q", field, path)
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("%s must not contain '..': %q", field, path)
	}
	return nil
}
