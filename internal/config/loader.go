package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// ConfigDirName is the project-local configuration directory.
	ConfigDirName = ".specflow"

	// ConfigFileName is the configuration file inside ConfigDirName.
	ConfigFileName = "config.yaml"

	// envPrefix namespaces environment overrides.
	envPrefix = "SPECFLOW_"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

// Load loads configuration for the repository rooted at repoRoot.
func Load(repoRoot string) (*Config, error) {
	return LoadWithFile(filepath.Join(repoRoot, ConfigDirName, ConfigFileName))
}

// LoadWithFile loads configuration from a YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SPECFLOW_WORKFLOW_SPECS_DIR, SPECFLOW_LOGGING_LEVEL, etc.)
//  2. YAML config file (<repo>/.specflow/config.yaml)
//  3. Hardcoded defaults
//
// # Security Considerations
//
// File Permissions: the configuration file MUST have 0600 permissions
// (owner read/write only). Files with weaker permissions are rejected.
//
// Path Validation: only configuration files inside a .specflow directory
// or ~/.config/specflow/ can be loaded.
//
// File Size Limit: configuration files larger than 1MB are rejected to
// prevent resource exhaustion.
//
// # Environment Variable Mapping
//
// Environment variables use underscore separator and are uppercased.
// The transformer maps environment variables to YAML field names:
//
//	SPECFLOW_WORKFLOW_SPECS_DIR -> workflow.specs_dir
//	SPECFLOW_WORKFLOW_STATE_FILE -> workflow.state_file
//	SPECFLOW_LOGGING_LEVEL -> logging.level
//
// # Example
//
//	cfg, err := config.Load(repoRoot)
//	if err != nil {
//	    log.Fatal(err)
//	}
func LoadWithFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}

	// Validate config path (even if file doesn't exist)
	if err := validateConfigPath(configPath); err != nil {
		return nil, fmt.Errorf("config path validation failed: %w", err)
	}

	// Load from YAML file if it exists
	if _, err := os.Stat(configPath); err == nil {
		// Open file once and validate using file descriptor to avoid TOCTOU race
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		// Validate file properties using already-opened file descriptor
		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}

		if err := validateConfigFileProperties(info); err != nil {
			return nil, fmt.Errorf("config file validation failed: %w", err)
		}

		// Read content from already-opened file
		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Use rawbytes provider to avoid re-opening the file
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Override with environment variables
	// Example: SPECFLOW_WORKFLOW_STATE_FILE -> workflow.state_file
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		// Strategy: strip the prefix, then split on the first underscore
		// only (section.field_name pattern). Underscores stay intact in
		// the field name.
		//
		// Examples:
		//   SPECFLOW_WORKFLOW_SPECS_DIR -> workflow.specs_dir
		//   SPECFLOW_LOGGING_LEVEL -> logging.level
		//   SPECFLOW_OBSERVABILITY_SERVICE_NAME -> observability.service_name

		lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(lower, "_", 2)

		if len(parts) == 1 {
			// No underscore: not a section.field override (for example
			// SPECFLOW_FEATURE, which is read elsewhere)
			return lower
		}

		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for missing values
	applyDefaults(&cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// EnsureConfigDir creates the project config directory if it doesn't exist.
// Called by init so new repositories have the directory ready.
func EnsureConfigDir(repoRoot string) error {
	configDir := filepath.Join(repoRoot, ConfigDirName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", configDir, err)
	}
	return nil
}

// validateConfigPath checks if path is in an allowed location.
// This validation runs even if the file doesn't exist yet.
func validateConfigPath(path string) error {
	// Resolve to absolute path and follow symlinks to prevent path traversal
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	// Resolve symlinks to prevent attackers from using symlinks to escape allowed directories
	resolvedPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		// If symlink evaluation fails, continue with absPath
		// This allows validation of paths that dont exist yet
		resolvedPath = absPath
	}

	// Project-local config lives inside a .specflow directory
	if filepath.Base(filepath.Dir(resolvedPath)) == ConfigDirName {
		return nil
	}

	// Global fallback: ~/.config/specflow/
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	if strings.HasPrefix(resolvedPath, filepath.Join(home, ".config", "specflow")+string(filepath.Separator)) {
		return nil
	}

	return fmt.Errorf("config file must be in .specflow/ or ~/.config/specflow/")
}

// validateConfigFileProperties checks file permissions and size.
// This validation only runs if the file exists.
// Takes FileInfo from an already-opened file descriptor to avoid TOCTOU race.
func validateConfigFileProperties(info os.FileInfo) error {
	// Check file permissions (must be 0600 or 0400)
	// Skip on Windows (different permission model)
	if runtime.GOOS != "windows" {
		perm := info.Mode().Perm()
		if perm != 0600 && perm != 0400 {
			return fmt.Errorf("insecure config file permissions: %v (expected 0600 or 0400)", perm)
		}
	}

	// Check file size (max 1MB)
	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	// Workflow defaults
	if cfg.Workflow.SpecsDir == "" {
		cfg.Workflow.SpecsDir = "specs"
	}
	if cfg.Workflow.StateFile == "" {
		cfg.Workflow.StateFile = ".specflow-state.json"
	}
	if cfg.Workflow.Mode == "" {
		cfg.Workflow.Mode = ModeInteractive
	}
	if cfg.Workflow.WatchDebounce == 0 {
		cfg.Workflow.WatchDebounce = Duration(500 * time.Millisecond)
	}

	// Template defaults
	if cfg.Templates.Dir == "" {
		cfg.Templates.Dir = filepath.Join(ConfigDirName, "templates")
	}
	if cfg.Templates.Manifest == "" {
		cfg.Templates.Manifest = filepath.Join(ConfigDirName, "templates.toml")
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	// Observability defaults
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "specflow"
	}
	if cfg.Observability.Protocol == "" {
		cfg.Observability.Protocol = "grpc"
	}
}
