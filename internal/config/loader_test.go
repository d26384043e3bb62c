package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeProjectConfig creates a .specflow/config.yaml under a temp repo root
// and returns both paths.
func writeProjectConfig(t *testing.T, content string, perm os.FileMode) (string, string) {
	t.Helper()

	repoRoot := t.TempDir()
	configDir := filepath.Join(repoRoot, ConfigDirName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}

	configPath := filepath.Join(configDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte(content), perm); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	return repoRoot, configPath
}

func TestLoad_ValidYAML(t *testing.T) {
	yamlContent := `workflow:
  specs_dir: features
  mode: unattended
  watch_debounce: 1s

logging:
  level: debug
  format: json

observability:
  enable_telemetry: true
  service_name: specflow-test
`

	repoRoot, _ := writeProjectConfig(t, yamlContent, 0600)

	cfg, err := Load(repoRoot)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Workflow.SpecsDir != "features" {
		t.Errorf("Workflow.SpecsDir = %q, want %q", cfg.Workflow.SpecsDir, "features")
	}
	if cfg.Workflow.Mode != ModeUnattended {
		t.Errorf("Workflow.Mode = %q, want %q", cfg.Workflow.Mode, ModeUnattended)
	}
	if cfg.Workflow.WatchDebounce.Duration() != time.Second {
		t.Errorf("Workflow.WatchDebounce = %v, want 1s", cfg.Workflow.WatchDebounce.Duration())
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if !cfg.Observability.EnableTelemetry {
		t.Error("Observability.EnableTelemetry = false, want true")
	}
	if cfg.Observability.ServiceName != "specflow-test" {
		t.Errorf("Observability.ServiceName = %q, want %q", cfg.Observability.ServiceName, "specflow-test")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	repoRoot := t.TempDir()

	cfg, err := Load(repoRoot)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Workflow.SpecsDir != "specs" {
		t.Errorf("Workflow.SpecsDir = %q, want %q", cfg.Workflow.SpecsDir, "specs")
	}
	if cfg.Workflow.StateFile != ".specflow-state.json" {
		t.Errorf("Workflow.StateFile = %q, want %q", cfg.Workflow.StateFile, ".specflow-state.json")
	}
	if cfg.Workflow.Mode != ModeInteractive {
		t.Errorf("Workflow.Mode = %q, want %q", cfg.Workflow.Mode, ModeInteractive)
	}
	if cfg.Workflow.WatchDebounce.Duration() != 500*time.Millisecond {
		t.Errorf("Workflow.WatchDebounce = %v, want 500ms", cfg.Workflow.WatchDebounce.Duration())
	}
	if cfg.Templates.Dir != filepath.Join(ConfigDirName, "templates") {
		t.Errorf("Templates.Dir = %q, want %q", cfg.Templates.Dir, filepath.Join(ConfigDirName, "templates"))
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "warn")
	}
	if cfg.Observability.ServiceName != "specflow" {
		t.Errorf("Observability.ServiceName = %q, want %q", cfg.Observability.ServiceName, "specflow")
	}
	if cfg.Observability.Protocol != "grpc" {
		t.Errorf("Observability.Protocol = %q, want %q", cfg.Observability.Protocol, "grpc")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	yamlContent := `workflow:
  specs_dir: features
`
	repoRoot, _ := writeProjectConfig(t, yamlContent, 0600)

	t.Setenv("SPECFLOW_WORKFLOW_SPECS_DIR", "work-items")
	t.Setenv("SPECFLOW_LOGGING_LEVEL", "trace")

	cfg, err := Load(repoRoot)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.Workflow.SpecsDir != "work-items" {
		t.Errorf("Workflow.SpecsDir = %q, want env override %q", cfg.Workflow.SpecsDir, "work-items")
	}
	if cfg.Logging.Level != "trace" {
		t.Errorf("Logging.Level = %q, want env override %q", cfg.Logging.Level, "trace")
	}
}

func TestLoadWithFile_RejectsWeakPermissions(t *testing.T) {
	_, configPath := writeProjectConfig(t, "workflow:\n  mode: staged\n", 0644)

	_, err := LoadWithFile(configPath)
	if err == nil {
		t.Fatal("LoadWithFile() expected permission error, got nil")
	}
	if !strings.Contains(err.Error(), "insecure config file permissions") {
		t.Errorf("LoadWithFile() error = %v, want permission error", err)
	}
}

func TestLoadWithFile_RejectsOversizedFile(t *testing.T) {
	big := "# padding\n" + strings.Repeat("x", maxConfigFileSize)
	_, configPath := writeProjectConfig(t, big, 0600)

	_, err := LoadWithFile(configPath)
	if err == nil {
		t.Fatal("LoadWithFile() expected size error, got nil")
	}
	if !strings.Contains(err.Error(), "too large") {
		t.Errorf("LoadWithFile() error = %v, want size error", err)
	}
}

func TestLoadWithFile_RejectsDisallowedPath(t *testing.T) {
	tmp := t.TempDir()
	configPath := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(configPath, []byte("workflow: {}\n"), 0600); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadWithFile(configPath)
	if err == nil {
		t.Fatal("LoadWithFile() expected path validation error, got nil")
	}
	if !strings.Contains(err.Error(), "config file must be in") {
		t.Errorf("LoadWithFile() error = %v, want path validation error", err)
	}
}

func TestLoadWithFile_InvalidYAML(t *testing.T) {
	_, configPath := writeProjectConfig(t, "workflow: [unbalanced\n", 0600)

	_, err := LoadWithFile(configPath)
	if err == nil {
		t.Fatal("LoadWithFile() expected parse error, got nil")
	}
}

func TestLoadWithFile_InvalidModeRejected(t *testing.T) {
	_, configPath := writeProjectConfig(t, "workflow:\n  mode: yolo\n", 0600)

	_, err := LoadWithFile(configPath)
	if err == nil {
		t.Fatal("LoadWithFile() expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "invalid workflow mode") {
		t.Errorf("LoadWithFile() error = %v, want mode validation error", err)
	}
}

func TestEnsureConfigDir(t *testing.T) {
	repoRoot := t.TempDir()

	if err := EnsureConfigDir(repoRoot); err != nil {
		t.Fatalf("EnsureConfigDir() error = %v", err)
	}

	info, err := os.Stat(filepath.Join(repoRoot, ConfigDirName))
	if err != nil {
		t.Fatalf("config dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("config path is not a directory")
	}

	// Second call is a no-op
	if err := EnsureConfigDir(repoRoot); err != nil {
		t.Fatalf("EnsureConfigDir() second call error = %v", err)
	}
}
