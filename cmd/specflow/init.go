package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/specflow/internal/config"
	"github.com/fyrsmithlabs/specflow/internal/template"
)

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing configuration and templates")
}

// initCmd scaffolds the .specflow directory
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize specflow in this repository",
	Long: `Initialize the .specflow directory for this repository.

Creates the configuration file, installs the default artifact templates,
and creates the memory directory that holds the project principles
document. Existing files are kept unless --force is given.

Examples:
  # Initialize the current repository
  specflow init

  # Reinstall the default configuration and templates
  specflow init --force`,
	RunE: runInit,
}

// initReport is the structured result of an init run.
type initReport struct {
	ConfigFile       string   `json:"config_file"`
	ConfigWritten    bool     `json:"config_written"`
	TemplatesDir     string   `json:"templates_dir"`
	TemplatesWritten []string `json:"templates_written,omitempty"`
	MemoryDir        string   `json:"memory_dir"`
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := resolveRepoRoot()
	if err != nil {
		return err
	}

	if err := config.EnsureConfigDir(root); err != nil {
		return err
	}

	configPath := filepath.Join(root, config.ConfigDirName, config.ConfigFileName)
	configWritten, err := writeDefaultConfig(configPath, initForce)
	if err != nil {
		return err
	}

	// Load the now-present configuration so a customized templates
	// directory is honored on re-init.
	cfg, err := config.Load(root)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	provider, err := template.NewProvider(template.Config{
		RepoRoot: root,
		Dir:      cfg.Templates.Dir,
		Manifest: cfg.Templates.Manifest,
	})
	if err != nil {
		return fmt.Errorf("failed to create template provider: %w", err)
	}

	written, err := provider.InstallDefaults(initForce)
	if err != nil {
		return fmt.Errorf("failed to install templates: %w", err)
	}

	memoryDir := filepath.Join(root, config.ConfigDirName, "memory")
	if err := os.MkdirAll(memoryDir, 0755); err != nil {
		return fmt.Errorf("failed to create memory directory: %w", err)
	}

	report := &initReport{
		ConfigFile:       configPath,
		ConfigWritten:    configWritten,
		TemplatesDir:     provider.Dir(),
		TemplatesWritten: written,
		MemoryDir:        memoryDir,
	}

	if outputAsJSON {
		return outputJSON(report)
	}

	if configWritten {
		cmd.Printf("Wrote %s\n", configPath)
	} else {
		cmd.Printf("Kept %s (use --force to overwrite)\n", configPath)
	}
	for _, path := range written {
		cmd.Printf("Wrote %s\n", path)
	}
	if len(written) == 0 {
		cmd.Printf("Kept templates in %s (use --force to overwrite)\n", provider.Dir())
	}
	cmd.Printf("Ready. Create a feature with: specflow feature new <description>\n")

	return nil
}

// writeDefaultConfig writes the starter configuration file unless it
// already exists. The loader requires owner-only permissions.
func writeDefaultConfig(path string, force bool) (bool, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		} else if !os.IsNotExist(err) {
			return false, fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}

	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0600); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

// defaultConfigYAML documents every setting at its default. Uncommenting
// a line changes it; SPECFLOW_* environment variables override the file.
const defaultConfigYAML = `# specflow configuration.
#
# Values shown are the defaults. Uncomment a line to change it.
# Environment variables override this file, for example:
#   SPECFLOW_WORKFLOW_MODE=unattended

# workflow:
#   specs_dir: specs
#   state_file: .specflow-state.json
#   mode: interactive          # interactive | staged | unattended
#   delete_state_on_done: false
#   skip_branch: false
#   watch_debounce: 500ms

# templates:
#   dir: .specflow/templates
#   manifest: .specflow/templates.toml

# logging:
#   level: warn                # trace | debug | info | warn | error
#   format: console            # console | json

# observability:
#   enable_telemetry: false
#   service_name: specflow
#   endpoint: localhost:4317
#   protocol: grpc             # grpc | http/protobuf
`
