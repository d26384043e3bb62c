// Package main implements the specflow CLI for driving spec-first
// feature workflows.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/specflow/internal/artifact"
	"github.com/fyrsmithlabs/specflow/internal/config"
	"github.com/fyrsmithlabs/specflow/internal/feature"
	"github.com/fyrsmithlabs/specflow/internal/hooks"
	"github.com/fyrsmithlabs/specflow/internal/logging"
	"github.com/fyrsmithlabs/specflow/internal/orchestrator"
	"github.com/fyrsmithlabs/specflow/internal/services"
	"github.com/fyrsmithlabs/specflow/internal/state"
	"github.com/fyrsmithlabs/specflow/internal/telemetry"
	"github.com/fyrsmithlabs/specflow/internal/template"
	"github.com/fyrsmithlabs/specflow/pkg/git"
)

var (
	// repoRootFlag overrides repository root detection
	repoRootFlag string
	// featureOverride selects the feature explicitly instead of branch
	// or directory detection
	featureOverride string
	// outputAsJSON switches query commands to structured output
	outputAsJSON bool
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "specflow",
	Short: "Drive features through the spec-first workflow",
	Long: `specflow drives a feature through the spec-first workflow:
principles, specify, clarify, plan, tasks, analyze, implement.

Each phase seeds or checks the feature's artifacts under the specs
directory and checkpoints progress, so an interrupted run resumes at the
phase where it stopped.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&repoRootFlag, "repo-root", "", "repository root (default: git discovery from the working directory)")
	rootCmd.PersistentFlags().StringVar(&featureOverride, "feature", "", "feature to operate on (default: current branch, then highest numbered)")
	rootCmd.PersistentFlags().BoolVar(&outputAsJSON, "json", false, "output results as JSON")
}

// Exit codes per error kind, so scripts can branch on the failure class.
const (
	exitFailure           = 1
	exitNoFeature         = 2
	exitAmbiguousFeature  = 3
	exitMissingArtifact   = 4
	exitStateCorrupted    = 5
	exitPhaseFailed       = 6
	exitInvalidTransition = 7
)

// exitCode maps an error to its exit code.
func exitCode(err error) int {
	switch {
	case errors.Is(err, feature.ErrNoFeatureContext):
		return exitNoFeature
	case errors.Is(err, feature.ErrAmbiguousFeature):
		return exitAmbiguousFeature
	case errors.Is(err, artifact.ErrMissingArtifact):
		return exitMissingArtifact
	case errors.Is(err, state.ErrStateCorrupted):
		return exitStateCorrupted
	case errors.Is(err, orchestrator.ErrPhaseExecutionFailed):
		return exitPhaseFailed
	case errors.Is(err, orchestrator.ErrInvalidModeTransition):
		return exitInvalidTransition
	default:
		return exitFailure
	}
}

// workspace holds the wired service graph for one command invocation.
type workspace struct {
	root     string
	cfg      *config.Config
	logger   *logging.Logger
	telem    *telemetry.Telemetry
	registry services.Registry
}

// Close releases workspace resources.
func (w *workspace) Close() {
	if w.telem != nil {
		_ = w.telem.Shutdown(context.Background())
	}
	if w.logger != nil {
		_ = w.logger.Sync() // Best-effort sync
	}
}

// openWorkspace locates the repository, loads configuration, and wires
// the service graph. Callers must Close the returned workspace.
func openWorkspace(ctx context.Context) (*workspace, error) {
	root, err := resolveRepoRoot()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	telem, err := initTelemetry(ctx, cfg)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	registry, err := initServices(root, cfg, logger)
	if err != nil {
		_ = telem.Shutdown(ctx)
		_ = logger.Sync()
		return nil, err
	}

	return &workspace{
		root:     root,
		cfg:      cfg,
		logger:   logger,
		telem:    telem,
		registry: registry,
	}, nil
}

// resolveRepoRoot locates the repository root: the --repo-root flag,
// then git discovery from the working directory, then the working
// directory itself.
func resolveRepoRoot() (string, error) {
	if repoRootFlag != "" {
		abs, err := filepath.Abs(repoRootFlag)
		if err != nil {
			return "", fmt.Errorf("failed to resolve repo root %q: %w", repoRootFlag, err)
		}
		return abs, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	if root, err := git.FindRepoRoot(cwd); err == nil {
		return root, nil
	}
	return cwd, nil
}

// initLogger builds the structured logger from the logging section.
func initLogger(cfg *config.Config) (*logging.Logger, error) {
	level, err := logging.LevelFromString(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	logCfg := logging.NewDefaultConfig()
	logCfg.Level = level
	logCfg.Format = cfg.Logging.Format
	return logging.NewLogger(logCfg)
}

// initTelemetry builds telemetry from the observability section. When
// telemetry is disabled this returns a no-op instance.
func initTelemetry(ctx context.Context, cfg *config.Config) (*telemetry.Telemetry, error) {
	tcfg := telemetry.NewDefaultConfig()
	tcfg.Enabled = cfg.Observability.EnableTelemetry
	tcfg.ServiceVersion = version
	if cfg.Observability.ServiceName != "" {
		tcfg.ServiceName = cfg.Observability.ServiceName
	}
	if cfg.Observability.Endpoint != "" {
		tcfg.Endpoint = cfg.Observability.Endpoint
	}
	if cfg.Observability.Protocol != "" {
		tcfg.Protocol = cfg.Observability.Protocol
	}
	return telemetry.New(ctx, tcfg)
}

// initServices wires the service graph: resolver, templates, features,
// state store, hooks, and the orchestrator over a scaffold executor.
func initServices(root string, cfg *config.Config, logger *logging.Logger) (services.Registry, error) {
	resolver := artifact.NewResolver(cfg.Workflow.SpecsDir)

	provider, err := template.NewProvider(template.Config{
		RepoRoot: root,
		Dir:      cfg.Templates.Dir,
		Manifest: cfg.Templates.Manifest,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create template provider: %w", err)
	}

	features, err := feature.NewService(&feature.Config{RepoRoot: root}, resolver, provider, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create feature service: %w", err)
	}

	store, err := state.NewFileStore(filepath.Join(root, cfg.Workflow.StateFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create state store: %w", err)
	}

	hookManager := hooks.NewManager()
	registerLifecycleHooks(hookManager, logger)

	executor, err := orchestrator.NewScaffoldExecutor(provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create phase executor: %w", err)
	}

	orch, err := orchestrator.New(&orchestrator.Config{
		RepoRoot:          root,
		SpecsDir:          cfg.Workflow.SpecsDir,
		Mode:              cfg.Workflow.Mode,
		DeleteStateOnDone: cfg.Workflow.DeleteStateOnDone,
	}, features, store, executor, hookManager, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	return services.NewRegistry(services.Options{
		Features:     features,
		Orchestrator: orch,
		Store:        store,
		Templates:    provider,
		Resolver:     resolver,
		Hooks:        hookManager,
	}), nil
}

// registerLifecycleHooks attaches logging handlers for every workflow
// lifecycle event.
func registerLifecycleHooks(mgr *hooks.Manager, logger *logging.Logger) {
	record := func(msg string) hooks.Handler {
		return func(ctx context.Context, event hooks.Event) error {
			fields := []zap.Field{zap.String("feature", event.Feature)}
			if event.Phase != "" {
				fields = append(fields, zap.String("phase", event.Phase))
			}
			if len(event.Data) > 0 {
				fields = append(fields, zap.Any("data", event.Data))
			}
			logger.Debug(ctx, msg, fields...)
			return nil
		}
	}

	mgr.Register(hooks.TypeFeatureCreated, record("feature created"))
	mgr.Register(hooks.TypePhaseStart, record("phase started"))
	mgr.Register(hooks.TypePhaseComplete, record("phase completed"))
	mgr.Register(hooks.TypePhaseFailed, record("phase failed"))
	mgr.Register(hooks.TypeWorkflowDone, record("workflow done"))
}

func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
