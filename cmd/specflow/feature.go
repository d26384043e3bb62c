package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/specflow/internal/feature"
	"github.com/fyrsmithlabs/specflow/internal/hooks"
)

var featureNoBranch bool

func init() {
	rootCmd.AddCommand(featureCmd)
	featureCmd.AddCommand(featureNewCmd)
	featureCmd.AddCommand(featureCurrentCmd)
	featureCmd.AddCommand(featureListCmd)

	featureNewCmd.Flags().BoolVar(&featureNoBranch, "no-branch", false, "Do not create a git branch for the feature")
}

var featureCmd = &cobra.Command{
	Use:   "feature",
	Short: "Manage features",
	Long: `Manage numbered features and their directories.

A feature is a numbered unit of work: directory <number>-<slug> under the
specs directory and, when the repository has version control, a branch of
the same name.

Examples:
  # Allocate the next feature from a description
  specflow feature new "user authentication"

  # Show the feature the other commands would operate on
  specflow feature current

  # List all features
  specflow feature list`,
}

var featureNewCmd = &cobra.Command{
	Use:   "new <description>",
	Short: "Allocate the next numbered feature",
	Long: `Allocate the next numbered feature from a free-text description.

The description becomes the feature slug. The feature directory is
created under the specs directory with a seeded specification, and a git
branch of the same name is created and checked out unless --no-branch is
given or the repository has no version control.

Examples:
  # Allocate a feature and switch to its branch
  specflow feature new "user authentication"

  # Allocate without touching git
  specflow feature new --no-branch "user authentication"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFeatureNew,
}

var featureCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the current feature",
	Long: `Show the feature other commands would operate on.

Resolution order: the --feature flag, the SPECFLOW_FEATURE environment
variable, the current git branch, then the highest numbered feature
directory.

Examples:
  specflow feature current
  specflow feature current --json`,
	RunE: runFeatureCurrent,
}

var featureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all features",
	Long: `List every feature directory, sorted by number.

Examples:
  specflow feature list
  specflow feature list --json`,
	RunE: runFeatureList,
}

func runFeatureNew(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	req := &feature.AllocateRequest{
		Description:  strings.Join(args, " "),
		CreateBranch: !featureNoBranch && !ws.cfg.Workflow.SkipBranch,
	}

	feat, err := ws.registry.Features().Allocate(ctx, req)
	if err != nil {
		return err
	}

	event := hooks.Event{
		Type:    hooks.TypeFeatureCreated,
		Feature: feat.BranchName,
		Data:    map[string]interface{}{"dir": feat.Dir},
	}
	if err := ws.registry.Hooks().Fire(ctx, event); err != nil {
		ws.logger.Warn(ctx, "hook failed", zap.Error(err))
	}

	if outputAsJSON {
		return outputJSON(feat)
	}

	fmt.Printf("Created feature %s\n", feat.BranchName)
	fmt.Printf("Directory: %s\n", feat.Dir)
	fmt.Printf("Start the workflow with: specflow run\n")

	return nil
}

func runFeatureCurrent(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	feat, err := ws.registry.Features().ResolveCurrent(ctx, featureOverride)
	if err != nil {
		return err
	}

	if outputAsJSON {
		return outputJSON(feat)
	}

	fmt.Printf("Feature: %s\n", feat.BranchName)
	fmt.Printf("Number: %s\n", feat.Number)
	fmt.Printf("Directory: %s\n", feat.Dir)

	return nil
}

func runFeatureList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	feats, err := ws.registry.Features().List(ctx)
	if err != nil {
		return err
	}

	if outputAsJSON {
		return outputJSON(feats)
	}

	if len(feats) == 0 {
		fmt.Println("No features found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NUMBER\tFEATURE\tDIRECTORY")
	for _, feat := range feats {
		fmt.Fprintf(w, "%s\t%s\t%s\n", feat.Number, feat.BranchName, feat.Dir)
	}
	w.Flush()

	return nil
}
