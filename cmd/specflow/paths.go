package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/specflow/internal/artifact"
)

func init() {
	rootCmd.AddCommand(pathsCmd)
}

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show resolved paths for the current feature",
	Long: `Show the repository root, branch, and every artifact path for the
current feature. Paths are resolved without touching the filesystem, so
this works before any artifact exists.

Examples:
  specflow paths
  specflow paths --json
  specflow paths --feature 002-payment-flow`,
	RunE: runPaths,
}

// pathsReport is the structured output of the paths command.
type pathsReport struct {
	RepoRoot          string        `json:"repo_root"`
	HasVersionControl bool          `json:"has_version_control"`
	Branch            string        `json:"branch,omitempty"`
	Feature           string        `json:"feature"`
	Paths             *artifact.Set `json:"paths"`
}

func runPaths(cmd *cobra.Command, args []string) error {
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

	repo := ws.registry.Features().Describe(ctx)
	set := ws.registry.Resolver().Resolve(ws.root, feat.BranchName)

	report := &pathsReport{
		RepoRoot:          repo.Root,
		HasVersionControl: repo.HasVersionControl,
		Branch:            repo.Branch,
		Feature:           feat.BranchName,
		Paths:             set,
	}

	if outputAsJSON {
		return outputJSON(report)
	}

	fmt.Printf("Repo root: %s\n", report.RepoRoot)
	if report.Branch != "" {
		fmt.Printf("Branch: %s\n", report.Branch)
	}
	fmt.Printf("Feature: %s\n", report.Feature)
	fmt.Printf("Feature dir: %s\n", set.FeatureDir)
	for _, kind := range artifact.AllKinds() {
		fmt.Printf("%s: %s\n", kind.DisplayName(), set.Path(kind))
	}

	return nil
}
