package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/specflow/internal/artifact"
	"github.com/fyrsmithlabs/specflow/internal/orchestrator"
)

var checkPathsOnly bool

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkPathsOnly, "paths-only", false, "print artifact paths without checking prerequisites")
}

var checkCmd = &cobra.Command{
	Use:   "check <phase>",
	Short: "Check a phase's prerequisites",
	Long: `Check whether a phase's required input artifacts exist for the
current feature, without mutating anything.

The exit code is 0 when the prerequisites are satisfied and 4 when an
artifact is missing, so scripts can gate on it. With --paths-only the
resolved paths are printed and nothing is checked.

Examples:
  # Can the tasks phase run?
  specflow check tasks

  # Everything implement needs, as JSON
  specflow check implement --json

  # Just the paths, no verdict
  specflow check plan --paths-only`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	phase := orchestrator.Phase(args[0])
	report, checkErr := ws.registry.Orchestrator().CheckPhase(ctx, featureOverride, phase)
	if report == nil {
		return checkErr
	}

	if checkPathsOnly {
		if outputAsJSON {
			return outputJSON(report.Paths)
		}
		fmt.Printf("Feature dir: %s\n", report.Paths.FeatureDir)
		for _, kind := range artifact.AllKinds() {
			fmt.Printf("%s: %s\n", kind.DisplayName(), report.Paths.Path(kind))
		}
		return nil
	}

	if outputAsJSON {
		if err := outputJSON(report); err != nil {
			return err
		}
		return checkErr
	}

	fmt.Printf("Phase: %s\n", report.Phase)
	fmt.Printf("Required: %s\n", kindList(report.Required))
	if len(report.Missing) > 0 {
		fmt.Printf("Missing: %s\n", kindList(report.Missing))
	}
	fmt.Printf("Available docs: %s\n", kindList(report.AvailableDocs))
	if report.Phase == orchestrator.PhaseClarify {
		fmt.Printf("Clarifications: %d unresolved\n", report.Clarifications)
	}
	if report.Satisfied {
		fmt.Printf("Satisfied: yes\n")
	} else {
		fmt.Printf("Satisfied: no\n")
	}

	return checkErr
}

// kindList renders kinds as a comma-separated list, "none" when empty.
func kindList(kinds []artifact.Kind) string {
	if len(kinds) == 0 {
		return "none"
	}
	names := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		names = append(names, kind.DisplayName())
	}
	return strings.Join(names, ", ")
}
