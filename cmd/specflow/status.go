package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/specflow/internal/monitor"
	"github.com/fyrsmithlabs/specflow/internal/tasks"
)

var (
	statusWatch    bool
	statusInterval time.Duration
)

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "live dashboard instead of a one-shot summary")
	statusCmd.Flags().DurationVar(&statusInterval, "interval", 2*time.Second, "dashboard refresh interval")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show workflow status for the current feature",
	Long: `Show where the current feature's workflow stands: phase table,
task progress, and which design documents exist.

Task progress is re-parsed from tasks.md on every invocation, so edits
made outside specflow are reflected immediately.

Examples:
  # One-shot summary
  specflow status

  # Structured output for scripts
  specflow status --json

  # Live dashboard, q to quit
  specflow status --watch`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	if statusWatch {
		return runDashboard(ctx, ws, statusInterval, nil)
	}

	if outputAsJSON {
		report, err := ws.registry.Orchestrator().Status(ctx, featureOverride)
		if err != nil {
			return err
		}
		return outputJSON(report)
	}

	feat, err := ws.registry.Features().ResolveCurrent(ctx, featureOverride)
	if err != nil {
		return err
	}
	set := ws.registry.Resolver().Resolve(ws.root, feat.BranchName)
	collector, err := monitor.NewCollector(feat.BranchName, ws.registry.Store(), set)
	if err != nil {
		return err
	}
	snap, err := collector.Collect()
	if err != nil {
		return err
	}

	printSnapshot(snap)
	return nil
}

// printSnapshot renders a one-shot summary of the workflow position.
func printSnapshot(snap monitor.Snapshot) {
	fmt.Printf("Feature: %s\n", snap.Feature)
	if snap.Mode != "" {
		fmt.Printf("Mode: %s\n", snap.Mode)
	}
	switch {
	case snap.Done:
		fmt.Printf("Workflow: done\n")
	case snap.Failed:
		fmt.Printf("Workflow: failed, run resumes at %s\n", snap.CurrentPhase)
	default:
		fmt.Printf("Next phase: %s\n", snap.CurrentPhase)
	}

	fmt.Println()
	for _, row := range snap.Phases {
		line := fmt.Sprintf("  %s %s", monitor.StatusSymbol(row.Status), row.Phase)
		if row.Phase == snap.CurrentPhase && !snap.Done {
			line += " ◀"
		}
		fmt.Println(line)
	}
	fmt.Println()

	if snap.Tasks != nil {
		fmt.Printf("Tasks: %s (%s)\n",
			monitor.FormatTasks(snap.Tasks.Completed, snap.Tasks.Total),
			monitor.FormatPercentage(snap.Tasks.Percentage/100))
		if snap.Tasks.NextPending != nil {
			fmt.Printf("Next task: %s %s\n", snap.Tasks.NextPending.ID, snap.Tasks.NextPending.Text)
		}
	}
	if len(snap.AvailableDocs) > 0 {
		fmt.Printf("Docs: %s\n", kindList(snap.AvailableDocs))
	}
	if snap.Clarifications > 0 {
		fmt.Printf("Clarifications: %d unresolved\n", snap.Clarifications)
	}
	if !snap.LastUpdated.IsZero() {
		fmt.Printf("Updated: %s\n", monitor.FormatAge(snap.LastUpdated))
	}
}

// runDashboard starts the live dashboard for the current feature. A
// non-nil taskUpdates channel feeds task progress between refreshes.
func runDashboard(ctx context.Context, ws *workspace, interval time.Duration, taskUpdates <-chan tasks.Progress) error {
	feat, err := ws.registry.Features().ResolveCurrent(ctx, featureOverride)
	if err != nil {
		return err
	}

	set := ws.registry.Resolver().Resolve(ws.root, feat.BranchName)
	collector, err := monitor.NewCollector(feat.BranchName, ws.registry.Store(), set)
	if err != nil {
		return err
	}

	model := monitor.NewModel(collector, interval, taskUpdates)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}
