package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/specflow/internal/monitor"
	"github.com/fyrsmithlabs/specflow/internal/tasks"
)

var tasksInterval time.Duration

func init() {
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.AddCommand(tasksWatchCmd)

	tasksWatchCmd.Flags().DurationVar(&tasksInterval, "interval", 2*time.Second, "dashboard refresh interval")
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Show the task list for the current feature",
	Long: `Show every task in tasks.md with its completion state, the [P]
parallel-eligibility hint, and overall progress.

Examples:
  specflow tasks
  specflow tasks --json

  # Live dashboard updating as tasks.md changes
  specflow tasks watch`,
	RunE: runTasks,
}

var tasksWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch task progress live",
	Long: `Open the live dashboard and push a task progress update whenever
tasks.md changes on disk, debounced per the configured interval.

Examples:
  specflow tasks watch
  specflow tasks watch --interval 5s`,
	RunE: runTasksWatch,
}

// taskReport is the structured output of the tasks command.
type taskReport struct {
	Feature  string         `json:"feature"`
	Progress tasks.Progress `json:"progress"`
	Items    []tasks.Item   `json:"items"`
}

func runTasks(cmd *cobra.Command, args []string) error {
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

	set := ws.registry.Resolver().Resolve(ws.root, feat.BranchName)
	items, err := tasks.ParseFile(set.Tasks)
	if err != nil {
		return fmt.Errorf("no task list for %s (expected %s): %w", feat.BranchName, set.Tasks, err)
	}
	progress := tasks.ComputeProgress(items)

	if outputAsJSON {
		return outputJSON(&taskReport{
			Feature:  feat.BranchName,
			Progress: progress,
			Items:    items,
		})
	}

	fmt.Printf("Tasks for %s: %s (%s)\n\n",
		feat.BranchName,
		monitor.FormatTasks(progress.Completed, progress.Total),
		monitor.FormatPercentage(progress.Percentage/100))

	for _, item := range items {
		box := " "
		if item.Completed {
			box = "x"
		}
		hint := ""
		if item.Parallel {
			hint = " [P]"
		}
		fmt.Printf("  [%s] %s%s %s\n", box, item.ID, hint, item.Text)
	}

	if progress.NextPending != nil {
		fmt.Printf("\nNext task: %s %s\n", progress.NextPending.ID, progress.NextPending.Text)
	}

	return nil
}

func runTasksWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	feat, err := ws.registry.Features().ResolveCurrent(ctx, featureOverride)
	if err != nil {
		return err
	}

	set := ws.registry.Resolver().Resolve(ws.root, feat.BranchName)
	watcher, err := tasks.NewWatcher(set.Tasks, ws.cfg.Workflow.WatchDebounce.Duration(), ws.logger)
	if err != nil {
		return fmt.Errorf("failed to create task watcher: %w", err)
	}
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to watch %s: %w", set.Tasks, err)
	}
	defer watcher.Stop()

	return runDashboard(ctx, ws, tasksInterval, watcher.Updates())
}
