package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/specflow/internal/monitor"
	"github.com/fyrsmithlabs/specflow/internal/orchestrator"
	"github.com/fyrsmithlabs/specflow/internal/state"
)

var (
	// run command flags
	runMode   string
	runSkip   []string
	runResume bool
	runYes    bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runMode, "mode", "", "workflow mode: interactive, staged, or unattended (default: configured mode)")
	runCmd.Flags().StringSliceVar(&runSkip, "skip", nil, "optional phases to skip (clarify, analyze)")
	runCmd.Flags().BoolVar(&runResume, "resume", false, "resume an existing workflow; fail when none exists")
	runCmd.Flags().BoolVarP(&runYes, "yes", "y", false, "answer yes to every pause prompt")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Advance the workflow for the current feature",
	Long: `Advance the workflow for the current feature, phase by phase.

Each phase seeds its output artifact from a template when absent and
checkpoints on completion. In interactive mode the run pauses before
every phase for a confirmation; staged mode pauses only before
implement; unattended mode runs to done. A pause without a terminal
prompt simply stops the run; invoke run again to continue.

The implement phase completes only once every task in tasks.md is
checked off.

Examples:
  # Advance the workflow, confirming each phase
  specflow run

  # Run every phase up to implement without prompts
  specflow run --mode staged --yes

  # Run to done, skipping the optional phases
  specflow run --mode unattended --skip clarify,analyze

  # Resume after a failure
  specflow run --resume`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	orch := ws.registry.Orchestrator()
	if !outputAsJSON {
		orch.OnProgress(printProgress)
	}

	opts := &orchestrator.RunOptions{
		FeatureOverride: featureOverride,
		Mode:            runMode,
		SkipPhases:      skipPhases(runSkip),
		Confirm:         confirmPhase(),
	}

	var result *orchestrator.RunResult
	if runResume {
		result, err = orch.Resume(ctx, opts)
	} else {
		result, err = orch.Run(ctx, opts)
	}
	if err != nil {
		return err
	}

	if outputAsJSON {
		return outputJSON(result)
	}

	switch {
	case result.Done:
		fmt.Printf("\nWorkflow complete for %s\n", result.Feature.BranchName)
		if result.ArchivePath != "" {
			fmt.Printf("State archived to %s\n", result.ArchivePath)
		}
	case result.Paused:
		fmt.Printf("\nPaused before %s\n", result.NextPhase)
		fmt.Printf("Continue with: specflow run\n")
	}

	return nil
}

// printProgress renders one progress update.
func printProgress(p orchestrator.PhaseProgress) {
	fmt.Printf("%s %s\n", monitor.StatusSymbol(p.Status), p.Message)
}

// skipPhases converts the --skip values to phases. Validity is checked
// by the orchestrator so unknown names produce its error message.
func skipPhases(names []string) []orchestrator.Phase {
	var phases []orchestrator.Phase
	for _, name := range names {
		phases = append(phases, orchestrator.Phase(strings.TrimSpace(name)))
	}
	return phases
}

// confirmPhase returns the pause-point confirmation. With --yes every
// pause proceeds; in JSON mode there is no terminal to ask, so pauses
// stop the run. Otherwise the user is prompted on stdin.
func confirmPhase() orchestrator.ConfirmFunc {
	if runYes {
		return func(ctx context.Context, next orchestrator.Phase, st *state.WorkflowState) (bool, error) {
			return true, nil
		}
	}
	if outputAsJSON {
		return nil
	}

	reader := bufio.NewReader(os.Stdin)
	return func(ctx context.Context, next orchestrator.Phase, st *state.WorkflowState) (bool, error) {
		fmt.Printf("Continue with %s? [y/N] ", next)
		line, err := reader.ReadString('\n')
		if err != nil {
			// EOF means no terminal; treat as a pause, not a failure.
			return false, nil
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	}
}
