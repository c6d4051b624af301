package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fresher-cli/fresher/internal/config"
	"github.com/fresher-cli/fresher/internal/engine"
	"github.com/fresher-cli/fresher/internal/hooks"
	"github.com/fresher-cli/fresher/internal/implplan"
	"github.com/fresher-cli/fresher/internal/plan"
	"github.com/fresher-cli/fresher/internal/state"
	"github.com/fresher-cli/fresher/internal/stream"
	"github.com/fresher-cli/fresher/internal/templates"
	"github.com/fresher-cli/fresher/internal/worker"
)

var buildMaxIterations int

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run building mode - implement tasks from the plan",
	Long: `Runs the building-mode loop: each iteration spawns the agent on a
fresh context to implement one task from the implementation plan, then
checks whether work remains. Stops on plan completion, agent error, a
no-progress iteration (smart termination), the iteration ceiling, or
Ctrl+C (the current iteration finishes first).`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().IntVar(&buildMaxIterations, "max-iterations", -1,
		"maximum iterations, 0 for unlimited (overrides config)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	projectDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	if _, err := os.Stat(filepath.Join(projectDir, ".fresher")); err != nil {
		return fmt.Errorf(".fresher/ not found in %s", projectDir)
	}

	planPath := filepath.Join(projectDir, LegacyPlanFile)
	implDir := filepath.Join(projectDir, ImplDir)
	if !planExists(planPath, implDir) {
		return fmt.Errorf("no implementation plan found: create %s or %s/ first (run 'fresher plan')",
			LegacyPlanFile, ImplDir)
	}

	if !worker.Available() {
		return fmt.Errorf("%s not found on PATH", worker.Executable)
	}

	cfg, err := config.Load(projectDir)
	if err != nil {
		return err
	}
	cfg.Loop.Mode = config.ModeBuilding
	if buildMaxIterations >= 0 {
		cfg.Loop.MaxIterations = buildMaxIterations
	}

	pending := func() bool {
		return plan.HasPendingTasksIn(planPath, implDir)
	}

	fmt.Println("Starting fresher (building mode)")
	return runLoop(cmd.Context(), projectDir, cfg, pending)
}

func planExists(planPath, implDir string) bool {
	if _, err := os.Stat(planPath); err == nil {
		return true
	}
	return implplan.HasHierarchicalPlan(implDir)
}

// runLoop assembles the engine and runs it to a finish, printing the run
// summary. SIGINT requests a stop at the next iteration boundary.
func runLoop(ctx context.Context, projectDir string, cfg *config.Config, pending func() bool) error {
	eng := &engine.Engine{
		Config:         cfg,
		ProjectDir:     projectDir,
		Store:          state.NewStore(projectDir),
		Hooks:          hooks.NewRunner(projectDir, cfg.Loop.Mode, time.Duration(cfg.Hooks.TimeoutSeconds)*time.Second, cfg.Hooks.Enabled),
		Worker:         &worker.LocalRunner{},
		Revisions:      state.NewGitRevisions(projectDir),
		Printer:        stream.NewPrinter(os.Stdout),
		HasPendingWork: pending,
		DefaultPrompt:  templates.DefaultPrompt(cfg.Loop.Mode),
	}
	eng.Printer.Verbose = verbose

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			fmt.Fprintln(os.Stderr, "\nInterrupt received, finishing current iteration...")
			eng.Interrupt()
		}
	}()

	result, err := eng.Run(ctx)
	if err != nil {
		return err
	}
	if result == nil {
		fmt.Println("Aborted by started hook.")
		return nil
	}

	fmt.Println()
	fmt.Println("Summary")
	fmt.Printf("  Iterations: %d\n", result.Iterations)
	fmt.Printf("  Commits:    %d\n", result.Commits)
	fmt.Printf("  Duration:   %ds\n", result.DurationSeconds)
	fmt.Printf("  Finished:   %s\n", result.FinishType)

	if result.FinishType == state.FinishError {
		return fmt.Errorf("loop finished with an error")
	}
	return nil
}
