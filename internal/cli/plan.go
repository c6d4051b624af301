package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fresher-cli/fresher/internal/config"
	"github.com/fresher-cli/fresher/internal/worker"
)

var planMaxIterations int

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Run planning mode - analyze specs and create an implementation plan",
	Long: `Runs the planning-mode loop: the agent reads the specs, explores the
codebase, and writes an implementation plan (hierarchical impl/ structure
or a single IMPLEMENTATION_PLAN.md). The loop stops once a plan exists.`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().IntVar(&planMaxIterations, "max-iterations", -1,
		"maximum iterations, 0 for unlimited (overrides config)")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	projectDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	if _, err := os.Stat(filepath.Join(projectDir, ".fresher")); err != nil {
		return fmt.Errorf(".fresher/ not found in %s", projectDir)
	}

	if !worker.Available() {
		return fmt.Errorf("%s not found on PATH", worker.Executable)
	}

	cfg, err := config.Load(projectDir)
	if err != nil {
		return err
	}
	cfg.Loop.Mode = config.ModePlanning
	if planMaxIterations >= 0 {
		cfg.Loop.MaxIterations = planMaxIterations
	}

	planPath := filepath.Join(projectDir, LegacyPlanFile)
	implDir := filepath.Join(projectDir, ImplDir)

	// Planning has work left as long as no plan document exists yet.
	pending := func() bool {
		return !planExists(planPath, implDir)
	}

	fmt.Println("Starting fresher (planning mode)")
	return runLoop(cmd.Context(), projectDir, cfg, pending)
}
