package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fresher-cli/fresher/internal/config"
	"github.com/fresher-cli/fresher/internal/implplan"
	"github.com/fresher-cli/fresher/internal/plan"
)

var (
	verifyJSON     bool
	verifyPlanFile string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the implementation plan against the specs",
	Long: `Checks plan/spec coverage: how many tasks each spec has, which tasks
lack spec references, and overall completion. Uses the hierarchical impl/
index when one exists, otherwise the single-file plan.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "output in JSON format")
	verifyCmd.Flags().StringVar(&verifyPlanFile, "plan-file", LegacyPlanFile, "path to the legacy plan file")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	projectDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	cfg, err := config.Load(projectDir)
	if err != nil {
		return err
	}

	implDir := filepath.Join(projectDir, ImplDir)
	if implplan.HasHierarchicalPlan(implDir) {
		return verifyHierarchical(implDir)
	}

	planPath := verifyPlanFile
	if !filepath.IsAbs(planPath) {
		planPath = filepath.Join(projectDir, planPath)
	}
	if _, err := os.Stat(planPath); err != nil {
		return fmt.Errorf("plan file not found: %s (run 'fresher plan' first)", verifyPlanFile)
	}

	report, err := plan.GenerateReport(planPath, filepath.Join(projectDir, cfg.Paths.SpecDir))
	if err != nil {
		return err
	}

	if verifyJSON {
		return printJSON(report)
	}
	printReport(report)
	return nil
}

func verifyHierarchical(implDir string) error {
	index, err := implplan.Load(implDir)
	if err != nil {
		return err
	}

	if verifyJSON {
		return printJSON(map[string]any{
			"plan_type":       "hierarchical",
			"impl_dir":        index.ImplDir,
			"total_tasks":     index.TotalTasks(),
			"completed_tasks": index.CompletedTasks(),
			"pending_tasks":   index.PendingTasks(),
			"current_focus":   index.CurrentFocus,
			"is_complete":     index.IsComplete(),
			"features":        index.Features,
			"cross_cutting":   index.CrossCutting,
		})
	}

	fmt.Println("Implementation Plan Verification (hierarchical)")
	fmt.Println()
	for _, f := range index.Features {
		fmt.Printf("  %-24s %-12s %3.0f%% (%d/%d)\n",
			f.Name, f.Status, f.CompletionPercent(), f.CompletedTasks, f.TotalTasks)
	}
	if index.CrossCutting.Total > 0 {
		fmt.Printf("  %-24s %-12s      (%d/%d)\n",
			"cross-cutting", "", index.CrossCutting.Completed, index.CrossCutting.Total)
	}
	fmt.Println()
	fmt.Printf("  Total:     %d tasks, %d completed, %d pending\n",
		index.TotalTasks(), index.CompletedTasks(), index.PendingTasks())
	if index.CurrentFocus != "" {
		fmt.Printf("  Focus:     %s\n", index.CurrentFocus)
	}
	if index.IsComplete() {
		fmt.Println("  All tasks complete.")
	}
	return nil
}

func printReport(report *plan.VerifyReport) {
	fmt.Println("Implementation Plan Verification")
	fmt.Println()
	fmt.Printf("  Total tasks:     %d\n", report.TotalTasks)
	fmt.Printf("  Completed:       %d\n", report.CompletedTasks)
	fmt.Printf("  In progress:     %d\n", report.InProgressTasks)
	fmt.Printf("  Pending:         %d\n", report.PendingTasks)
	fmt.Printf("  With spec refs:  %d\n", report.TasksWithRefs)
	fmt.Printf("  Orphan tasks:    %d\n", report.OrphanTasks)

	if len(report.Coverage) > 0 {
		fmt.Println()
		fmt.Println("Spec coverage:")
		for _, entry := range report.Coverage {
			fmt.Printf("  %-32s %d requirements, %d tasks, %.0f%% covered\n",
				entry.SpecName, entry.RequirementCount, entry.TaskCount, entry.CoveragePercent)
		}
	}
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
