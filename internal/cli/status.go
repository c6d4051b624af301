package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fresher-cli/fresher/internal/implplan"
	"github.com/fresher-cli/fresher/internal/plan"
	"github.com/fresher-cli/fresher/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show plan progress and the last run's state",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	projectDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	implDir := filepath.Join(projectDir, ImplDir)
	planPath := filepath.Join(projectDir, LegacyPlanFile)

	switch {
	case implplan.HasHierarchicalPlan(implDir):
		if err := printHierarchicalStatus(implDir); err != nil {
			return err
		}
	case fileExists(planPath):
		if err := printLegacyStatus(planPath); err != nil {
			return err
		}
	default:
		fmt.Println("No implementation plan found. Run 'fresher plan' to create one.")
	}

	return printRunState(projectDir)
}

func printHierarchicalStatus(implDir string) error {
	index, err := implplan.Load(implDir)
	if err != nil {
		return err
	}

	fmt.Println("Plan (hierarchical)")
	for _, f := range index.Features {
		fmt.Printf("  %-24s %-12s %d/%d tasks\n", f.Name, f.Status, f.CompletedTasks, f.TotalTasks)
	}
	if index.CrossCutting.Total > 0 {
		fmt.Printf("  %-24s %-12s %d/%d tasks\n", "cross-cutting", "",
			index.CrossCutting.Completed, index.CrossCutting.Total)
	}
	fmt.Printf("  Pending: %d of %d tasks\n", index.PendingTasks(), index.TotalTasks())

	if focus := index.SelectNextFocus(); focus != nil {
		fmt.Printf("  Next focus: %s (%d pending)\n", focus.Name, focus.PendingTasks)
	} else if index.IsComplete() {
		fmt.Println("  All tasks complete.")
	}
	return nil
}

func printLegacyStatus(planPath string) error {
	tasks, err := plan.ParsePlan(planPath)
	if err != nil {
		return err
	}
	total, pending, completed, inProgress := plan.CountTasks(tasks)

	fmt.Println("Plan (single file)")
	fmt.Printf("  Tasks: %d total, %d completed, %d in progress, %d pending\n",
		total, completed, inProgress, pending)
	return nil
}

func printRunState(projectDir string) error {
	st, err := state.NewStore(projectDir).Load()
	if err != nil {
		return err
	}
	if st == nil {
		return nil
	}

	fmt.Println()
	fmt.Println("Last run")
	fmt.Printf("  Iterations: %d\n", st.Iteration)
	fmt.Printf("  Commits:    %d\n", st.TotalCommits)
	fmt.Printf("  Duration:   %ds\n", st.DurationSeconds)
	if st.FinishType != "" {
		fmt.Printf("  Finished:   %s\n", st.FinishType)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
