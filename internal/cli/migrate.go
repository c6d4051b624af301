package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fresher-cli/fresher/internal/implplan"
	"github.com/fresher-cli/fresher/internal/plan"
)

// DefaultMigrateThreshold is the task count at which a flat plan is worth
// splitting into feature files.
const DefaultMigrateThreshold = 8

var (
	migrateThreshold int
	migrateDryRun    bool
	migrateForce     bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate a flat plan to the hierarchical impl/ structure",
	Long: `Splits IMPLEMENTATION_PLAN.md into one feature file per referenced
spec under impl/, generates the README index, and renames the original to
IMPLEMENTATION_PLAN.md.backup. Tasks without spec references become
cross-cutting tasks in the index.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().IntVar(&migrateThreshold, "threshold", DefaultMigrateThreshold,
		"minimum task count before migrating")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "analyze without changing anything")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "migrate regardless of task count")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	projectDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	legacyPath := filepath.Join(projectDir, LegacyPlanFile)
	implDir := filepath.Join(projectDir, ImplDir)

	if implplan.HasHierarchicalPlan(implDir) {
		return fmt.Errorf("hierarchical plan already exists at %s/; remove it to re-migrate", ImplDir)
	}
	if _, err := os.Stat(legacyPath); err != nil {
		return fmt.Errorf("no legacy plan found at %s (run 'fresher plan' first)", LegacyPlanFile)
	}

	threshold := migrateThreshold
	if migrateForce {
		threshold = 0
	}

	analysis, err := implplan.AnalyzeMigration(legacyPath, threshold)
	if err != nil {
		return err
	}

	printAnalysis(analysis)

	if !analysis.ShouldMigrate {
		fmt.Printf("Task count (%d) is below threshold (%d); use --force to migrate anyway.\n",
			analysis.TotalTasks, threshold)
		return nil
	}

	if migrateDryRun {
		fmt.Println("Dry run - no changes made.")
		return nil
	}

	result, err := implplan.Migrate(legacyPath, implDir)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Migration complete")
	fmt.Printf("  Features:    %d\n", result.FeatureCount)
	fmt.Printf("  Total tasks: %d\n", result.TaskCount)
	fmt.Printf("  Backup:      %s\n", result.BackupPath)
	for _, f := range result.CreatedFiles {
		fmt.Printf("  Created:     %s\n", f)
	}
	return nil
}

func printAnalysis(analysis *implplan.MigrationAnalysis) {
	fmt.Println("Migration analysis")
	fmt.Printf("  Source:      %s\n", analysis.LegacyPath)
	fmt.Printf("  Total tasks: %d\n", analysis.TotalTasks)
	fmt.Printf("  Features:    %d\n", len(analysis.TasksBySpec))
	fmt.Printf("  Orphans:     %d\n", len(analysis.OrphanTasks))

	names := make([]string, 0, len(analysis.TasksBySpec))
	for name := range analysis.TasksBySpec {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		tasks := analysis.TasksBySpec[name]
		completed := 0
		for _, t := range tasks {
			if t.Status == plan.StatusCompleted {
				completed++
			}
		}
		fmt.Printf("    %s.md: %d/%d tasks\n", name, completed, len(tasks))
	}
	fmt.Println()
}
