package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fresher-cli/fresher/internal/implplan"
)

var archiveForce bool

var archiveCmd = &cobra.Command{
	Use:   "archive <feature>",
	Short: "Move a completed feature file into impl/.archive/",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchive,
}

func init() {
	archiveCmd.Flags().BoolVar(&archiveForce, "force", false, "archive even with pending tasks")
	rootCmd.AddCommand(archiveCmd)
}

func runArchive(cmd *cobra.Command, args []string) error {
	projectDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	implDir := filepath.Join(projectDir, ImplDir)
	if !implplan.HasHierarchicalPlan(implDir) {
		return fmt.Errorf("no hierarchical plan at %s/ (run 'fresher migrate' first)", ImplDir)
	}

	feature := strings.TrimSuffix(args[0], ".md")

	if !archiveForce {
		status, err := implplan.ParseFeatureFile(filepath.Join(implDir, feature+".md"))
		if err != nil {
			return fmt.Errorf("feature %q not found in %s/", feature, ImplDir)
		}
		if status.Status != implplan.FeatureComplete {
			return fmt.Errorf("feature %q has %d pending tasks; use --force to archive anyway",
				feature, status.PendingTasks)
		}
	}

	archivePath, err := implplan.Archive(implDir, feature)
	if err != nil {
		return err
	}

	fmt.Printf("Archived %s to %s\n", feature, archivePath)
	return nil
}
