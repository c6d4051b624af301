// Package cli wires the subcommands. Commands stay thin: they load config,
// assemble collaborators, and hand off to the internal packages.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/fresher-cli/fresher/internal/logging"
)

// Version is set at build time via ldflags.
var Version = "dev"

// LegacyPlanFile is the single-file plan at the project root.
const LegacyPlanFile = "IMPLEMENTATION_PLAN.md"

// ImplDir is the hierarchical plan directory at the project root.
const ImplDir = "impl"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "fresher",
	Short: "Iterative fresh-context development loops",
	Long: `Fresher runs a coding agent in a loop, one task per iteration, each
iteration on a fresh context. It tracks progress through a markdown
implementation plan, steers the loop with hook scripts, and stops when the
plan is complete, an iteration makes no progress, or you interrupt it.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logging.SetLevel(logging.LevelDebug)
		}
	},
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("fresher version {{.Version}}\n")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
