package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/updreset/internal/winsvc"
)

var (
	configDir string
	stateDir  string

	// RootCmd is the root command for updreset. Invoked without a
	// subcommand it performs the full remediation sequence.
	RootCmd = &cobra.Command{
		Use:   "updreset",
		Short: "Guided remediation for a stuck update subsystem",
		Long: `updreset remediates a stuck update subsystem in one pass: it snapshots
the update services' startup configuration, disables and stops them,
rotates the stateful cache directories into bounded backup chains,
deletes stale queue markers, and restores the services exactly as they
were.

The cache directories are never deleted — they are renamed into numbered
backup slots (SoftwareDistribution_01 is the newest, _05 the oldest by
default), so a bad reset is always recoverable by renaming a slot back.
Only the copy falling off the end of the chain is discarded.

Every state-changing action is logged before and after it executes, to a
per-run log file and to the console. If a run is interrupted, the log is
the recovery guide and 'updreset restore' replays the service snapshot.

updreset must run with administrative privileges: it reconfigures system
services and renames system directories.

Examples:
  # Perform the full remediation (requires elevation)
  updreset

  # Inspect backup slots and service state without touching anything
  updreset status

  # Review past runs
  updreset history

  # Re-apply the last service snapshot after an interrupted run
  updreset restore

  # Check the environment before running
  updreset doctor`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemediation()
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default: ~/.config/updreset)")
	RootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "state directory for logs, snapshots and history (default: ~/.updreset)")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// serviceController returns the production service controller.
func serviceController() winsvc.Controller {
	return winsvc.NewScController()
}

// version output lives here rather than a dedicated command; keep in sync
// with release tags.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the updreset version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("updreset 0.3.0")
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
