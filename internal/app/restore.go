package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/updreset/internal/runlog"
	"github.com/blackwell-systems/updreset/internal/winsvc"
)

var restoreCmd = &cobra.Command{
	Use:   "restore [snapshot-file]",
	Short: "Re-apply a service-state snapshot",
	Long: `Restores service startup modes from a snapshot file written during a
remediation run. Use this when a run was interrupted after the services
were disabled but before they were restored.

With no argument the latest snapshot is used.`,
	Example: `  updreset restore                          # Latest snapshot
  updreset restore ~/.updreset/snapshots/2025-03-14-092653.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRestore,
}

func init() {
	RootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var path string
	if len(args) == 1 {
		path = args[0]
	} else {
		snapDir, err := getSnapshotDir()
		if err != nil {
			return err
		}
		path, err = winsvc.LatestSnapshot(snapDir)
		if err != nil {
			return err
		}
	}

	snap, err := winsvc.LoadSnapshot(path)
	if err != nil {
		return err
	}
	fmt.Printf("Restoring %d services from %s\n", len(snap.Records), path)

	logDir, err := getLogDir()
	if err != nil {
		return err
	}
	logger, err := runlog.New(logDir, time.Now())
	if err != nil {
		return fmt.Errorf("failed to create run log: %w", err)
	}
	defer logger.Close()

	mgr := winsvc.NewManager(serviceController(), logger, cfg.Settle())
	results := mgr.Restore(snap.Records)

	if failed := winsvc.FailureCount(results); failed > 0 {
		return fmt.Errorf("%d of %d services could not be restored; see %s", failed, len(results), logger.Path())
	}
	fmt.Println("All services restored.")
	return nil
}
