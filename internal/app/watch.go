package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/updreset/internal/runlog"
	"github.com/blackwell-systems/updreset/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch for marker files reappearing after a reset",
	Long: `Watches the marker directory and logs every marker file the update
subsystem recreates. Markers reappearing immediately after a reset
usually mean the subsystem is stuck again.

Runs in the foreground; press Ctrl+C to stop.`,
	RunE: runWatch,
}

func init() {
	RootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logDir, err := getLogDir()
	if err != nil {
		return err
	}
	logger, err := runlog.New(logDir, time.Now())
	if err != nil {
		return fmt.Errorf("failed to create run log: %w", err)
	}
	defer logger.Close()

	w, err := watcher.New(logger, cfg.MarkerSuffix)
	if err != nil {
		return err
	}
	if err := w.Start(cfg.MarkerRoot); err != nil {
		return err
	}

	fmt.Println("Watching for markers. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nStopping watcher...")
	return w.Stop()
}
