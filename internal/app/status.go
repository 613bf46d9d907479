package app

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/updreset/internal/output"
	"github.com/blackwell-systems/updreset/internal/rotate"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backup slots and service startup modes",
	Long: `Shows the current state of the remediation targets without changing
anything: which backup generations exist for each cache directory, their
sizes and ages, and the configured startup mode of each target service.`,
	RunE: runStatus,
}

func init() {
	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	for _, dir := range cfg.ArchiveDirs {
		fmt.Print(output.RenderSlotTable(dir, collectSlots(dir, cfg.MaxGenerations)))
		fmt.Println()
	}

	ctrl := serviceController()
	services := make([]output.ServiceInfo, 0, len(cfg.Services))
	for _, name := range cfg.Services {
		mode, err := ctrl.QueryStartMode(name)
		if err != nil {
			// Render as unknown; status is read-only and must not fail on
			// an unresolvable service.
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
		services = append(services, output.ServiceInfo{Name: name, Mode: mode})
	}
	fmt.Print(output.RenderServiceTable(services))

	return nil
}

// collectSlots scans the occupied rotation slots for basePath.
func collectSlots(basePath string, maxGenerations int) []output.SlotInfo {
	var slots []output.SlotInfo
	for gen := 1; gen <= maxGenerations; gen++ {
		path := rotate.SlotPath(basePath, gen)
		info, err := os.Lstat(path)
		if err != nil {
			continue
		}
		slots = append(slots, output.SlotInfo{
			Generation: gen,
			Path:       path,
			SizeBytes:  treeSize(path),
			ModTime:    info.ModTime(),
		})
	}
	return slots
}

// treeSize sums the regular files under path, best-effort.
func treeSize(path string) int64 {
	var total int64
	filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
