package app

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/updreset/internal/winsvc"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose common issues before a remediation run",
	Long: `Runs diagnostic checks on the updreset environment.

Checks:
  • Configuration file parses and validates
  • State directory is writable
  • The service control utility is on PATH
  • Each target service's startup mode is readable
  • Cache directories and marker root exist`,
	RunE: runDoctor,
}

func init() {
	RootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println("Running updreset diagnostics...")
	fmt.Println()

	criticalIssues := 0
	warningIssues := 0

	// Check 1: configuration
	cfg, err := loadConfig()
	if err != nil {
		fmt.Println("✗ Configuration error:", err)
		criticalIssues++
	} else {
		dir, _ := getConfigDir()
		fmt.Println("✓ Configuration OK (dir:", dir+")")
	}

	// Check 2: state directory writable
	sd, err := getStateDir()
	if err != nil {
		fmt.Println("✗ State directory error:", err)
		criticalIssues++
	} else {
		probe := sd + string(os.PathSeparator) + ".doctor-probe"
		if err := os.WriteFile(probe, []byte("x"), 0644); err != nil {
			fmt.Println("✗ State directory not writable:", err)
			criticalIssues++
		} else {
			os.Remove(probe)
			fmt.Println("✓ State directory writable:", sd)
		}
	}

	// Check 3: service control utility
	if _, err := exec.LookPath("sc"); err != nil {
		fmt.Println("✗ Service control utility 'sc' not found on PATH")
		fmt.Println("  Action: run updreset on a system with the sc utility available")
		criticalIssues++
	} else {
		fmt.Println("✓ Service control utility found")
	}

	if cfg != nil {
		// Check 4: services queryable
		ctrl := serviceController()
		for _, name := range cfg.Services {
			mode, err := ctrl.QueryStartMode(name)
			if err != nil || mode == winsvc.ModeUnknown {
				fmt.Printf("✗ Service %s: startup mode unreadable\n", name)
				warningIssues++
			} else {
				fmt.Printf("✓ Service %s: %s\n", name, mode)
			}
		}

		// Check 5: target directories
		for _, dir := range cfg.ArchiveDirs {
			if _, err := os.Lstat(dir); err != nil {
				fmt.Printf("! Cache directory %s absent (archive will be a no-op)\n", dir)
				warningIssues++
			} else {
				fmt.Printf("✓ Cache directory %s exists\n", dir)
			}
		}
		if _, err := os.Lstat(cfg.MarkerRoot); err != nil {
			fmt.Printf("! Marker root %s absent (cleaning will be skipped)\n", cfg.MarkerRoot)
			warningIssues++
		} else {
			fmt.Printf("✓ Marker root %s exists\n", cfg.MarkerRoot)
		}
	}

	fmt.Println()
	switch {
	case criticalIssues > 0:
		return fmt.Errorf("%d critical issue(s) found", criticalIssues)
	case warningIssues > 0:
		fmt.Printf("%d warning(s); a run will proceed but some steps may be no-ops.\n", warningIssues)
	default:
		fmt.Println("All checks passed.")
	}
	return nil
}
