package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/updreset/internal/output"
	"github.com/blackwell-systems/updreset/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List past remediation runs",
	Long: `Lists recorded remediation runs, newest first. Given a run ID, shows
that run's step-by-step outcomes instead.`,
	Example: `  updreset history            # Recent runs
  updreset history --limit 50 # More of them
  updreset history <run-id>   # One run's steps`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to list")
	RootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	st, err := openHistory()
	if err != nil {
		return err
	}
	defer st.Close()

	if len(args) == 1 {
		return showRun(st, args[0])
	}

	runs, err := st.ListRuns(historyLimit)
	if err != nil {
		if errors.Is(err, store.ErrNotInitialized) {
			fmt.Println("No remediation runs recorded.")
			return nil
		}
		return err
	}
	fmt.Print(output.RenderRunTable(runs))
	return nil
}

func showRun(st *store.Store, runID string) error {
	run, err := st.GetRun(runID)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s\n", run.ID)
	fmt.Printf("Started:  %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if !run.FinishedAt.IsZero() {
		fmt.Printf("Finished: %s\n", run.FinishedAt.Format("2006-01-02 15:04:05"))
	}
	if run.LogPath != "" {
		fmt.Printf("Log:      %s\n", run.LogPath)
	}
	if run.SnapshotPath != "" {
		fmt.Printf("Snapshot: %s\n", run.SnapshotPath)
	}
	fmt.Println()

	steps, err := st.GetSteps(runID)
	if err != nil {
		return err
	}
	fmt.Print(output.RenderStepTable(steps))

	gens, err := st.GetGenerations(runID)
	if err != nil {
		return err
	}
	if len(gens) > 0 {
		fmt.Println("\nArchived generations:")
		for _, g := range gens {
			fmt.Printf("  %s -> %s\n", g.BasePath, g.SlotPath)
		}
	}
	return nil
}
