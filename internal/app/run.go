package app

import (
	"fmt"
	"os"
	"time"

	"github.com/blackwell-systems/updreset/internal/orch"
	"github.com/blackwell-systems/updreset/internal/output"
	"github.com/blackwell-systems/updreset/internal/runlog"
	"github.com/blackwell-systems/updreset/internal/store"
)

// runRemediation performs the full remediation sequence. Individual step
// failures do not stop the run; they do make the exit status non-zero so
// scripts can tell a clean reset from a partial one.
func runRemediation() error {
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

	snapDir, err := getSnapshotDir()
	if err != nil {
		return err
	}

	// History is best-effort: a broken database must not block remediation.
	st, err := openHistory()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: run history unavailable: %v\n", err)
		st = nil
	} else {
		defer st.Close()
	}

	o := orch.New(cfg, serviceController(), logger, st, snapDir)
	report := o.Run()

	fmt.Println()
	fmt.Print(output.RenderStepTable(stepRecords(report)))
	fmt.Printf("\nRun log: %s\n", logger.Path())
	if report.SnapshotPath != "" {
		fmt.Printf("Service snapshot: %s\n", report.SnapshotPath)
	}

	if !report.OK() {
		return fmt.Errorf("remediation finished with failures; see %s", logger.Path())
	}
	return nil
}

// stepRecords converts a run report to renderable step rows.
func stepRecords(report *orch.Report) []*store.StepRecord {
	records := make([]*store.StepRecord, 0, len(report.Steps))
	for i, s := range report.Steps {
		records = append(records, &store.StepRecord{
			RunID:  report.RunID,
			Seq:    i + 1,
			Name:   s.Name,
			Status: string(s.Status),
			Detail: s.Detail,
		})
	}
	return records
}
