// Package orch sequences a remediation run: snapshot the update services,
// suspend them, rotate both cache directories into their backup chains, clean
// stale markers, then restore the services to their recorded configuration.
//
// The sequence is a fixed linear state machine with no retries and no
// branching on outcome beyond log-and-continue. Every step runs; the terminal
// state is reached even when individual steps fail. This is a best-effort
// remediation tool with a full audit trail, not a transactional system.
package orch

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/blackwell-systems/updreset/internal/config"
	"github.com/blackwell-systems/updreset/internal/markers"
	"github.com/blackwell-systems/updreset/internal/rotate"
	"github.com/blackwell-systems/updreset/internal/runlog"
	"github.com/blackwell-systems/updreset/internal/store"
	"github.com/blackwell-systems/updreset/internal/winsvc"
)

// StepStatus is the recorded outcome of one orchestrator step.
type StepStatus string

const (
	StatusOK     StepStatus = "ok"
	StatusFailed StepStatus = "failed"
)

// StepOutcome is one line of the run report.
type StepOutcome struct {
	Name   string
	Status StepStatus
	Detail string
}

// Report summarizes a completed run.
type Report struct {
	RunID        string
	StartedAt    time.Time
	FinishedAt   time.Time
	LogPath      string
	SnapshotPath string
	Steps        []StepOutcome
}

// OK reports whether every step succeeded.
func (r *Report) OK() bool {
	for _, s := range r.Steps {
		if s.Status != StatusOK {
			return false
		}
	}
	return true
}

// Orchestrator owns one remediation run. The audit store is optional: a nil
// store skips history recording, and store errors are logged, never fatal —
// the audit trail must not block the remediation it audits.
type Orchestrator struct {
	cfg         *config.Config
	log         *runlog.Logger
	mgr         *winsvc.Manager
	archiver    *rotate.Archiver
	cleaner     *markers.Cleaner
	st          *store.Store
	snapshotDir string
	now         func() time.Time
}

// New assembles an Orchestrator from the run's collaborators. snapshotDir is
// where the service-state snapshot file is persisted.
func New(cfg *config.Config, ctrl winsvc.Controller, log *runlog.Logger, st *store.Store, snapshotDir string) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		log:         log,
		mgr:         winsvc.NewManager(ctrl, log, cfg.Settle()),
		archiver:    rotate.New(log),
		cleaner:     markers.New(log),
		st:          st,
		snapshotDir: snapshotDir,
		now:         time.Now,
	}
}

// Run executes the full remediation sequence and returns its report. It never
// returns early: every step executes regardless of earlier failures.
func (o *Orchestrator) Run() *Report {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: o.now(),
		LogPath:   o.log.Path(),
	}
	o.log.Infof("remediation run %s starting", report.RunID)

	// Snapshot current service configuration, persisting it so an
	// interrupted run can be recovered with `updreset restore`.
	records := o.mgr.Snapshot(o.cfg.Services)
	snapPath, err := winsvc.SaveSnapshot(o.snapshotDir, records)
	if err != nil {
		o.log.Errorf("failed to persist service snapshot: %v", err)
		report.Steps = append(report.Steps, StepOutcome{Name: "snapshot", Status: StatusFailed, Detail: err.Error()})
	} else {
		report.SnapshotPath = snapPath
		report.Steps = append(report.Steps, StepOutcome{Name: "snapshot", Status: StatusOK, Detail: fmt.Sprintf("%d services recorded", len(records))})
	}

	o.recordRunStart(report)

	// Suspend: disable then stop each service, best-effort.
	suspendResults := o.mgr.Suspend(o.cfg.Services)
	report.Steps = append(report.Steps, serviceStepOutcome("suspend", suspendResults))

	// Rotate each cache directory into its backup chain. One directory's
	// trouble must not keep the next from being archived.
	for _, dir := range o.cfg.ArchiveDirs {
		report.Steps = append(report.Steps, o.archiveStep(report.RunID, dir))
	}

	// Sweep stale markers.
	cleanRes := o.cleaner.Clean(o.cfg.MarkerRoot, o.cfg.MarkerSuffix)
	report.Steps = append(report.Steps, cleanStepOutcome(cleanRes))

	// Restore services to their snapshotted configuration.
	restoreResults := o.mgr.Restore(records)
	report.Steps = append(report.Steps, serviceStepOutcome("restore", restoreResults))

	report.FinishedAt = o.now()
	o.recordRunFinish(report)

	if report.OK() {
		o.log.Infof("remediation run %s finished: all steps succeeded", report.RunID)
	} else {
		o.log.Errorf("remediation run %s finished with failures; review the log above for recovery guidance", report.RunID)
	}
	return report
}

// archiveStep rotates one directory and records the new slot-01 generation in
// the audit store.
func (o *Orchestrator) archiveStep(runID, dir string) StepOutcome {
	outcome := StepOutcome{Name: "archive", Detail: dir, Status: StatusOK}

	res, err := o.archiver.Archive(dir, o.cfg.MaxGenerations)
	if err != nil {
		outcome.Status = StatusFailed
		outcome.Detail = fmt.Sprintf("%s: %v", dir, err)
		return outcome
	}
	if !res.OK() {
		outcome.Status = StatusFailed
		outcome.Detail = fmt.Sprintf("%s: %d of %d steps failed", dir, len(res.Failures()), len(res.Steps))
	}

	// Record the freshly archived generation, if the live directory was
	// actually moved.
	last := res.Steps[len(res.Steps)-1]
	if last.Step.Kind == rotate.StepArchiveLive && last.Outcome == rotate.OutcomeDone {
		o.recordGeneration(runID, dir, last.Step.To)
	}
	return outcome
}

func serviceStepOutcome(name string, results []winsvc.OpResult) StepOutcome {
	failed := winsvc.FailureCount(results)
	if failed > 0 {
		return StepOutcome{
			Name:   name,
			Status: StatusFailed,
			Detail: fmt.Sprintf("%d of %d services failed", failed, len(results)),
		}
	}
	return StepOutcome{
		Name:   name,
		Status: StatusOK,
		Detail: fmt.Sprintf("%d services", len(results)),
	}
}

func cleanStepOutcome(res markers.Result) StepOutcome {
	outcome := StepOutcome{
		Name:   "clean-markers",
		Status: StatusOK,
		Detail: fmt.Sprintf("%d markers deleted", len(res.Deleted)),
	}
	if !res.OK() {
		outcome.Status = StatusFailed
		if res.WalkErr != nil {
			outcome.Detail = fmt.Sprintf("enumeration failed: %v", res.WalkErr)
		} else {
			outcome.Detail = fmt.Sprintf("%d deleted, %d failed", len(res.Deleted), len(res.Failed))
		}
	}
	return outcome
}

// Audit store writes, all best-effort.

func (o *Orchestrator) recordRunStart(report *Report) {
	if o.st == nil {
		return
	}
	err := o.st.InsertRun(&store.Run{
		ID:           report.RunID,
		StartedAt:    report.StartedAt,
		LogPath:      report.LogPath,
		SnapshotPath: report.SnapshotPath,
	})
	if err != nil {
		o.log.Errorf("failed to record run start in history: %v", err)
	}
}

func (o *Orchestrator) recordRunFinish(report *Report) {
	if o.st == nil {
		return
	}
	for i, step := range report.Steps {
		err := o.st.InsertStep(&store.StepRecord{
			RunID:  report.RunID,
			Seq:    i + 1,
			Name:   step.Name,
			Status: string(step.Status),
			Detail: step.Detail,
		})
		if err != nil {
			o.log.Errorf("failed to record step %s in history: %v", step.Name, err)
		}
	}
	if err := o.st.FinishRun(report.RunID, report.FinishedAt, report.OK()); err != nil {
		o.log.Errorf("failed to record run finish in history: %v", err)
	}
}

func (o *Orchestrator) recordGeneration(runID, basePath, slotPath string) {
	if o.st == nil {
		return
	}
	err := o.st.InsertGeneration(&store.Generation{
		RunID:     runID,
		BasePath:  basePath,
		SlotPath:  slotPath,
		SizeBytes: dirSize(slotPath),
	})
	if err != nil {
		o.log.Errorf("failed to record archived generation in history: %v", err)
	}
}

// dirSize sums the regular files under path. Unreadable entries count as
// zero; the size is informational.
func dirSize(path string) int64 {
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
