package winsvc

import (
	"time"

	"github.com/blackwell-systems/updreset/internal/runlog"
)

// ServiceRecord captures one service's startup mode at snapshot time. It is
// the source of truth for restoration and is never mutated afterwards.
type ServiceRecord struct {
	Name                string      `json:"name"`
	OriginalStartupMode StartupMode `json:"original_startup_mode"`
}

// OpResult is the outcome of one best-effort per-service operation.
type OpResult struct {
	Name string
	Err  error
}

// FailureCount returns how many results carry an error.
func FailureCount(results []OpResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Manager snapshots, suspends, and restores a fixed set of services. Every
// operation is best-effort per service: one stuck service never blocks the
// others, and every state change is logged before and after it executes.
type Manager struct {
	ctrl   Controller
	log    *runlog.Logger
	settle time.Duration
	sleep  func(time.Duration)
}

// NewManager creates a Manager. settle is the fixed pause inserted before
// each service's startup mode is restored, bounding the race where the update
// subsystem has not yet released its handles.
func NewManager(ctrl Controller, log *runlog.Logger, settle time.Duration) *Manager {
	return &Manager{
		ctrl:   ctrl,
		log:    log,
		settle: settle,
		sleep:  time.Sleep,
	}
}

// Snapshot records the current startup mode of each named service, in order.
// A service whose configuration cannot be read is recorded as ModeUnknown
// rather than failing the snapshot.
func (m *Manager) Snapshot(names []string) []ServiceRecord {
	records := make([]ServiceRecord, 0, len(names))
	for _, name := range names {
		mode, err := m.ctrl.QueryStartMode(name)
		if err != nil {
			m.log.Errorf("could not resolve service %s, recording unknown: %v", name, err)
			mode = ModeUnknown
		} else {
			m.log.Infof("service %s startup mode is %s", name, mode)
		}
		records = append(records, ServiceRecord{Name: name, OriginalStartupMode: mode})
	}
	return records
}

// Suspend disables then stops each named service. Failures are logged and the
// iteration continues; the per-service outcomes are returned for the caller's
// run report.
func (m *Manager) Suspend(names []string) []OpResult {
	results := make([]OpResult, 0, len(names))
	for _, name := range names {
		var firstErr error

		m.log.Infof("disabling service %s", name)
		if err := m.ctrl.SetStartMode(name, ModeDisabled); err != nil {
			m.log.Errorf("failed to disable %s: %v", name, err)
			firstErr = err
		} else {
			m.log.Infof("disabled %s", name)
		}

		m.log.Infof("stopping service %s", name)
		if err := m.ctrl.Stop(name); err != nil {
			m.log.Errorf("failed to stop %s: %v", name, err)
			if firstErr == nil {
				firstErr = err
			}
		} else {
			m.log.Infof("stopped %s", name)
		}

		results = append(results, OpResult{Name: name, Err: firstErr})
	}
	return results
}

// Restore puts each recorded service back to its snapshotted startup mode and
// starts it. Before each service a fixed settle interval is waited out.
// Records snapshotted as ModeUnknown are skipped with a warning; guessing a
// default would silently rewrite configuration the snapshot never saw.
func (m *Manager) Restore(records []ServiceRecord) []OpResult {
	results := make([]OpResult, 0, len(records))
	for _, rec := range records {
		if rec.OriginalStartupMode == ModeUnknown {
			m.log.Errorf("skipping restore of %s: original startup mode unknown", rec.Name)
			results = append(results, OpResult{Name: rec.Name, Err: ErrUnknownMode})
			continue
		}

		m.sleep(m.settle)

		var firstErr error

		m.log.Infof("restoring service %s startup mode to %s", rec.Name, rec.OriginalStartupMode)
		if err := m.ctrl.SetStartMode(rec.Name, rec.OriginalStartupMode); err != nil {
			m.log.Errorf("failed to restore startup mode of %s: %v", rec.Name, err)
			firstErr = err
		} else {
			m.log.Infof("restored %s to %s", rec.Name, rec.OriginalStartupMode)
		}

		m.log.Infof("starting service %s", rec.Name)
		if err := m.ctrl.Start(rec.Name); err != nil {
			m.log.Errorf("failed to start %s: %v", rec.Name, err)
			if firstErr == nil {
				firstErr = err
			}
		} else {
			m.log.Infof("started %s", rec.Name)
		}

		results = append(results, OpResult{Name: rec.Name, Err: firstErr})
	}
	return results
}
