package store

import "time"

// Run is one recorded remediation run.
type Run struct {
	ID           string
	StartedAt    time.Time
	FinishedAt   time.Time
	LogPath      string
	SnapshotPath string
	OK           bool
}

// StepRecord is the recorded outcome of one orchestrator step.
type StepRecord struct {
	RunID  string
	Seq    int
	Name   string
	Status string
	Detail string
}

// Generation is one archived backup copy created by a run.
type Generation struct {
	RunID     string
	BasePath  string
	SlotPath  string
	SizeBytes int64
}
