package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Run operations

// InsertRun records the start of a run.
func (s *Store) InsertRun(run *Run) error {
	query := `
		INSERT INTO runs (id, started_at, log_path, snapshot_path, ok)
		VALUES (?, ?, ?, ?, 0)
	`
	_, err := s.db.Exec(query,
		run.ID,
		run.StartedAt.Format(time.RFC3339),
		run.LogPath,
		run.SnapshotPath,
	)
	if err != nil {
		return classify(fmt.Errorf("failed to insert run %s: %w", run.ID, err))
	}
	return nil
}

// FinishRun records a run's completion time and overall outcome.
func (s *Store) FinishRun(runID string, finishedAt time.Time, ok bool) error {
	query := `UPDATE runs SET finished_at = ?, ok = ? WHERE id = ?`
	res, err := s.db.Exec(query, finishedAt.Format(time.RFC3339), ok, runID)
	if err != nil {
		return classify(fmt.Errorf("failed to finish run %s: %w", runID, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if n == 0 {
		return fmt.Errorf("run %s does not exist", runID)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first, up to limit.
// limit <= 0 means no limit.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := `
		SELECT id, started_at, finished_at, log_path, snapshot_path, ok
		FROM runs
		ORDER BY started_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list runs: %w", err))
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun retrieves one run by ID.
func (s *Store) GetRun(runID string) (*Run, error) {
	query := `
		SELECT id, started_at, finished_at, log_path, snapshot_path, ok
		FROM runs
		WHERE id = ?
	`
	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to get run %s: %w", runID, err))
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, classify(fmt.Errorf("failed to get run %s: %w", runID, err))
		}
		return nil, fmt.Errorf("run %s not found", runID)
	}
	return scanRun(rows)
}

func scanRun(rows *sql.Rows) (*Run, error) {
	var run Run
	var startedAt string
	var finishedAt, logPath, snapshotPath sql.NullString

	if err := rows.Scan(&run.ID, &startedAt, &finishedAt, &logPath, &snapshotPath, &run.OK); err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	t, err := time.Parse(time.RFC3339, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse started_at for run %s: %w", run.ID, err)
	}
	run.StartedAt = t

	if finishedAt.Valid && finishedAt.String != "" {
		t, err := time.Parse(time.RFC3339, finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse finished_at for run %s: %w", run.ID, err)
		}
		run.FinishedAt = t
	}
	run.LogPath = logPath.String
	run.SnapshotPath = snapshotPath.String
	return &run, nil
}

// Step operations

// InsertStep records one orchestrator step outcome.
func (s *Store) InsertStep(step *StepRecord) error {
	query := `
		INSERT INTO steps (run_id, seq, name, status, detail)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, step.RunID, step.Seq, step.Name, step.Status, step.Detail)
	if err != nil {
		return classify(fmt.Errorf("failed to insert step %s for run %s: %w", step.Name, step.RunID, err))
	}
	return nil
}

// GetSteps returns a run's steps in execution order.
func (s *Store) GetSteps(runID string) ([]*StepRecord, error) {
	query := `
		SELECT run_id, seq, name, status, detail
		FROM steps
		WHERE run_id = ?
		ORDER BY seq ASC
	`
	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to get steps for run %s: %w", runID, err))
	}
	defer rows.Close()

	var steps []*StepRecord
	for rows.Next() {
		var st StepRecord
		var detail sql.NullString
		if err := rows.Scan(&st.RunID, &st.Seq, &st.Name, &st.Status, &detail); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		st.Detail = detail.String
		steps = append(steps, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate steps: %w", err)
	}
	return steps, nil
}

// Generation operations

// InsertGeneration records one archived backup copy.
func (s *Store) InsertGeneration(gen *Generation) error {
	query := `
		INSERT INTO generations (run_id, base_path, slot_path, size_bytes)
		VALUES (?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, gen.RunID, gen.BasePath, gen.SlotPath, gen.SizeBytes)
	if err != nil {
		return classify(fmt.Errorf("failed to insert generation %s for run %s: %w", gen.SlotPath, gen.RunID, err))
	}
	return nil
}

// GetGenerations returns the backup copies recorded for a run.
func (s *Store) GetGenerations(runID string) ([]*Generation, error) {
	query := `
		SELECT run_id, base_path, slot_path, size_bytes
		FROM generations
		WHERE run_id = ?
		ORDER BY id ASC
	`
	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to get generations for run %s: %w", runID, err))
	}
	defer rows.Close()

	var gens []*Generation
	for rows.Next() {
		var g Generation
		var size sql.NullInt64
		if err := rows.Scan(&g.RunID, &g.BasePath, &g.SlotPath, &size); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		g.SizeBytes = size.Int64
		gens = append(gens, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate generations: %w", err)
	}
	return gens, nil
}
