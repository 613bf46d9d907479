// Package rotate implements the bounded folder-rotation archiver.
//
// A base directory (the "live" path) is archived into numbered slots formed by
// appending a two-digit generation suffix: base_01 is the newest archived
// copy, base_NN the oldest retained. Rotation shifts every existing slot up
// one generation, discards the slot that falls off the end, then renames the
// live directory into slot 01. The shift walks generations in descending
// order so that no rename target is ever occupied by a later step of the same
// pass, which is what makes the in-place rotation safe without scratch space.
//
// The sequence is not atomic: a crash between steps leaves a partially
// shifted chain. Re-running is safe — every step operates on a uniquely
// determined source/target pair, so a second pass can never collide or
// duplicate names, only re-shift what remains.
package rotate

import (
	"fmt"
	"os"

	"github.com/blackwell-systems/updreset/internal/runlog"
)

// StepKind identifies one transition in a rotation plan.
type StepKind string

const (
	// StepDeleteOldest removes the slot at the retention boundary.
	StepDeleteOldest StepKind = "delete-oldest"
	// StepShift renames slot i to slot i+1.
	StepShift StepKind = "shift"
	// StepArchiveLive renames the live path into slot 01.
	StepArchiveLive StepKind = "archive-live"
)

// Step is a single candidate transition. From is the path acted on; To is the
// rename target, empty for deletions.
type Step struct {
	Kind StepKind
	From string
	To   string
}

// Outcome records what happened to one step at execution time.
type Outcome string

const (
	// OutcomeDone means the transition was performed.
	OutcomeDone Outcome = "done"
	// OutcomeSkipped means the source path did not exist when the step ran.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means the filesystem refused the operation.
	OutcomeFailed Outcome = "failed"
)

// StepResult pairs a step with its outcome. Err is set only for OutcomeFailed.
type StepResult struct {
	Step    Step
	Outcome Outcome
	Err     error
}

// Result reports one base path's rotation.
type Result struct {
	BasePath string
	Steps    []StepResult
}

// OK reports whether no step failed. Skipped steps are not failures.
func (r Result) OK() bool {
	for _, s := range r.Steps {
		if s.Outcome == OutcomeFailed {
			return false
		}
	}
	return true
}

// Failures returns the failed steps, in execution order.
func (r Result) Failures() []StepResult {
	var failed []StepResult
	for _, s := range r.Steps {
		if s.Outcome == OutcomeFailed {
			failed = append(failed, s)
		}
	}
	return failed
}

// SlotPath returns the path of the given backup generation for basePath.
// Generations are numbered from 1 and zero-padded to two digits.
func SlotPath(basePath string, generation int) string {
	return fmt.Sprintf("%s_%02d", basePath, generation)
}

// Plan computes the ordered candidate transitions for one rotation pass:
// delete the oldest slot, shift every remaining slot up by one in descending
// order, then archive the live path into slot 01. Whether each step actually
// runs is decided at execution time against the live filesystem, not here.
func Plan(basePath string, maxGenerations int) []Step {
	steps := []Step{
		{Kind: StepDeleteOldest, From: SlotPath(basePath, maxGenerations)},
	}
	for i := maxGenerations - 1; i >= 1; i-- {
		steps = append(steps, Step{
			Kind: StepShift,
			From: SlotPath(basePath, i),
			To:   SlotPath(basePath, i+1),
		})
	}
	steps = append(steps, Step{Kind: StepArchiveLive, From: basePath, To: SlotPath(basePath, 1)})
	return steps
}

// Archiver rotates directories into bounded backup chains, logging every
// state-changing action before and after it executes.
type Archiver struct {
	log *runlog.Logger
}

// New creates an Archiver that records its actions on log.
func New(log *runlog.Logger) *Archiver {
	return &Archiver{log: log}
}

// Archive rotates the backup chain for basePath, retaining at most
// maxGenerations archived copies, then moves the live directory into slot 01.
// A missing live path is a logged no-op, not an error. Individual step
// failures (file in use, permission denied) are recorded in the Result and do
// not stop the remaining steps; the returned error is non-nil only for an
// invalid maxGenerations.
func (a *Archiver) Archive(basePath string, maxGenerations int) (Result, error) {
	if maxGenerations < 1 {
		return Result{}, fmt.Errorf("maxGenerations must be >= 1, got %d", maxGenerations)
	}

	res := Result{BasePath: basePath}
	for _, step := range Plan(basePath, maxGenerations) {
		res.Steps = append(res.Steps, a.execute(step))
	}
	return res, nil
}

// execute runs one transition. Existence is checked immediately before the
// operation, not earlier: another process may have created or removed the
// path since the plan was computed, and acting on stale knowledge is how a
// rotation silently eats data.
func (a *Archiver) execute(step Step) StepResult {
	if !pathExists(step.From) {
		if step.Kind == StepArchiveLive {
			a.log.Infof("live path %s does not exist, nothing to archive", step.From)
		}
		return StepResult{Step: step, Outcome: OutcomeSkipped}
	}

	switch step.Kind {
	case StepDeleteOldest:
		a.log.Infof("deleting oldest generation %s", step.From)
		if err := os.RemoveAll(step.From); err != nil {
			a.log.Errorf("failed to delete %s: %v", step.From, err)
			return StepResult{Step: step, Outcome: OutcomeFailed, Err: fmt.Errorf("failed to delete %s: %w", step.From, err)}
		}
		a.log.Infof("deleted %s", step.From)

	case StepShift, StepArchiveLive:
		a.log.Infof("renaming %s -> %s", step.From, step.To)
		if err := os.Rename(step.From, step.To); err != nil {
			a.log.Errorf("failed to rename %s -> %s: %v", step.From, step.To, err)
			return StepResult{Step: step, Outcome: OutcomeFailed, Err: fmt.Errorf("failed to rename %s to %s: %w", step.From, step.To, err)}
		}
		a.log.Infof("renamed %s -> %s", step.From, step.To)
	}

	return StepResult{Step: step, Outcome: OutcomeDone}
}

// pathExists reports whether anything (directory, file, dangling symlink)
// occupies path. Slot paths holding non-directory entries are rotated the
// same way directories are, so Lstat is deliberately type-blind.
func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
