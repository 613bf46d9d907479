package rotate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/blackwell-systems/updreset/internal/runlog"
)

func testArchiver() *Archiver {
	return New(runlog.NewWithWriters(nil, nil))
}

// makeDirWithMarker creates dir containing a single marker file whose name
// identifies the directory's original role, so renames can be traced.
func makeDirWithMarker(t *testing.T, dir, marker string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, marker), []byte(marker), 0644); err != nil {
		t.Fatalf("failed to write marker in %s: %v", dir, err)
	}
}

func markerIn(t *testing.T, dir string) string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to read %s: %v", dir, err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one marker in %s, got %d entries", dir, len(entries))
	}
	return entries[0].Name()
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func TestSlotPath(t *testing.T) {
	if got := SlotPath("/data/SoftwareDistribution", 1); got != "/data/SoftwareDistribution_01" {
		t.Errorf("SlotPath generation 1 = %q", got)
	}
	if got := SlotPath("/data/SoftwareDistribution", 10); got != "/data/SoftwareDistribution_10" {
		t.Errorf("SlotPath generation 10 = %q", got)
	}
}

func TestPlanOrderIsDescending(t *testing.T) {
	steps := Plan("/d/base", 3)

	want := []Step{
		{Kind: StepDeleteOldest, From: "/d/base_03"},
		{Kind: StepShift, From: "/d/base_02", To: "/d/base_03"},
		{Kind: StepShift, From: "/d/base_01", To: "/d/base_02"},
		{Kind: StepArchiveLive, From: "/d/base", To: "/d/base_01"},
	}
	if len(steps) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(steps))
	}
	for i, s := range steps {
		if s != want[i] {
			t.Errorf("step %d = %+v, want %+v", i, s, want[i])
		}
	}
}

// Scenario: live directory exists, no prior slots, maxGenerations 5.
func TestArchiveFirstRun(t *testing.T) {
	base := filepath.Join(t.TempDir(), "SoftwareDistribution")
	makeDirWithMarker(t, base, "live")

	res, err := testArchiver().Archive(base, 5)
	if err != nil {
		t.Fatalf("Archive() failed: %v", err)
	}
	if !res.OK() {
		t.Fatalf("Archive() reported failures: %+v", res.Failures())
	}

	if exists(base) {
		t.Error("live path should no longer exist")
	}
	if got := markerIn(t, SlotPath(base, 1)); got != "live" {
		t.Errorf("slot 1 holds %q, want the former live contents", got)
	}
	for i := 2; i <= 5; i++ {
		if exists(SlotPath(base, i)) {
			t.Errorf("slot %d should not exist on first run", i)
		}
	}
}

// Scenario: full chain. Slot 5 is discarded, everything shifts, live lands in 1.
func TestArchiveFullChain(t *testing.T) {
	base := filepath.Join(t.TempDir(), "catroot2")
	makeDirWithMarker(t, base, "live")
	for i := 1; i <= 5; i++ {
		makeDirWithMarker(t, SlotPath(base, i), SlotPath("gen", i))
	}

	res, err := testArchiver().Archive(base, 5)
	if err != nil {
		t.Fatalf("Archive() failed: %v", err)
	}
	if !res.OK() {
		t.Fatalf("Archive() reported failures: %+v", res.Failures())
	}

	if exists(base) {
		t.Error("live path should no longer exist")
	}
	if exists(SlotPath(base, 6)) {
		t.Error("slot 6 must never exist")
	}

	// Former generation i is now at i+1; former live is at 1.
	if got := markerIn(t, SlotPath(base, 1)); got != "live" {
		t.Errorf("slot 1 holds %q, want former live", got)
	}
	for i := 2; i <= 5; i++ {
		want := SlotPath("gen", i-1)
		if got := markerIn(t, SlotPath(base, i)); got != want {
			t.Errorf("slot %d holds %q, want %q", i, got, want)
		}
	}
}

// Sparse chains shift without inventing or bridging gaps.
func TestArchiveSparseChain(t *testing.T) {
	base := filepath.Join(t.TempDir(), "base")
	makeDirWithMarker(t, base, "live")
	makeDirWithMarker(t, SlotPath(base, 2), "gen2")
	makeDirWithMarker(t, SlotPath(base, 4), "gen4")

	res, err := testArchiver().Archive(base, 5)
	if err != nil {
		t.Fatalf("Archive() failed: %v", err)
	}
	if !res.OK() {
		t.Fatalf("Archive() reported failures: %+v", res.Failures())
	}

	if got := markerIn(t, SlotPath(base, 1)); got != "live" {
		t.Errorf("slot 1 holds %q, want former live", got)
	}
	if got := markerIn(t, SlotPath(base, 3)); got != "gen2" {
		t.Errorf("slot 3 holds %q, want former gen2", got)
	}
	if got := markerIn(t, SlotPath(base, 5)); got != "gen4" {
		t.Errorf("slot 5 holds %q, want former gen4", got)
	}
	for _, gen := range []int{2, 4} {
		if exists(SlotPath(base, gen)) {
			t.Errorf("slot %d should have been vacated", gen)
		}
	}
}

func TestArchiveSingleGeneration(t *testing.T) {
	base := filepath.Join(t.TempDir(), "base")
	makeDirWithMarker(t, base, "live")
	makeDirWithMarker(t, SlotPath(base, 1), "old-backup")

	res, err := testArchiver().Archive(base, 1)
	if err != nil {
		t.Fatalf("Archive() failed: %v", err)
	}
	if !res.OK() {
		t.Fatalf("Archive() reported failures: %+v", res.Failures())
	}

	if exists(base) {
		t.Error("live path should no longer exist")
	}
	if got := markerIn(t, SlotPath(base, 1)); got != "live" {
		t.Errorf("slot 1 holds %q, want former live (old backup discarded)", got)
	}
	if exists(SlotPath(base, 2)) {
		t.Error("slot 2 must never exist with maxGenerations 1")
	}
}

func TestArchiveMissingLiveIsNoOp(t *testing.T) {
	base := filepath.Join(t.TempDir(), "absent")
	makeDirWithMarker(t, SlotPath(base, 1), "gen1")

	res, err := testArchiver().Archive(base, 3)
	if err != nil {
		t.Fatalf("Archive() failed: %v", err)
	}
	if !res.OK() {
		t.Fatalf("Archive() reported failures: %+v", res.Failures())
	}

	last := res.Steps[len(res.Steps)-1]
	if last.Step.Kind != StepArchiveLive || last.Outcome != OutcomeSkipped {
		t.Errorf("archive-live step should be skipped, got %+v", last)
	}

	// The chain still shifted: slots move even when the live path is absent.
	if got := markerIn(t, SlotPath(base, 2)); got != "gen1" {
		t.Errorf("slot 2 holds %q, want former gen1", got)
	}
}

func TestArchiveRejectsInvalidGenerations(t *testing.T) {
	if _, err := testArchiver().Archive(t.TempDir(), 0); err == nil {
		t.Error("Archive() with maxGenerations 0 should fail")
	}
	if _, err := testArchiver().Archive(t.TempDir(), -3); err == nil {
		t.Error("Archive() with negative maxGenerations should fail")
	}
}

// A plain file squatting on a slot path is rotated like a directory.
func TestArchiveRotatesNonDirectorySlot(t *testing.T) {
	base := filepath.Join(t.TempDir(), "base")
	makeDirWithMarker(t, base, "live")
	if err := os.WriteFile(SlotPath(base, 1), []byte("stray"), 0644); err != nil {
		t.Fatalf("failed to plant stray file: %v", err)
	}

	res, err := testArchiver().Archive(base, 3)
	if err != nil {
		t.Fatalf("Archive() failed: %v", err)
	}
	if !res.OK() {
		t.Fatalf("Archive() reported failures: %+v", res.Failures())
	}

	data, err := os.ReadFile(SlotPath(base, 2))
	if err != nil {
		t.Fatalf("stray file should have moved to slot 2: %v", err)
	}
	if string(data) != "stray" {
		t.Errorf("slot 2 content = %q, want %q", data, "stray")
	}
	if got := markerIn(t, SlotPath(base, 1)); got != "live" {
		t.Errorf("slot 1 holds %q, want former live", got)
	}
}

// Running Archive twice in a row never collides and loses only what falls
// past the retention boundary.
func TestArchiveTwiceIsCollisionFree(t *testing.T) {
	base := filepath.Join(t.TempDir(), "base")
	makeDirWithMarker(t, base, "live-1")

	a := testArchiver()
	if res, err := a.Archive(base, 3); err != nil || !res.OK() {
		t.Fatalf("first Archive() failed: err=%v failures=%+v", err, res.Failures())
	}

	// Simulate the update subsystem recreating the live directory.
	makeDirWithMarker(t, base, "live-2")

	if res, err := a.Archive(base, 3); err != nil || !res.OK() {
		t.Fatalf("second Archive() failed: err=%v failures=%+v", err, res.Failures())
	}

	if got := markerIn(t, SlotPath(base, 1)); got != "live-2" {
		t.Errorf("slot 1 holds %q, want live-2", got)
	}
	if got := markerIn(t, SlotPath(base, 2)); got != "live-1" {
		t.Errorf("slot 2 holds %q, want live-1", got)
	}
	if exists(base) {
		t.Error("live path should be vacated after second run")
	}
}
