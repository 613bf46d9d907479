package winsvc

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoadSnapshot(t *testing.T) {
	dir := t.TempDir()
	records := []ServiceRecord{
		{Name: "wuauserv", OriginalStartupMode: ModeAutomaticDelayed},
		{Name: "bits", OriginalStartupMode: ModeManual},
	}

	path, err := SaveSnapshot(dir, records)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if len(loaded.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(loaded.Records))
	}
	if loaded.Records[0] != records[0] || loaded.Records[1] != records[1] {
		t.Errorf("round-trip mismatch: %+v", loaded.Records)
	}
	if loaded.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestLatestSnapshotPicksNewest(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"2025-01-02-030405.json", "2025-06-07-080910.json", "2024-12-31-235959.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(`{"records":[]}`), 0644); err != nil {
			t.Fatalf("failed to seed snapshot: %v", err)
		}
	}
	// Non-snapshot clutter must be ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("failed to seed clutter: %v", err)
	}

	path, err := LatestSnapshot(dir)
	if err != nil {
		t.Fatalf("LatestSnapshot failed: %v", err)
	}
	if filepath.Base(path) != "2025-06-07-080910.json" {
		t.Errorf("LatestSnapshot = %s, want 2025-06-07-080910.json", filepath.Base(path))
	}
}

func TestLatestSnapshotEmptyDirIsAnError(t *testing.T) {
	if _, err := LatestSnapshot(t.TempDir()); err == nil {
		t.Error("LatestSnapshot on an empty directory should fail")
	}
}

func TestLoadSnapshotInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("LoadSnapshot should fail on invalid JSON")
	}
}
