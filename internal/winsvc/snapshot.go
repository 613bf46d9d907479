package winsvc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SnapshotData is the JSON structure persisted for one service snapshot. The
// on-disk copy exists so that a run interrupted between Suspend and Restore
// can still be recovered: `updreset restore` replays the latest snapshot.
type SnapshotData struct {
	CreatedAt time.Time       `json:"created_at"`
	Records   []ServiceRecord `json:"records"`
}

// SaveSnapshot writes the records to a timestamped JSON file under dir and
// returns the file's path. The directory is created if missing.
func SaveSnapshot(dir string, records []ServiceRecord) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	data := &SnapshotData{
		CreatedAt: time.Now(),
		Records:   records,
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot data: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.json", data.CreatedAt.Format("2006-01-02-150405")))
	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot file: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads and parses a snapshot file.
func LoadSnapshot(path string) (*SnapshotData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var data SnapshotData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot file %s: %w", path, err)
	}
	return &data, nil
}

// LatestSnapshot returns the path of the newest snapshot file under dir.
// Timestamped filenames sort lexically, so the newest is the last name.
func LatestSnapshot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("no snapshots found in %s", dir)
	}

	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}
