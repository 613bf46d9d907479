package runlog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewDerivesPathFromStartTimestamp(t *testing.T) {
	tempDir := t.TempDir()
	start := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	l, err := New(tempDir, start)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer l.Close()

	want := filepath.Join(tempDir, "updreset-2025-03-14-092653.log")
	if l.Path() != want {
		t.Errorf("Path() = %q, want %q", l.Path(), want)
	}

	if _, err := os.Stat(want); err != nil {
		t.Errorf("log file should exist: %v", err)
	}
}

func TestLinesCarryTimestampAndLevel(t *testing.T) {
	var console bytes.Buffer
	l := NewWithWriters(nil, &console)
	l.now = func() time.Time {
		return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	}

	l.Infof("stopping service %s", "bits")
	l.Errorf("rename failed: %v", os.ErrPermission)

	lines := strings.Split(strings.TrimRight(console.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), console.String())
	}

	if lines[0] != "2025-03-14 09:26:53 [INFO] stopping service bits" {
		t.Errorf("unexpected INFO line: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2025-03-14 09:26:53 [ERROR] rename failed:") {
		t.Errorf("unexpected ERROR line: %q", lines[1])
	}
}

func TestFileAndConsoleReceiveSameLines(t *testing.T) {
	tempDir := t.TempDir()

	l, err := New(tempDir, time.Now())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	var console bytes.Buffer
	l.console = &console

	l.Infof("archive complete")
	if err := l.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	data, err := os.ReadFile(l.Path())
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	if string(data) != console.String() {
		t.Errorf("file content %q != console content %q", data, console.String())
	}
	if !strings.Contains(string(data), "[INFO] archive complete") {
		t.Errorf("log file missing expected line: %q", data)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	l, err := New(t.TempDir(), time.Now())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("first Close() failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close() should be a no-op, got: %v", err)
	}
}
