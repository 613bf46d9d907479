// Package runlog provides the per-run action log for updreset.
//
// Every state-changing action in a remediation run is recorded here, both
// before and after it executes, so that a partially completed run can be
// reconstructed (and manually recovered) from the log alone. Lines go to a
// run-scoped file and, mirrored, to the console.
package runlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Level classifies a log line.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

// Logger appends timestamped, leveled lines to a run-scoped file and echoes
// them to a console writer. Construct one per run with New and pass it
// explicitly to every component that logs; there is no package-level default.
type Logger struct {
	mu      sync.Mutex
	file    *os.File
	console io.Writer
	path    string
	now     func() time.Time
}

// New creates a Logger writing to a file under dir whose name is derived from
// the run start timestamp, e.g. updreset-2025-01-02-150405.log. The directory
// is created if missing.
func New(dir string, start time.Time) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("updreset-%s.log", start.Format("2006-01-02-150405")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &Logger{
		file:    f,
		console: os.Stdout,
		path:    path,
		now:     time.Now,
	}, nil
}

// NewWithWriters creates a Logger that writes only to the given writers.
// Used by tests; file may be nil.
func NewWithWriters(file *os.File, console io.Writer) *Logger {
	return &Logger{
		file:    file,
		console: console,
		now:     time.Now,
	}
}

// Path returns the log file path, empty if the logger is file-less.
func (l *Logger) Path() string {
	return l.path
}

// Infof records an INFO line.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.write(LevelInfo, fmt.Sprintf(format, args...))
}

// Errorf records an ERROR line.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.write(LevelError, fmt.Sprintf(format, args...))
}

func (l *Logger) write(level Level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("%s [%s] %s\n", l.now().Format("2006-01-02 15:04:05"), level, msg)

	if l.file != nil {
		// Append errors are swallowed: the console copy still lands, and a
		// remediation run must not stop because its audit file went away.
		l.file.WriteString(line)
	}
	if l.console != nil {
		io.WriteString(l.console, line)
	}
}

// Close flushes and closes the underlying log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	l.file = nil
	return nil
}
