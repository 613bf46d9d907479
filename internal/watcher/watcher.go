// Package watcher observes the marker directory after a remediation run.
//
// A healthy update subsystem recreates its queue markers slowly; markers
// reappearing immediately after a reset usually mean the subsystem is stuck
// again. `updreset watch` surfaces that by logging every marker file created
// under the watched tree.
package watcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/blackwell-systems/updreset/internal/markers"
	"github.com/blackwell-systems/updreset/internal/runlog"
)

// Watcher reports marker files created under a directory tree.
type Watcher struct {
	fsw    *fsnotify.Watcher
	log    *runlog.Logger
	suffix string
	stopCh chan struct{}
	wg     sync.WaitGroup

	// OnMarker, when set, is invoked for every detected marker in addition
	// to logging. Used by tests and by callers that want counts.
	OnMarker func(path string)
}

// New creates a Watcher for marker files ending in suffix.
func New(log *runlog.Logger, suffix string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	return &Watcher{
		fsw:    fsw,
		log:    log,
		suffix: suffix,
		stopCh: make(chan struct{}),
	}, nil
}

// Start watches root and every directory currently beneath it, then begins
// reporting marker creations. Directories created later are added to the
// watch as their create events arrive.
func (w *Watcher) Start(root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := w.fsw.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}

	w.log.Infof("watching %s for *%s markers", root, w.suffix)

	w.wg.Add(1)
	go w.run()
	return nil
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			w.handleCreate(event.Name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Errorf("watch error: %v", err)

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) handleCreate(path string) {
	if info, err := os.Lstat(path); err == nil && info.IsDir() {
		if err := w.fsw.Add(path); err != nil {
			w.log.Errorf("failed to watch new directory %s: %v", path, err)
		}
		return
	}
	if markers.Matches(filepath.Base(path), w.suffix) {
		w.log.Infof("marker recreated: %s", path)
		if w.OnMarker != nil {
			w.OnMarker(path)
		}
	}
}

// Stop halts the watcher and releases its filesystem watches.
func (w *Watcher) Stop() error {
	close(w.stopCh)
	err := w.fsw.Close()
	w.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close filesystem watcher: %w", err)
	}
	return nil
}
