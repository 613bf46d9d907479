// Package markers deletes stale marker files left behind by the update
// subsystem, matched by filename suffix under a fixed directory tree.
package markers

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/updreset/internal/runlog"
)

// Result reports one cleaning pass. WalkErr is set when the tree could not be
// enumerated at all (e.g. the root is missing); it is reported, not fatal.
type Result struct {
	Deleted []string
	Failed  []string
	WalkErr error
}

// OK reports whether the pass enumerated cleanly and every matched file was
// deleted.
func (r Result) OK() bool {
	return r.WalkErr == nil && len(r.Failed) == 0
}

// Matches reports whether a marker filename ends with the configured suffix.
func Matches(name, suffix string) bool {
	return suffix != "" && strings.HasSuffix(name, suffix)
}

// Cleaner deletes marker files, logging each deletion.
type Cleaner struct {
	log *runlog.Logger
}

// New creates a Cleaner that records its actions on log.
func New(log *runlog.Logger) *Cleaner {
	return &Cleaner{log: log}
}

// Clean walks rootDir recursively and deletes every file whose name ends with
// suffix. Directories are traversed, never deleted. Individual deletion
// failures are logged and collected; the walk continues.
func (c *Cleaner) Clean(rootDir, suffix string) Result {
	var res Result

	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Root missing or subtree unreadable: record and keep walking
			// whatever remains reachable.
			if res.WalkErr == nil {
				res.WalkErr = err
			}
			c.log.Errorf("failed to enumerate %s: %v", path, err)
			return nil
		}
		if d.IsDir() || !Matches(d.Name(), suffix) {
			return nil
		}

		c.log.Infof("deleting stale marker %s", path)
		if err := os.Remove(path); err != nil {
			c.log.Errorf("failed to delete %s: %v", path, err)
			res.Failed = append(res.Failed, path)
			return nil
		}
		c.log.Infof("deleted %s", path)
		res.Deleted = append(res.Deleted, path)
		return nil
	})
	if err != nil && res.WalkErr == nil {
		res.WalkErr = fmt.Errorf("failed to walk %s: %w", rootDir, err)
	}

	return res
}
