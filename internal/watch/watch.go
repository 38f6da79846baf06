// Package watch reports changes to note files under a vault directory.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/vaultql/internal/checksum"
)

// Event kinds passed to a Callback.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// Callback is called for every note change. path is relative to the root.
type Callback func(kind, path string)

// Matcher selects the files that count as notes.
type Matcher interface {
	Matches(path string) bool
}

// settle is how long a burst of events must be quiet before a rescan of a
// renamed or newly created directory.
const settle = 200 * time.Millisecond

// Watch watches root recursively until ctx is cancelled and calls cb for
// note changes. Writes that leave a file's content unchanged are dropped.
//
// Watch only notifies: it keeps no copy of the notes, and every query still
// performs its own scan. A symlinked root is resolved once at start.
func Watch(ctx context.Context, root string, match Matcher, logger *slog.Logger, cb Callback) error {
	root, err := filepath.EvalSymlinks(root)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	sums := checksum.NewTracker()
	if err := addDirsRecursive(w, root, func(p string) {
		_, _ = sums.Observe(p)
	}, match); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var settleTimer *time.Timer
	var settleCh <-chan time.Time
	scheduleRescan := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(settle)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(settle)
		}
	}

	emit := func(kind, abs string) {
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			return
		}
		logger.Debug("watcher: change", slog.String("path", rel), slog.String("op", kind))
		if cb != nil {
			cb(kind, rel)
		}
	}

	observe := func(abs string) error {
		change, err := sums.Observe(abs)
		if err != nil {
			return err
		}
		switch change {
		case checksum.Added:
			emit(KindCreated, abs)
		case checksum.Modified:
			emit(KindUpdated, abs)
		}
		return nil
	}

	// rescan reconciles sums with the files on disk.
	rescan := func() {
		seen := make(map[string]struct{}, sums.Len())
		_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil || !d.Type().IsRegular() || !match.Matches(p) {
				return nil
			}
			seen[p] = struct{}{}
			_ = observe(p)
			return nil
		})
		for _, p := range sums.Retain(seen) {
			emit(KindDeleted, p)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-settleCh:
			rescan()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			abs := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(abs); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, abs, nil, match); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", abs),
							slog.String("error", addErr.Error()))
					}
					scheduleRescan()
					continue
				}
			}

			if !match.Matches(abs) {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if err := observe(abs); err != nil {
					logger.Warn("watcher: read failed", slog.String("path", abs), slog.String("error", err.Error()))
				}

			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// Rename fires on the old path only; the new path arrives as
				// a Create or is picked up by the rescan.
				if sums.Forget(abs) {
					emit(KindDeleted, abs)
				}
				if ev.Op&fsnotify.Rename != 0 {
					scheduleRescan()
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher and
// calls seed, if non-nil, for every note found on the way.
func addDirsRecursive(w *fsnotify.Watcher, root string, seed func(string), match Matcher) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		if seed != nil && d.Type().IsRegular() && match.Matches(p) {
			seed(p)
		}
		return nil
	})
}
