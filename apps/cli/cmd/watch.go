package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDebounceDelay is the debounce delay for file watch events
const WatchDebounceDelay = 300 * time.Millisecond

// watchTargets returns the files whose changes trigger another post.
func watchTargets(opts *postOptions) []string {
	var files []string
	if opts.dataFile != "" && opts.dataFile != "-" {
		files = append(files, opts.dataFile)
	}
	if opts.schemaFile != "" {
		files = append(files, opts.schemaFile)
	}
	return files
}

// watch re-posts after the data or schema file changes until ctx is done.
// Posts run on this goroutine, one at a time.
func (r *postRun) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	targets := make(map[string]bool)
	watchedDirs := make(map[string]bool)
	for _, file := range watchTargets(r.opts) {
		abs, err := filepath.Abs(file)
		if err != nil {
			return configError(r.cmd, err)
		}
		targets[abs] = true

		dir := filepath.Dir(abs)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				return configError(r.cmd, fmt.Errorf("failed to watch %s: %w", dir, err))
			}
			watchedDirs[dir] = true
		}
	}

	out := r.cmd.ErrOrStderr()
	fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n")

	var (
		debounce *time.Timer
		fire     <-chan time.Time
		changed  string
	)
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Editors often replace the file instead of writing it in place.
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !targets[filepath.Clean(event.Name)] {
				continue
			}
			changed = event.Name
			if debounce == nil {
				debounce = time.NewTimer(WatchDebounceDelay)
			} else {
				debounce.Reset(WatchDebounceDelay)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			fmt.Fprintf(out, "\nFile changed: %s\nPosting again...\n\n", changed)
			// Failures are already reported by the formatter.
			_ = r.once(ctx)
			fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.formatter.FormatError(fmt.Errorf("watcher error: %w", err))
		}
	}
}
