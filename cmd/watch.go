package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cottand/callinfer/internal/log"
	"github.com/fsnotify/fsnotify"
)

var logger = log.DefaultLogger.With("section", "fixture.watch")

// settle is how long to wait for a burst of file events to end
const settle = 100 * time.Millisecond

// watchFixtures calls check once, then again whenever a fixture under
// targets changes, until ctx is done
func watchFixtures(ctx context.Context, targets []string, check func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not start watching: %w", err)
	}
	defer w.Close()

	for _, target := range targets {
		dir := target
		if stat, err := os.Stat(target); err == nil && !stat.IsDir() {
			dir = filepath.Dir(target)
		}
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("could not watch %s: %w", dir, err)
		}
	}

	check()
	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 || filepath.Ext(ev.Name) != ".yaml" {
				continue
			}
			logger.Debug("fixture changed", "path", ev.Name, "op", ev.Op.String())
			timer.Reset(settle)
		case <-timer.C:
			check()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "err", err)
		}
	}
}
