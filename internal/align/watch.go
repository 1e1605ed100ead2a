// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package align

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces bursts of database writes into one re-run.
// Package-level var for test substitution.
var watchDebounce = 2 * time.Second

// Watch re-runs incremental alignment whenever the corpus database file
// changes. SQLite touches the file on every committed write, so a burst
// of ingest activity is debounced into a single run. Watch blocks until
// ctx is cancelled.
func (e *Engine) Watch(ctx context.Context, delta DeltaSource, dbPath string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dbPath); err != nil {
		return fmt.Errorf("watching %s: %w", dbPath, err)
	}
	fmt.Fprintf(e.logw, "watching %s for corpus changes\n", dbPath)

	lastRun := e.now()
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(watchDebounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(e.logw, "watch error: %v\n", err)

		case <-fire:
			timer = nil
			fire = nil
			since := lastRun
			lastRun = e.now()
			summary, err := e.RunSince(ctx, delta, since)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				fmt.Fprintf(e.logw, "watch run failed: %v\n", err)
				continue
			}
			fmt.Fprintf(e.logw, "watch run %s: %d succeeded, %d failed\n",
				summary.RunID, summary.Succeeded, summary.Failed)
		}
	}
}
