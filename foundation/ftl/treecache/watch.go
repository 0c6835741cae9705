// File: watch.go
// Title: Source File Watching
// Description: Optional filesystem watching for the tree cache. File events
//              under a watched directory invalidate the matching cache
//              entry after a short debounce, so repeated editor writes
//              collapse into one invalidation.
// Version: v0.1.0
// Created: 2025-07-15
// Modified: 2025-07-15
//
// Change History:
// - 2025-07-15 v0.1.0: Initial watch implementation

package treecache

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	formaerror "github.com/formalang/forma/foundation/core/error"
	"github.com/formalang/forma/foundation/core/log"
)

// debounceDelay collapses bursts of events for the same file
const debounceDelay = 250 * time.Millisecond

// Watch invalidates cache entries when their source files change. It blocks
// until the context is cancelled or the watcher fails.
func (c *Cache) Watch(ctx context.Context, dirs ...string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return formaerror.Wrap(err, "failed to create file watcher").
			WithCode(formaerror.CodeInternal).
			WithOperation("treecache.Watch")
	}
	defer watcher.Close()

	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return formaerror.Wrap(err, "failed to watch directory").
				WithCode(formaerror.CodeConfigError).
				WithOperation("treecache.Watch").
				WithDetail("dir", dir)
		}
	}

	c.logger.Info("watching source directories", log.Fields{
		"dirs": dirs,
	})

	var pendingMu sync.Mutex
	pending := make(map[string]*time.Timer)

	defer func() {
		pendingMu.Lock()
		for _, timer := range pending {
			timer.Stop()
		}
		pendingMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			path := event.Name

			pendingMu.Lock()
			if timer, exists := pending[path]; exists {
				timer.Reset(debounceDelay)
			} else {
				pending[path] = time.AfterFunc(debounceDelay, func() {
					pendingMu.Lock()
					delete(pending, path)
					pendingMu.Unlock()

					c.Invalidate(path)
					c.logger.Debug("invalidated changed source", log.Fields{
						"identity": path,
					})
				})
			}
			pendingMu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.WarnWithErr("file watcher error", err, nil)
		}
	}
}
