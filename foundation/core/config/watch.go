// File: watch.go
// Title: Configuration File Watching
// Description: Implements file system watching for configuration files using
//              fsnotify so running processes pick up edits without a restart.
// Version: v0.1.0
// Created: 2025-07-13
// Modified: 2025-07-13
//
// Change History:
// - 2025-07-13 v0.1.0: Initial fsnotify-based watching

package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	formaerror "github.com/formalang/forma/foundation/core/error"
	"github.com/formalang/forma/foundation/utils/stringx"
)

// Watch starts monitoring the configuration file for changes. Reloads are
// debounced because editors commonly emit several events per save.
func (c *Config) Watch() error {
	if stringx.IsBlank(c.filePath) {
		return formaerror.New("file path required for watching").
			WithCode(formaerror.CodeConfigError).
			WithOperation("config.Watch")
	}

	c.mu.Lock()
	if c.watching {
		c.mu.Unlock()
		return nil
	}
	c.watching = true
	c.stopCh = make(chan struct{})
	c.mu.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return formaerror.Wrap(err, "failed to create config watcher").
			WithCode(formaerror.CodeConfigError).
			WithOperation("config.Watch")
	}

	// Watch the directory, not the file: many editors replace the file on
	// save, which would otherwise drop the watch.
	if err := watcher.Add(filepath.Dir(c.filePath)); err != nil {
		watcher.Close()
		return formaerror.Wrap(err, "failed to watch config directory").
			WithCode(formaerror.CodeConfigError).
			WithOperation("config.Watch").
			WithDetail("filePath", c.filePath)
	}

	go c.watchLoop(watcher)
	return nil
}

// StopWatching stops the file watcher
func (c *Config) StopWatching() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watching {
		c.watching = false
		close(c.stopCh)
	}
}

// watchLoop handles file system events until stopped
func (c *Config) watchLoop(watcher *fsnotify.Watcher) {
	defer watcher.Close()

	const debounceDelay = 250 * time.Millisecond
	var lastReload time.Time

	for {
		select {
		case <-c.stopCh:
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(c.filePath) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if time.Since(lastReload) < debounceDelay {
				continue
			}
			lastReload = time.Now()

			// Reload errors are swallowed here: a half-written file will
			// trigger another event once the write completes.
			c.reload()

		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// reload re-reads the configuration file and notifies change handlers
func (c *Config) reload() error {
	content, err := os.ReadFile(c.filePath)
	if err != nil {
		return formaerror.Wrap(err, "failed to read config file during reload").
			WithCode(formaerror.CodeConfigError).
			WithOperation("config.reload").
			WithDetail("filePath", c.filePath)
	}

	newData, err := parseContent(content, c.format)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.data = newData
	if info, statErr := os.Stat(c.filePath); statErr == nil {
		c.lastModified = info.ModTime()
	}
	handlers := make([]ChangeHandler, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	for _, handler := range handlers {
		handler(c)
	}
	return nil
}
