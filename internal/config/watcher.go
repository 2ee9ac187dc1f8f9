package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mantonx/cinecache/internal/logger"
)

// FileWatcher reloads the configuration when its file changes on disk
type FileWatcher struct {
	manager       *ConfigManager
	watcher       *fsnotify.Watcher
	path          string
	debounceDelay time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	timer *time.Timer
}

// Watch starts watching the manager's config file. Directory events are
// watched rather than the file itself so editors that replace the file
// on save are still picked up.
func (cm *ConfigManager) Watch(debounce time.Duration) (*FileWatcher, error) {
	path := cm.Path()
	if path == "" {
		return nil, fmt.Errorf("no config path set")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	fw := &FileWatcher{
		manager:       cm,
		watcher:       w,
		path:          filepath.Clean(path),
		debounceDelay: debounce,
		cancel:        cancel,
	}

	fw.wg.Add(1)
	go fw.run(ctx)

	logger.Info("watching configuration file", "path", path)
	return fw, nil
}

func (fw *FileWatcher) run(ctx context.Context) {
	defer fw.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != fw.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				fw.scheduleReload()
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("configuration watcher error", "error", err)
		}
	}
}

func (fw *FileWatcher) scheduleReload() {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounceDelay, func() {
		if err := fw.manager.Reload(); err != nil {
			logger.Error("configuration reload failed, keeping previous values", "path", fw.path, "error", err)
			return
		}
		logger.Info("configuration reloaded", "path", fw.path)
	})
}

// Close stops the watcher
func (fw *FileWatcher) Close() error {
	fw.cancel()
	err := fw.watcher.Close()
	fw.wg.Wait()

	fw.mu.Lock()
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.mu.Unlock()
	return err
}
