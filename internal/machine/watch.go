package machine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits for saves to settle
const DefaultDebounce = 300 * time.Millisecond

// Watch loads the machine and loads it again whenever a YAML file in the
// machine or mode config folders changes. onLoad gets the result of every
// load. Watch returns when ctx is done.
func Watch(ctx context.Context, opts Options, debounce time.Duration, onLoad func(*Machine, error)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	dirs, err := watchDirs(opts.Path)
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		logger.Debug("watching config folder", zap.String("dir", dir))
	}

	onLoad(Load(ctx, opts))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
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
			if !isConfigFile(event.Name) || event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("config changed", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			onLoad(Load(ctx, opts))
		}
	}
}

func watchDirs(path string) ([]string, error) {
	if path == "" {
		path = "."
	}
	dirs := []string{filepath.Join(path, "config")}
	modes, err := discoverModes(path)
	if err != nil {
		return nil, err
	}
	for _, mode := range modes {
		dirs = append(dirs, filepath.Join(modeRoot(path, mode), "config"))
	}

	out := dirs[:0]
	for _, d := range dirs {
		if fi, err := os.Stat(d); err == nil && fi.IsDir() {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no config folder under %s", path)
	}
	return out, nil
}

func isConfigFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
