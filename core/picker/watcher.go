package picker

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"TemplePlayer/logger"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultQuietPeriod = 500 * time.Millisecond
	checkInterval      = 50 * time.Millisecond
)

// DropFolder watches a directory and reports audio files created in it.
// A file is reported once it has seen no write for QuietPeriod, so partially
// copied files are not handed out.
type DropFolder struct {
	Dir         string
	QuietPeriod time.Duration
}

// Watch blocks until ctx is done, calling handle with each batch of newly
// settled audio files, sorted by path.
func (w DropFolder) Watch(ctx context.Context, handle func(paths []string)) error {
	quiet := w.QuietPeriod
	if quiet <= 0 {
		quiet = defaultQuietPeriod
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.Dir, err)
	}
	logger.Info("[DropFolder] watching", logger.String("dir", w.Dir))

	pending := make(map[string]time.Time)
	seen := make(map[string]bool)
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 && IsAudioFile(event.Name) && !seen[event.Name] {
				pending[event.Name] = time.Now()
			}
			if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				delete(pending, event.Name)
				delete(seen, event.Name)
			}

		case <-ticker.C:
			now := time.Now()
			var ready []string
			for path, last := range pending {
				if now.Sub(last) < quiet {
					continue
				}
				delete(pending, path)
				if info, err := os.Stat(path); err != nil || info.IsDir() {
					continue
				}
				seen[path] = true
				ready = append(ready, path)
			}
			if len(ready) > 0 {
				sort.Strings(ready)
				logger.Debug("[DropFolder] new files", logger.Strings("paths", ready))
				handle(ready)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("[DropFolder] watcher error", logger.ErrorField(err))
		}
	}
}
