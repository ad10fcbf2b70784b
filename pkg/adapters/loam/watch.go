package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

var watchedExts = map[string]bool{".md": true, ".json": true, ".yaml": true, ".yml": true}

// Watch reports the ids of trait documents that change on disk. The
// channel closes when ctx is done or the watcher fails.
func (c *Catalog) Watch(ctx context.Context) (<-chan string, error) {
	if c.dir == "" {
		return nil, fmt.Errorf("catalog has no directory to watch")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to start catalog watcher: %w", err)
	}
	if err := watcher.Add(c.dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", c.dir, err)
	}

	ch := make(chan string, 16)
	go func() {
		defer close(ch)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.logger.Warn("catalog watcher error", "err", err)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) &&
					!evt.Has(fsnotify.Remove) && !evt.Has(fsnotify.Rename) {
					continue
				}
				name := filepath.Base(evt.Name)
				if strings.HasPrefix(name, ".") || !watchedExts[filepath.Ext(name)] {
					continue
				}
				select {
				case ch <- trimExtension(name):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}
