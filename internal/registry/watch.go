package registry

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the catalog whenever its backing file changes. The parent
// directory is watched because editors usually replace files by rename.
// The returned stop function ends the watch and waits for the loop to exit.
func (r *Registry) Watch(ctx context.Context) (func(), error) {
	if r.path == "" {
		return nil, ErrNoFile
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	target := filepath.Clean(r.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if err := r.Reload(); err != nil {
					slog.Warn("Component catalog reload failed, keeping previous catalog", "file", target, "error", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Error("Component catalog watcher error", "error", err)
			}
		}
	}()

	slog.Info("Watching component catalog", "file", target)
	var once sync.Once
	stop := func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
	return stop, nil
}
