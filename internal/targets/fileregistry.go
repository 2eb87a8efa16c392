package targets

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/linnemanlabs/go-core/log"
)

// FileRegistry serves the subscriber list from a JSON file on disk,
// hot-reloading it when the file changes. A reload that fails to parse keeps
// the previous list so a half-written file cannot empty the registry.
type FileRegistry struct {
	path   string
	logger log.Logger

	mu      sync.RWMutex
	current []Target
	watcher *fsnotify.Watcher
}

// NewFileRegistry loads the file and returns a ready registry.
func NewFileRegistry(path string, logger log.Logger) (*FileRegistry, error) {
	if logger == nil {
		logger = log.Nop()
	}
	r := &FileRegistry{path: path, logger: logger}
	list, err := r.load()
	if err != nil {
		return nil, err
	}
	r.current = list
	return r, nil
}

// List implements Registry.
func (r *FileRegistry) List(_ context.Context) ([]Target, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Target, len(r.current))
	copy(out, r.current)
	return out, nil
}

// Watch starts a background goroutine that reloads the file on change.
// Call the returned stop function to clean up.
func (r *FileRegistry) Watch(ctx context.Context) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("targets: watcher: %w", err)
	}
	if err := w.Add(r.path); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("targets: watch %s: %w", r.path, err)
	}
	r.watcher = w

	done := make(chan struct{})
	go func() {
		defer func() { _ = w.Close() }()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				list, err := r.load()
				if err != nil {
					r.logger.Error(ctx, err, "target file reload failed, keeping previous list", "path", r.path)
					continue
				}
				r.mu.Lock()
				r.current = list
				r.mu.Unlock()
				r.logger.Info(ctx, "target file reloaded", "path", r.path, "targets", len(list))
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				r.logger.Error(ctx, err, "target file watcher error", "path", r.path)
			case <-done:
				return
			}
		}
	}()

	return func() { close(done) }, nil
}

func (r *FileRegistry) load() ([]Target, error) {
	body, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("targets: read %s: %w", r.path, err)
	}
	list, err := decodeTargets(body)
	if err != nil {
		return nil, fmt.Errorf("targets: decode %s: %w", r.path, err)
	}
	return list, nil
}
