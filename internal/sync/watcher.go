package sync

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rjeczalik/notify"

	"github.com/gitnexus/gitnexus/internal/localfs"
)

const watchEventBufferSize = 64

// Watcher flags live-directory folders as dirty when their files
// change, so the scheduler picks them up on the next tick instead of
// waiting out the interval. The dirty set dedupes bursts; a folder
// syncs at most once per tick regardless of event volume.
type Watcher struct {
	events  chan notify.EventInfo
	onDirty func(folderID string)

	mu    sync.RWMutex
	roots map[string]string // watched root -> folder id

	wg sync.WaitGroup
}

func NewWatcher(onDirty func(folderID string)) *Watcher {
	return &Watcher{
		events:  make(chan notify.EventInfo, watchEventBufferSize),
		onDirty: onDirty,
		roots:   make(map[string]string),
	}
}

// Rearm replaces the watched set with the live directories of the
// given folders. Called whenever the folder collection changes.
func (w *Watcher) Rearm(folders []*MonitoredFolder) {
	w.mu.Lock()
	defer w.mu.Unlock()

	notify.Stop(w.events)
	w.roots = make(map[string]string, len(folders))

	for _, folder := range folders {
		dir, ok := folder.Source.(*localfs.LiveDirectory)
		if !ok {
			continue
		}
		if err := notify.Watch(dir.Root+"/...", w.events, notify.Write); err != nil {
			slog.Warn("watch failed", "folder", folder.Name, "root", dir.Root, "error", err)
			continue
		}
		w.roots[dir.Root] = folder.ID
	}

	slog.Debug("watcher armed", "dirs", len(w.roots))
}

// Start consumes events until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.events:
				if !ok {
					return
				}
				if id := w.folderFor(event.Path()); id != "" {
					w.onDirty(id)
				}
			}
		}
	}()
}

// Stop tears down all watches and waits for the event loop.
func (w *Watcher) Stop() {
	w.mu.Lock()
	notify.Stop(w.events)
	close(w.events)
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Watcher) folderFor(path string) string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	// match on whole path segments only, so a root that happens to be
	// a string prefix of a sibling dir never claims its events; when
	// watched roots nest, the longest match wins
	var bestRoot, bestID string
	for root, id := range w.roots {
		if path != root && !strings.HasPrefix(path, root+string(filepath.Separator)) {
			continue
		}
		if len(root) > len(bestRoot) {
			bestRoot, bestID = root, id
		}
	}
	return bestID
}
