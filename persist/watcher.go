package persist

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/strataflow/catalog/observability"
)

// Watcher keeps a FileStore's token index current when replica files are
// written or removed by another process. It watches the store root and
// translates filesystem events into index updates; replica contents are
// never read until a caller asks for them.
type Watcher struct {
	store    *FileStore
	observer observability.Observer

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	done    chan struct{}
	running bool
}

// NewWatcher creates a Watcher for the given store. The observer defaults
// to the store's observer.
func NewWatcher(store *FileStore) *Watcher {
	return &Watcher{
		store:    store,
		observer: store.observer,
	}
}

// Start begins watching the store root. Returns ErrWatcherRunning if the
// watcher is already started.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return ErrWatcherRunning
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(w.store.Root()); err != nil {
		fsw.Close()
		return err
	}

	w.fsw = fsw
	w.done = make(chan struct{})
	w.running = true

	go w.loop(fsw, w.done)
	return nil
}

// Close stops the watcher. Safe to call when not started.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	w.running = false
	err := w.fsw.Close()
	<-w.done
	return err
}

func (w *Watcher) loop(fsw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	for {
		select {
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.emit(EventWatchError, observability.LevelWarning, map[string]any{
				"error": err.Error(),
			})
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	name := filepath.Base(ev.Name)
	if !strings.HasSuffix(name, replicaExt) {
		return
	}
	token := strings.TrimSuffix(name, replicaExt)

	switch {
	case ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write):
		w.store.addToken(token)
		w.emit(EventWatchIndexed, observability.LevelVerbose, map[string]any{
			"token": token,
		})
	case ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename):
		w.store.dropToken(token)
		w.emit(EventWatchDropped, observability.LevelVerbose, map[string]any{
			"token": token,
		})
	}
}

func (w *Watcher) emit(t observability.EventType, level observability.Level, data map[string]any) {
	w.observer.OnEvent(context.Background(), observability.Event{
		Type:      t,
		Level:     level,
		Timestamp: time.Now(),
		Source:    "persist.Watcher",
		Data:      data,
	})
}
