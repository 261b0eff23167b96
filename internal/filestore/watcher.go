package filestore

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports external modifications of the file currently bound to the
// document. It watches the parent directory because atomic saves replace the
// file's inode, which would silently end a watch on the file itself.
type Watcher struct {
	store   *Store
	watcher *fsnotify.Watcher

	mu       sync.Mutex
	path     string
	dir      string
	onChange func(path string)

	done chan struct{}
}

// NewWatcher starts a watcher whose callback runs on the watcher goroutine
func NewWatcher(store *Store, onChange func(path string)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		store:    store,
		watcher:  fw,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Watch switches the watcher to path. An empty path stops watching.
func (w *Watcher) Watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if path != "" {
		path = cleanPath(path)
	}
	dir := ""
	if path != "" {
		dir = filepath.Dir(path)
	}

	if dir != w.dir {
		if w.dir != "" {
			if err := w.watcher.Remove(w.dir); err != nil {
				log.Printf("Failed to stop watching %s: %v", w.dir, err)
			}
		}
		if dir != "" {
			if err := w.watcher.Add(dir); err != nil {
				w.dir, w.path = "", ""
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
		}
		w.dir = dir
	}
	w.path = path
	return nil
}

// Close stops the watcher
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("File watcher error: %v", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	w.mu.Lock()
	path, callback := w.path, w.onChange
	w.mu.Unlock()

	if path == "" || cleanPath(event.Name) != path {
		return
	}
	if !w.store.ChangedExternally(path) {
		return
	}
	if callback != nil {
		callback(path)
	}
}
