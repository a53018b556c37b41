package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const queueSize = 16

// DirWatcher reports changes to payloads in a single directory. Other files
// and subdirectories are ignored.
type DirWatcher struct {
	dir string
	fsw *fsnotify.Watcher

	events chan Event
	errors chan error

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewDirWatcher starts watching dir.
func NewDirWatcher(dir string) (*DirWatcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotDir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(abs); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &DirWatcher{
		dir:    abs,
		fsw:    fsw,
		events: make(chan Event, queueSize),
		errors: make(chan error, queueSize),
		done:   make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Dir returns the absolute path being watched.
func (w *DirWatcher) Dir() string {
	return w.dir
}

// Events implements Source.
func (w *DirWatcher) Events() <-chan Event {
	return w.events
}

// Errors implements Source.
func (w *DirWatcher) Errors() <-chan error {
	return w.errors
}

// Close stops watching. It is safe to call more than once.
func (w *DirWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

func (w *DirWatcher) loop() {
	defer w.wg.Done()
	defer close(w.errors)
	defer close(w.events)

	for {
		select {
		case <-w.done:
			return
		case fe, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev, keep := toEvent(fe); keep {
				select {
				case w.events <- ev:
				case <-w.done:
					return
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

// toEvent maps an fsnotify event to a payload event. Chmod-only events and
// non-payload files are dropped.
func toEvent(fe fsnotify.Event) (Event, bool) {
	name := filepath.Base(fe.Name)
	if !IsPayload(name) {
		return Event{}, false
	}

	ev := Event{Name: name, At: time.Now()}
	switch {
	case fe.Has(fsnotify.Remove), fe.Has(fsnotify.Rename):
		ev.Change = Removed
	case fe.Has(fsnotify.Create), fe.Has(fsnotify.Write):
		ev.Change = Written
	default:
		return Event{}, false
	}
	return ev, true
}

var _ Source = (*DirWatcher)(nil)
