package persistence

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/orizon-lang/orizon-ir/internal/cli"
)

// Watcher invalidates the artifacts of watched source files as soon as a
// source is written, removed or renamed. Sources are watched through their
// directory so editors that replace files by rename keep being tracked.
type Watcher struct {
	store  *Store
	logger *cli.Logger
	w      *fsnotify.Watcher

	mu      sync.Mutex
	sources map[string]bool
	dirs    map[string]int

	invC chan string
	erC  chan error
	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher starts watching; call Close to stop.
func NewWatcher(store *Store, logger *cli.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	sw := &Watcher{
		store:   store,
		logger:  logger,
		w:       w,
		sources: make(map[string]bool),
		dirs:    make(map[string]int),
		invC:    make(chan string, 128),
		erC:     make(chan error, 1),
		done:    make(chan struct{}),
	}
	sw.wg.Add(1)
	go sw.loop()
	return sw, nil
}

// Add tracks source.
func (sw *Watcher) Add(source string) error {
	path, err := filepath.Abs(stripScheme(source))
	if err != nil {
		return err
	}
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.sources[path] {
		return nil
	}
	dir := filepath.Dir(path)
	if sw.dirs[dir] == 0 {
		if err := sw.w.Add(dir); err != nil {
			return err
		}
	}
	sw.dirs[dir]++
	sw.sources[path] = true
	return nil
}

// Remove stops tracking source.
func (sw *Watcher) Remove(source string) error {
	path, err := filepath.Abs(stripScheme(source))
	if err != nil {
		return err
	}
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if !sw.sources[path] {
		return nil
	}
	delete(sw.sources, path)
	dir := filepath.Dir(path)
	sw.dirs[dir]--
	if sw.dirs[dir] == 0 {
		delete(sw.dirs, dir)
		return sw.w.Remove(dir)
	}
	return nil
}

// Invalidated delivers the path of every source whose artifact was dropped.
func (sw *Watcher) Invalidated() <-chan string { return sw.invC }

// Errors reports watch failures. Errors that arrive while one is pending are
// only logged.
func (sw *Watcher) Errors() <-chan error { return sw.erC }

// Close stops the watcher and waits for its event loop to exit.
func (sw *Watcher) Close() error {
	err := sw.w.Close()
	close(sw.done)
	sw.wg.Wait()
	return err
}

func (sw *Watcher) tracked(path string) bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.sources[path]
}

func (sw *Watcher) loop() {
	defer sw.wg.Done()
	const mask = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case ev, ok := <-sw.w.Events:
			if !ok {
				return
			}
			if ev.Op&mask == 0 || !sw.tracked(filepath.Clean(ev.Name)) {
				continue
			}
			sw.logger.Debug("%s: %s", ev.Op, ev.Name)
			if err := sw.store.Invalidate(ev.Name); err != nil {
				sw.report(err)
				continue
			}
			select {
			case sw.invC <- ev.Name:
			case <-sw.done:
				return
			}
		case err, ok := <-sw.w.Errors:
			if !ok {
				return
			}
			sw.report(err)
		case <-sw.done:
			return
		}
	}
}

func (sw *Watcher) report(err error) {
	sw.logger.Error("watch: %v", err)
	select {
	case sw.erC <- err:
	default:
	}
}
