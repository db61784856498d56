// Package watch re-runs generation when its input files change
package watch

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conduit-lang/metagen/internal/logger"
)

// DefaultDelay is how long the watcher waits for a burst of writes to settle
const DefaultDelay = 100 * time.Millisecond

// InputWatcher monitors a fixed set of input files and calls onChange with
// the files that changed, once per burst of events.
//
// Parent directories are watched rather than the files themselves so that
// editors and tools which replace a file by renaming over it are still seen.
type InputWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	files     map[string]struct{}
	dirs      []string
	onChange  func([]string) error
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewInputWatcher creates a watcher for files. Paths are made absolute.
func NewInputWatcher(files []string, delay time.Duration, onChange func([]string) error) (*InputWatcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files to watch")
	}

	iw := &InputWatcher{
		debouncer: NewDebouncer(delay),
		files:     make(map[string]struct{}, len(files)),
		onChange:  onChange,
		stopChan:  make(chan struct{}),
	}

	seen := make(map[string]struct{})
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", f, err)
		}
		iw.files[abs] = struct{}{}
		dir := filepath.Dir(abs)
		if _, ok := seen[dir]; !ok {
			seen[dir] = struct{}{}
			iw.dirs = append(iw.dirs, dir)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	iw.watcher = watcher

	iw.debouncer.SetCallback(func(changed []string) {
		if err := iw.onChange(changed); err != nil {
			logger.Errorw("regeneration failed", "files", changed, "error", err)
		}
	})

	return iw, nil
}

// Start begins watching in the background
func (iw *InputWatcher) Start() error {
	for _, dir := range iw.dirs {
		if err := iw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		logger.Debugw("watching directory", "dir", dir)
	}

	iw.wg.Add(1)
	go iw.watch()

	return nil
}

// Stop stops the watcher. It is safe to call more than once.
func (iw *InputWatcher) Stop() error {
	select {
	case <-iw.stopChan:
		return nil
	default:
		close(iw.stopChan)
	}

	iw.wg.Wait()
	iw.debouncer.Stop()
	return iw.watcher.Close()
}

func (iw *InputWatcher) watch() {
	defer iw.wg.Done()

	for {
		select {
		case event, ok := <-iw.watcher.Events:
			if !ok {
				return
			}
			if !iw.isInput(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				logger.Debugw("input changed", "file", event.Name, "op", event.Op.String())
				iw.debouncer.Add(event.Name)
			}

		case err, ok := <-iw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnw("file watcher error", "error", err)

		case <-iw.stopChan:
			return
		}
	}
}

// isInput reports whether path is one of the watched files
func (iw *InputWatcher) isInput(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	_, ok := iw.files[abs]
	return ok
}

// Debouncer collects file changes and triggers callbacks after a delay
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	files    map[string]struct{}
	mutex    sync.Mutex
	callback func([]string)
	stopChan chan struct{}
}

// NewDebouncer creates a new debouncer instance
func NewDebouncer(duration time.Duration) *Debouncer {
	return &Debouncer{
		duration: duration,
		files:    make(map[string]struct{}),
		stopChan: make(chan struct{}),
	}
}

// Add records a changed file and restarts the delay
func (d *Debouncer) Add(file string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	select {
	case <-d.stopChan:
		return
	default:
	}

	d.files[file] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, d.flush)
}

// flush hands the accumulated files, sorted, to the callback. The callback
// runs outside the lock so it may take as long as a regeneration needs.
func (d *Debouncer) flush() {
	d.mutex.Lock()
	if len(d.files) == 0 {
		d.mutex.Unlock()
		return
	}
	files := make([]string, 0, len(d.files))
	for file := range d.files {
		files = append(files, file)
	}
	d.files = make(map[string]struct{})
	callback := d.callback
	d.mutex.Unlock()

	sort.Strings(files)
	if callback != nil {
		callback(files)
	}
}

// SetCallback sets the callback function
func (d *Debouncer) SetCallback(callback func([]string)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = callback
}

// Stop cancels any pending flush
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	select {
	case <-d.stopChan:
	default:
		close(d.stopChan)
	}
}
