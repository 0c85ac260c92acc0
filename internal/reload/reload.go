// Package reload watches a mapping file (and everything it transitively
// `.load`s) and re-invokes package parser on change, publishing the freshly
// built Mappings through a swap callback. It is the §1 "config
// hot-reloader" external collaborator, supplemented here because the pack
// supplies a natural library for it (fsnotify) and a daemon without a
// working reload story is incomplete.
//
// The debounce/pending-event pattern mirrors the teacher pack's own
// fsnotify watcher (internal/conflict/detector.go's watchLoop): collect
// events for a short window, then process them once, so an editor's
// write-then-rename save doesn't trigger two reloads in a row.
package reload

import (
	"log"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gokhd/gokhd/internal/mappings"
	"github.com/gokhd/gokhd/internal/parser"
)

// SwapFunc publishes a freshly loaded Mappings. This is
// core.CoreLoop.SwapMappings's signature exactly.
type SwapFunc func(*mappings.Mappings)

// Watcher watches the root mapping file and everything it `.load`s,
// re-parsing and publishing on change.
type Watcher struct {
	rootPath string
	debounce time.Duration
	swap     SwapFunc
	logger   *log.Logger

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
}

// New creates a Watcher for rootPath. debounce is the quiet period after
// the last filesystem event before a reload is attempted; if zero, a
// default of 200ms is used (matching config.ReloadConfig's default
// debounce_ms). logger receives reload attempts and errors; a nil logger
// uses log.Default().
func New(rootPath string, debounce time.Duration, swap SwapFunc, logger *log.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	if logger == nil {
		logger = log.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		rootPath: rootPath,
		debounce: debounce,
		swap:     swap,
		logger:   logger,
		watcher:  fsw,
		stopCh:   make(chan struct{}),
	}, nil
}

// SetSwap sets the callback Watch's background loop publishes freshly
// reloaded Mappings through. Call it before Watch, once the callback's
// target (typically a core.CoreLoop built from LoadInitial's result) is
// ready to receive a swap.
func (w *Watcher) SetSwap(swap SwapFunc) {
	w.swap = swap
}

// LoadInitial parses rootPath (and everything it transitively `.load`s)
// without starting the background watch loop. Split from Watch so the
// caller can build whatever consumes the initial Mappings (e.g.
// core.New) before any reload can race it through the swap callback.
func (w *Watcher) LoadInitial() (*mappings.Mappings, error) {
	return parser.Load(w.rootPath, nil)
}

// Watch registers fsnotify watches for every file m was built from and
// starts the background watch loop. Call it only once the swap callback's
// target (typically a core.CoreLoop) is ready to receive it.
func (w *Watcher) Watch(m *mappings.Mappings) error {
	if err := w.watchLoadedFiles(m); err != nil {
		return err
	}
	go w.watchLoop()
	return nil
}

// watchLoadedFiles (re)registers fsnotify watches for every file the
// current Mappings was built from. Re-adding an already-watched path is a
// harmless no-op for fsnotify, so this can be called again after each
// reload to pick up newly `.load`ed files.
func (w *Watcher) watchLoadedFiles(m *mappings.Mappings) error {
	for _, f := range m.LoadedFiles() {
		if err := w.watcher.Add(f); err != nil {
			return err
		}
	}
	return nil
}

// Stop halts the watch loop and releases the underlying fsnotify watcher.
func (w *Watcher) Stop() {
	close(w.stopCh)
	_ = w.watcher.Close()
}

// watchLoop is the background goroutine: it debounces bursts of write
// events (editors often emit several per save) and re-parses once the
// burst settles. Per §5, the reloader "prepares a fresh Mappings off-thread
// and uses swap_mappings as the only cross-thread interaction" — this loop
// never touches CoreLoop's mode cursor or current-process buffer directly.
func (w *Watcher) watchLoop() {
	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C // drain the initial fire

	dirty := false

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			dirty = true
			debounceTimer.Reset(w.debounce)

		case <-debounceTimer.C:
			if !dirty {
				continue
			}
			dirty = false
			w.TriggerReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("reload: watcher error: %v", err)
		}
	}
}

// TriggerReload re-parses the root file and, on success, publishes the new
// Mappings and re-registers watches for any newly `.load`ed file. Per §7's
// propagation policy, a parse error aborts the reload without touching the
// currently published Mappings. Exported so the surrounding CLI can force a
// reload on SIGHUP independent of the fsnotify watch (e.g. when reload is
// otherwise disabled, or a network filesystem's events are unreliable).
func (w *Watcher) TriggerReload() {
	m, err := parser.Load(w.rootPath, nil)
	if err != nil {
		w.logger.Printf("reload: %v (keeping previous mappings)", err)
		return
	}
	if err := w.watchLoadedFiles(m); err != nil {
		w.logger.Printf("reload: watch new files: %v", err)
	}
	w.swap(m)
	w.logger.Printf("reload: published new mappings (%d hotkeys)", m.HotkeyCount())
}
