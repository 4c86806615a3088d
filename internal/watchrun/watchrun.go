// Package watchrun implements codemap's --watch mode: re-run the analysis
// pipeline whenever a file under the root changes, debounced so a burst of
// edits triggers one re-run instead of many. It follows the debounced
// fsnotify watch loop shape of michaelbomholt665-code-watch's
// internal/watcher package, trimmed to codemap's single-callback use.
package watchrun

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// Watcher debounces filesystem events under a set of watched directories
// and invokes OnChange once per debounce window.
type Watcher struct {
	fsWatcher   *fsnotify.Watcher
	debounce    time.Duration
	excludeDirs []glob.Glob

	onChange func()

	mu      sync.Mutex
	pending bool
	timer   *time.Timer
}

// New builds a Watcher rooted at rootPath, excluding directories whose base
// name matches one of excludeDirGlobs (e.g. "node_modules", ".git"), and
// invoking onChange after debounce has elapsed with no further events.
func New(rootPath string, debounce time.Duration, excludeDirGlobs []string, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsw,
		debounce:  debounce,
		onChange:  onChange,
	}
	for _, pattern := range excludeDirGlobs {
		g, err := glob.Compile(pattern)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		w.excludeDirs = append(w.excludeDirs, g)
	}

	if err := w.addRecursive(rootPath); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes filesystem events until the watcher is closed, delivering
// at most one fsnotify error (if any) on return.
func (w *Watcher) Run() error {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// Close stops the underlying fsnotify watcher and any pending debounce timer.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsWatcher.Close()
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&fsnotify.Create == fsnotify.Create {
		if w.isExcludedDir(event.Name) {
			return
		}
		if err := w.addRecursive(event.Name); err == nil {
			w.schedule()
			return
		}
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
		w.schedule()
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.pending = true
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if !w.pending {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.mu.Unlock()

	w.onChange()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && w.isExcludedDir(path) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) isExcludedDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range w.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}
