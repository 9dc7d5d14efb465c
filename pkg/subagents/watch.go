package subagents

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// DirLoader loads definitions from a directory of Markdown files and can
// watch it for edits. Callers load once at startup and subscribe for live
// updates.
type DirLoader struct {
	dir string

	mu      sync.RWMutex
	defs    []Definition
	watcher *fsnotify.Watcher
}

func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{dir: dir}
}

// Load reads the directory and caches the result. Parse errors come back
// alongside whatever loaded cleanly.
func (l *DirLoader) Load() ([]Definition, []error) {
	defs, errs := Load(l.dir)
	l.mu.Lock()
	l.defs = defs
	l.mu.Unlock()
	return defs, errs
}

// Definitions returns the last loaded set.
func (l *DirLoader) Definitions() []Definition {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Definition(nil), l.defs...)
}

// WatchChanges starts watching the directory and reloads on .md changes.
// A missing directory is a no-op.
func (l *DirLoader) WatchChanges(callback func([]Definition)) error {
	info, err := os.Stat(l.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return nil
	}

	l.mu.Lock()
	if l.watcher != nil {
		l.mu.Unlock()
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		l.mu.Unlock()
		return err
	}
	l.watcher = watcher
	l.mu.Unlock()

	if err := watcher.Add(l.dir); err != nil {
		_ = watcher.Close()
		l.mu.Lock()
		l.watcher = nil
		l.mu.Unlock()
		return err
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if strings.ToLower(filepath.Ext(event.Name)) != ".md" {
					continue
				}
				defs, errs := l.Load()
				for _, err := range errs {
					log.Printf("subagents: reload: %v", err)
				}
				if callback != nil {
					callback(defs)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("subagents: watcher error: %v", err)
			}
		}
	}()

	return nil
}

func (l *DirLoader) Close() error {
	l.mu.Lock()
	watcher := l.watcher
	l.watcher = nil
	l.mu.Unlock()
	if watcher != nil {
		return watcher.Close()
	}
	return nil
}
