// Package watch reruns generation when manifests or the Go sources they
// describe change on disk.
package watch

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Op indicates a change operation in the filesystem.
type Op uint32

const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

// Event describes a filesystem change event.
type Event struct {
	Path string
	Op   Op
	Time time.Time
}

// FSWatcher forwards fsnotify events as Events.
type FSWatcher struct {
	w    *fsnotify.Watcher
	evC  chan Event
	erC  chan error
	done chan struct{}
	once sync.Once
}

// NewFSWatcher creates a new FSWatcher.
func NewFSWatcher() (*FSWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	fw := &FSWatcher{w: w, evC: make(chan Event, 128), erC: make(chan error, 1), done: make(chan struct{})}
	go fw.loop()
	return fw, nil
}

func (fw *FSWatcher) loop() {
	defer close(fw.evC)
	for {
		select {
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			var op Op
			if ev.Op&fsnotify.Create != 0 {
				op |= OpCreate
			}
			if ev.Op&fsnotify.Write != 0 {
				op |= OpWrite
			}
			if ev.Op&fsnotify.Remove != 0 {
				op |= OpRemove
			}
			if ev.Op&fsnotify.Rename != 0 {
				op |= OpRename
			}
			if ev.Op&fsnotify.Chmod != 0 {
				op |= OpChmod
			}
			select {
			case fw.evC <- Event{Path: ev.Name, Op: op, Time: time.Now()}:
			case <-fw.done:
				return
			}
		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}
			select {
			case fw.erC <- err:
			default:
			}
		}
	}
}

func (fw *FSWatcher) Events() <-chan Event     { return fw.evC }
func (fw *FSWatcher) Errors() <-chan error     { return fw.erC }
func (fw *FSWatcher) Add(name string) error    { return fw.w.Add(name) }
func (fw *FSWatcher) Remove(name string) error { return fw.w.Remove(name) }

// Close stops the watcher. Pending events are dropped.
func (fw *FSWatcher) Close() error {
	fw.once.Do(func() { close(fw.done) })
	return fw.w.Close()
}

// DefaultDelay is the quiet period after the last change before a rerun.
const DefaultDelay = 200 * time.Millisecond

// Options configures Run.
type Options struct {
	Delay time.Duration
	// Ignore filters out paths that never trigger a rerun, such as generated
	// outputs.
	Ignore func(path string) bool
	Logger zerolog.Logger
}

// Run watches the given files and the .go files of dirs, and calls onChange
// with the sorted set of changed paths once changes have settled. Calls never
// overlap: changes seen during a call are delivered by the next one. Run
// blocks until ctx is done and returns only after the last call finished.
func Run(ctx context.Context, files, dirs []string, opts Options, onChange func(changed []string)) error {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	fw, err := NewFSWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	wanted := make(map[string]bool, len(files))
	srcDirs := make(map[string]bool, len(dirs))
	watched := make(map[string]bool)
	add := func(dir string) error {
		if watched[dir] {
			return nil
		}
		watched[dir] = true
		opts.Logger.Debug().Str("dir", dir).Msg("watching")
		return fw.Add(dir)
	}
	// Editors replace files by rename, so directories are watched rather
	// than the files themselves.
	for _, f := range files {
		f = clean(f)
		wanted[f] = true
		if err := add(filepath.Dir(f)); err != nil {
			return err
		}
	}
	for _, d := range dirs {
		d = clean(d)
		srcDirs[d] = true
		if err := add(d); err != nil {
			return err
		}
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]bool)
	)
	// ready holds at most one pending flush; the debounce timer only signals
	// it, and a single worker runs onChange.
	ready := make(chan struct{}, 1)
	signal := func() {
		select {
		case ready <- struct{}{}:
		default:
		}
	}
	debounced := debounce.New(opts.Delay)
	flush := func() {
		mu.Lock()
		changed := make([]string, 0, len(pending))
		for p := range pending {
			changed = append(changed, p)
		}
		pending = make(map[string]bool)
		mu.Unlock()
		if len(changed) == 0 {
			return
		}
		sort.Strings(changed)
		onChange(changed)
	}

	runCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ready:
				flush()
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-fw.Errors():
			opts.Logger.Warn().Err(err).Msg("watch error")
		case ev, ok := <-fw.Events():
			if !ok {
				return nil
			}
			p := clean(ev.Path)
			relevant := wanted[p] || srcDirs[filepath.Dir(p)] && strings.HasSuffix(p, ".go")
			if !relevant || ev.Op == OpChmod || (opts.Ignore != nil && opts.Ignore(p)) {
				continue
			}
			opts.Logger.Debug().Str("path", p).Uint32("op", uint32(ev.Op)).Msg("change")
			mu.Lock()
			pending[p] = true
			mu.Unlock()
			debounced(signal)
		}
	}
}

func clean(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
