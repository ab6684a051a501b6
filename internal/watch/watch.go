// Package watch re-runs a rebuild when watched source directories change, and
// optionally on a fixed interval.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/doxyhook/internal/logfields"
)

// DefaultDebounce collapses bursts of editor writes into one rebuild.
const DefaultDebounce = 300 * time.Millisecond

// ErrNothingToWatch is returned when no path could be watched and no interval is set.
var ErrNothingToWatch = errors.New("no watchable paths and no rebuild interval")

// RebuildFunc performs one rebuild.
type RebuildFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	// Paths are directories watched recursively.
	Paths []string
	// Ignore lists directories whose events never trigger a rebuild, typically
	// the rebuild's own outputs.
	Ignore   []string
	Debounce time.Duration
	// Interval, when positive, also triggers a rebuild on a fixed schedule.
	Interval time.Duration
	// RunOnStart queues one rebuild before any event arrives.
	RunOnStart bool
	Rebuild    RebuildFunc
}

// Watcher drives rebuilds from filesystem events and a schedule. At most one
// rebuild runs at a time and at most one more is queued behind it.
type Watcher struct {
	opts    Options
	ignore  []string
	queue   *coalescer
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool

	newScheduler func(...gocron.SchedulerOption) (gocron.Scheduler, error)
}

// New validates opts and returns a Watcher.
func New(opts Options) (*Watcher, error) {
	if opts.Rebuild == nil {
		return nil, fmt.Errorf("watch: rebuild function is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	ignore := make([]string, 0, len(opts.Ignore))
	for _, p := range opts.Ignore {
		if abs, err := filepath.Abs(p); err == nil {
			ignore = append(ignore, abs)
		}
	}
	return &Watcher{
		opts:         opts,
		ignore:       ignore,
		queue:        newCoalescer(opts.Rebuild),
		newScheduler: gocron.NewScheduler,
	}, nil
}

// Run blocks until ctx is canceled, then waits for an in-flight rebuild to
// return. Any early return cancels the rebuild worker before waiting on it.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fw.Close() }()

	watched := 0
	for _, p := range w.opts.Paths {
		n, err := w.addDirsRecursive(fw, p)
		if err != nil {
			slog.Warn("Cannot watch path", logfields.Path(p), logfields.Error(err))
			continue
		}
		watched += n
	}
	if watched == 0 && w.opts.Interval <= 0 {
		return ErrNothingToWatch
	}

	workerCtx, stopWorkers := context.WithCancel(ctx)
	var workers errgroup.Group
	workers.Go(func() error {
		w.queue.run(workerCtx)
		return nil
	})
	defer func() { _ = workers.Wait() }()
	defer stopWorkers()

	if w.opts.Interval > 0 {
		sched, err := w.startSchedule()
		if err != nil {
			return err
		}
		defer func() {
			if err := sched.Shutdown(); err != nil {
				slog.Warn("Failed to stop rebuild schedule", logfields.Error(err))
			}
		}()
	}

	if w.opts.RunOnStart {
		w.queue.request()
	}
	slog.Info("Watching for changes",
		slog.Int("directories", watched),
		slog.Duration("debounce", w.opts.Debounce),
		slog.Duration("interval", w.opts.Interval))

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			slog.Info("Stopping watch")
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) startSchedule() (gocron.Scheduler, error) {
	s, err := w.newScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.opts.Interval),
		gocron.NewTask(func() {
			slog.Debug("Scheduled rebuild")
			w.queue.request()
		}),
		gocron.WithName("doxyhook-rebuild"),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create periodic rebuild job: %w", err)
	}
	s.Start()
	return s, nil
}

// trigger restarts the debounce timer.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, w.queue.request)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) || w.ignored(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_, _ = w.addDirsRecursive(fw, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	w.trigger()
}

func (w *Watcher) ignored(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, dir := range w.ignore {
		if abs == dir || strings.HasPrefix(abs, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) addDirsRecursive(fw *fsnotify.Watcher, root string) (int, error) {
	info, err := os.Stat(root)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", root)
	}
	added := 0
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && (shouldIgnoreEvent(path) || w.ignored(path)) {
			return filepath.SkipDir
		}
		if err := fw.Add(path); err != nil {
			slog.Warn("watch add failed", logfields.Path(path), logfields.Error(err))
			return nil
		}
		added++
		return nil
	})
	return added, err
}

// shouldIgnoreEvent returns true for hidden, editor swap and lock files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db"
}
