package streamwalk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// WatchEvent represents a filesystem event type
type WatchEvent string

// Watch event types
const (
	EventCreate WatchEvent = "create"
	EventModify WatchEvent = "modify"
	EventDelete WatchEvent = "delete"
	EventRename WatchEvent = "rename"
	EventChmod  WatchEvent = "chmod"
)

// ParseWatchEvent maps an event name to a WatchEvent.
func ParseWatchEvent(name string) (WatchEvent, error) {
	switch strings.ToLower(name) {
	case "create":
		return EventCreate, nil
	case "write", "modify":
		return EventModify, nil
	case "remove", "delete":
		return EventDelete, nil
	case "rename":
		return EventRename, nil
	case "chmod":
		return EventChmod, nil
	}
	return "", fmt.Errorf("unknown event type %q", name)
}

// WatchOptions defines options for watching filesystem changes
type WatchOptions struct {
	// Events to report. Empty means all of them.
	Events []WatchEvent

	// Recursive registers every directory below the root, found with the
	// walker, and every directory created later.
	Recursive bool

	// Depth bounds recursive registration like Options.MaxDepth. 0 is unbounded.
	Depth int

	// Concurrency bounds the directory reads of registration walks.
	Concurrency int

	// Pattern to match base names (e.g., "*.go")
	Pattern string

	// IgnorePattern drops events whose base name matches.
	IgnorePattern string

	// IncludeHidden reports dot files and registers dot directories.
	IncludeHidden bool

	// Timeout stops watching after the duration. 0 means no timeout.
	Timeout time.Duration

	// Source used by registration walks; defaults to the host filesystem.
	Source Source

	Logger *zap.Logger
}

// WatchMessage contains information about a filesystem event
type WatchMessage struct {
	Path  string     `json:"path"`
	Name  string     `json:"name"`
	Dir   string     `json:"dir"`
	Size  int64      `json:"size"` // 0 for deleted entries
	Time  time.Time  `json:"time"`
	IsDir bool       `json:"is_dir"`
	Event WatchEvent `json:"event"`
}

// WatchResult represents a watch event result
type WatchResult struct {
	Message WatchMessage
	Error   error
}

// WatchHandler processes watch events. Calls are serialized.
type WatchHandler func(ctx context.Context, result WatchResult) error

// defaultWatchHandler returns a default handler that prints events
func defaultWatchHandler() WatchHandler {
	return func(ctx context.Context, result WatchResult) error {
		if result.Error != nil {
			return result.Error
		}
		fmt.Printf("%s: %s\n", strings.ToUpper(string(result.Message.Event)), result.Message.Path)
		return nil
	}
}

var watchOps = map[WatchEvent]fsnotify.Op{
	EventCreate: fsnotify.Create,
	EventModify: fsnotify.Write,
	EventDelete: fsnotify.Remove,
	EventRename: fsnotify.Rename,
	EventChmod:  fsnotify.Chmod,
}

// eventOrder fixes which event wins when fsnotify merges several ops.
var eventOrder = []WatchEvent{EventCreate, EventModify, EventDelete, EventRename, EventChmod}

type watcher struct {
	root    string
	opts    WatchOptions
	fsw     *fsnotify.Watcher
	ops     fsnotify.Op
	logger  *zap.Logger
	group   *errgroup.Group
	handle  WatchHandler
	handleM sync.Mutex
}

// Watch monitors root for filesystem changes until ctx ends or the timeout
// elapses. It returns nil when watching stopped normally.
func Watch(ctx context.Context, root string, opts WatchOptions, handler WatchHandler) error {
	if handler == nil {
		handler = defaultWatchHandler()
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return invalidRoot(root, err)
	}
	if !info.IsDir() {
		return invalidRoot(root, nil)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(root); err != nil {
		return fmt.Errorf("error watching directory %s: %w", root, err)
	}

	var ops fsnotify.Op
	if len(opts.Events) == 0 {
		for _, op := range watchOps {
			ops |= op
		}
	}
	for _, e := range opts.Events {
		ops |= watchOps[e]
	}

	g, gctx := errgroup.WithContext(ctx)
	w := &watcher{
		root:   root,
		opts:   opts,
		fsw:    fsw,
		ops:    ops,
		logger: logger.With(zap.String("root", root)),
		group:  g,
		handle: handler,
	}

	g.Go(func() error { return w.loop(gctx) })
	if opts.Recursive {
		g.Go(func() error { return w.register(gctx, root) })
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// register walks dir and adds every directory found to the watcher.
func (w *watcher) register(ctx context.Context, dir string) error {
	depth := 0
	if w.opts.Depth > 0 {
		depth = w.opts.Depth - w.depthOf(dir)
		if depth <= 0 {
			return nil
		}
	}

	stream := WalkEntries(ctx, dir, Options{
		Concurrency: w.opts.Concurrency,
		MaxDepth:    depth,
		Source:      w.opts.Source,
		Logger:      w.logger,
	})
	for entry, err := range stream.All(ctx) {
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.report(ctx, WatchResult{Error: fmt.Errorf("error walking %s: %w", dir, err)})
			return nil
		}
		if !entry.IsDir() {
			continue
		}
		if !w.opts.IncludeHidden && w.hidden(entry.Path) {
			continue
		}
		if err := w.fsw.Add(entry.Path); err != nil {
			w.report(ctx, WatchResult{Error: fmt.Errorf("error watching directory %s: %w", entry.Path, err)})
			continue
		}
		w.logger.Debug("watching directory", zap.String("path", entry.Path))
	}
	return nil
}

func (w *watcher) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.report(ctx, WatchResult{Error: fmt.Errorf("watcher error: %w", err)})

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.dispatch(ctx, event)
		}
	}
}

func (w *watcher) dispatch(ctx context.Context, event fsnotify.Event) {
	var eventType WatchEvent
	for _, e := range eventOrder {
		if op := watchOps[e]; event.Has(op) && w.ops.Has(op) {
			eventType = e
			break
		}
	}
	if eventType == "" {
		return
	}

	var info os.FileInfo
	if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		var err error
		info, err = os.Stat(event.Name)
		if err != nil {
			w.report(ctx, WatchResult{Error: fmt.Errorf("error getting file info for %s: %w", event.Name, err)})
			return
		}

		// New directories are walked so that their subtree is watched too.
		if w.opts.Recursive && info.IsDir() && event.Has(fsnotify.Create) &&
			(w.opts.IncludeHidden || !w.hidden(event.Name)) && w.withinDepth(event.Name) {
			if err := w.fsw.Add(event.Name); err != nil {
				w.report(ctx, WatchResult{Error: fmt.Errorf("error watching new directory %s: %w", event.Name, err)})
			} else {
				name := event.Name
				w.group.Go(func() error { return w.register(ctx, name) })
			}
		}
	}

	base := filepath.Base(event.Name)
	if w.opts.Pattern != "" {
		matched, err := filepath.Match(w.opts.Pattern, base)
		if err != nil {
			w.report(ctx, WatchResult{Error: fmt.Errorf("error matching pattern: %w", err)})
			return
		}
		if !matched {
			return
		}
	}
	if w.opts.IgnorePattern != "" {
		matched, err := filepath.Match(w.opts.IgnorePattern, base)
		if err != nil {
			w.report(ctx, WatchResult{Error: fmt.Errorf("error matching ignore pattern: %w", err)})
			return
		}
		if matched {
			return
		}
	}
	if !w.opts.IncludeHidden && w.hidden(event.Name) {
		return
	}

	msg := WatchMessage{
		Path:  event.Name,
		Name:  base,
		Dir:   filepath.Dir(event.Name),
		Time:  time.Now(),
		Event: eventType,
	}
	if info != nil {
		msg.Size = info.Size()
		msg.IsDir = info.IsDir()
		msg.Time = info.ModTime()
	}

	if err := w.report(ctx, WatchResult{Message: msg}); err != nil {
		w.report(ctx, WatchResult{Error: fmt.Errorf("error handling event: %w", err)})
	}
}

// report calls the handler with calls serialized across goroutines.
func (w *watcher) report(ctx context.Context, result WatchResult) error {
	w.handleM.Lock()
	defer w.handleM.Unlock()
	if result.Error != nil {
		w.logger.Debug("watch error", zap.Error(result.Error))
	}
	return w.handle(ctx, result)
}

// depthOf returns how many path elements path lies below the watch root.
func (w *watcher) depthOf(path string) int {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func (w *watcher) withinDepth(path string) bool {
	return w.opts.Depth <= 0 || w.depthOf(path) <= w.opts.Depth
}

// hidden reports whether any element below the root starts with a dot.
func (w *watcher) hidden(path string) bool {
	return hiddenBelow(w.root, path)
}

// isHidden checks if a file is hidden
func isHidden(path string) bool {
	name := filepath.Base(path)
	return strings.HasPrefix(name, ".")
}

// FormatWatchMessage expands placeholders in template: {} for the path,
// {base}, {dir}, {size}, {time}, {event}, and {""} for the quoted path.
func FormatWatchMessage(template string, msg WatchMessage) string {
	r := strings.NewReplacer(
		`{""}`, strconv.Quote(msg.Path),
		"{}", msg.Path,
		"{base}", msg.Name,
		"{dir}", msg.Dir,
		"{size}", strconv.FormatInt(msg.Size, 10),
		"{time}", msg.Time.Format(time.RFC3339),
		"{event}", string(msg.Event),
	)
	return r.Replace(template)
}

// WatchWithFormat watches for filesystem changes and prints each event
// formatted with FormatWatchMessage.
func WatchWithFormat(ctx context.Context, root string, opts WatchOptions, formatTemplate string) error {
	return Watch(ctx, root, opts, func(ctx context.Context, result WatchResult) error {
		if result.Error != nil {
			return result.Error
		}
		fmt.Println(FormatWatchMessage(formatTemplate, result.Message))
		return nil
	})
}
