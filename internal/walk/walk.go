// Package streamwalk provides a depth-bounded, concurrency-bounded directory
// walker whose results are pulled by the consumer through a backpressured
// stream that can be canceled mid-flight.
package streamwalk

import (
	"context"
	"errors"
	"io"
	"iter"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Options configures a walk. The zero value walks the whole tree with no limit
// on simultaneous directory reads or buffered items.
type Options struct {
	// Concurrency caps the number of directory listings in flight. 0 is unbounded.
	Concurrency int
	// HighWaterMark caps the number of items buffered ahead of the consumer.
	// 0 is unbounded.
	HighWaterMark int
	// MaxDepth bounds traversal; children of the root are depth 1. Entries at
	// MaxDepth are emitted but never expanded. 0 is unbounded.
	MaxDepth int
	// WithDirent makes WalkAny emit DirEntry records instead of path strings.
	WithDirent bool
	// AbortOnError ends the stream with the first listing failure. Otherwise
	// failures are collected and reported as an *AggregateError once every
	// reachable entry has been delivered.
	AbortOnError bool

	// Source lists directories; defaults to the host filesystem.
	Source Source
	// Logger receives structured logs; when nil one is built from LogLevel.
	Logger   *zap.Logger
	LogLevel LogLevel
	// Progress, when set, is called every ProgressInterval and once at the end.
	Progress         ProgressFn
	ProgressInterval time.Duration
}

func (o Options) validate() error {
	switch {
	case o.Concurrency < 0:
		return errors.New("concurrency must not be negative")
	case o.HighWaterMark < 0:
		return errors.New("high-water mark must not be negative")
	case o.MaxDepth < 0:
		return errors.New("depth must not be negative")
	}
	return nil
}

// walkState tracks whether the scheduler loop is running.
type walkState int

const (
	stateIdle     walkState = iota // loop not running; expansions may be in flight
	stateActive                    // loop draining the frontier
	stateCanceled                  // terminal; outstanding expansions are drained and dropped
)

func (s walkState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateActive:
		return "active"
	default:
		return "canceled"
	}
}

var errConsumerCanceled = errors.New("streamwalk: canceled by consumer")

// Stream is a lazily produced, single-consumer sequence of walk results.
// A stream cannot be restarted; call Walk again instead.
type Stream[T any] struct {
	sink   *sink[T]
	cancel context.CancelCauseFunc
	done   chan struct{}
	stats  *counters
}

// Walk streams the paths below root. The root itself is not emitted.
//
// Entries are emitted in stack order: the children of a directory come out in
// the reverse of their listing order, and a directory's children are emitted
// before siblings that were queued earlier. With Concurrency above 1 there is
// no ordering guarantee across sibling directories.
func Walk(ctx context.Context, root string, opts Options) *Stream[string] {
	return start(ctx, root, opts, func(d DirEntry) string { return d.Path })
}

// WalkEntries is Walk emitting full DirEntry records.
func WalkEntries(ctx context.Context, root string, opts Options) *Stream[DirEntry] {
	return start(ctx, root, opts, func(d DirEntry) DirEntry { return d })
}

// WalkAny emits a DirEntry when opts.WithDirent is set and the path otherwise.
func WalkAny(ctx context.Context, root string, opts Options) *Stream[any] {
	if opts.WithDirent {
		return start(ctx, root, opts, func(d DirEntry) any { return d })
	}
	return start(ctx, root, opts, func(d DirEntry) any { return d.Path })
}

func start[T any](ctx context.Context, root string, opts Options, project func(DirEntry) T) *Stream[T] {
	wctx, cancel := context.WithCancelCause(ctx)

	s := &Stream[T]{
		sink:   newSink[T](opts.HighWaterMark),
		cancel: cancel,
		done:   make(chan struct{}),
		stats:  newCounters(),
	}

	source := opts.Source
	if source == nil {
		source = NewOSSource()
	}

	logger := opts.Logger
	ownLogger := logger == nil
	if ownLogger {
		logger = NewLogger(opts.LogLevel)
	}

	root = filepath.Clean(root)
	w := &walker[T]{
		ctx:       wctx,
		cancel:    cancel,
		root:      root,
		opts:      opts,
		source:    source,
		logger:    logger.With(zap.String("walk_id", uuid.NewString()), zap.String("root", root)),
		ownLogger: ownLogger,
		project:   project,
		sink:      s.sink,
		stats:     s.stats,
		done:      s.done,
		frontier:  newFrontier(opts.MaxDepth),
		results:   make(chan expansion),
	}
	go w.run()
	return s
}

// Next returns the next item. It returns io.EOF once the walk has finished
// cleanly, the terminal error if it failed, and ctx.Err() if ctx ends while
// waiting. Next must not be called from several goroutines at once.
func (s *Stream[T]) Next(ctx context.Context) (T, error) {
	return s.sink.next(ctx)
}

// All ranges over the remaining items. A terminal error is yielded once as the
// last pair. Stopping early cancels the walk and waits for it to drain.
func (s *Stream[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			v, err := s.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if ctx.Err() != nil {
					_ = s.Cancel(context.WithoutCancel(ctx))
				}
				yield(v, err)
				return
			}
			if !yield(v, nil) {
				_ = s.Cancel(context.WithoutCancel(ctx))
				return
			}
		}
	}
}

// Cancel abandons the walk. No item is delivered after Cancel is called. New
// directory reads stop at once, while reads already in flight are allowed to
// finish and their results are dropped. Cancel returns once the last of them
// has completed, or with ctx.Err() if ctx ends first; the drain continues in
// the background either way.
func (s *Stream[T]) Cancel(ctx context.Context) error {
	s.sink.abort(nil)
	s.cancel(errConsumerCanceled)
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the walk has stopped and no directory read is in flight.
func (s *Stream[T]) Done() <-chan struct{} {
	return s.done
}

// Stats returns a snapshot of the walk counters.
func (s *Stream[T]) Stats() Stats {
	return s.stats.snapshot()
}

// expansion is the outcome of one asynchronous directory listing.
type expansion struct {
	dir      DirEntry
	children []DirEntry
	err      error
}

// walker is the state of one walk. Every field below done is owned by the
// scheduler goroutine; listing goroutines only read ctx and source and report
// back through results.
type walker[T any] struct {
	ctx       context.Context
	cancel    context.CancelCauseFunc
	root      string
	opts      Options
	source    Source
	logger    *zap.Logger
	ownLogger bool
	project   func(DirEntry) T

	sink  *sink[T]
	stats *counters
	done  chan struct{}

	state       walkState
	frontier    *frontier
	outstanding int
	errs        []*Error
	results     chan expansion
}

func (w *walker[T]) run() {
	defer close(w.done)
	defer w.cancel(nil)
	if w.ownLogger {
		defer w.logger.Sync()
	}

	if w.opts.Progress != nil {
		var wg sync.WaitGroup
		progressDone := make(chan struct{})
		wg.Add(1)
		go reportProgress(w.stats, w.opts.Progress, w.opts.ProgressInterval, progressDone, &wg)
		defer func() {
			close(progressDone)
			wg.Wait()
		}()
	}
	defer w.stats.finish()

	if err := w.opts.validate(); err != nil {
		w.logger.Error("invalid walk options", zap.Error(err))
		w.sink.abort(&Error{Kind: KindInternal, Op: "walk", Path: w.root, Err: err})
		return
	}

	w.logger.Debug("starting walk",
		zap.Int("concurrency", w.opts.Concurrency),
		zap.Int("high_water_mark", w.opts.HighWaterMark),
		zap.Int("max_depth", w.opts.MaxDepth),
		zap.Bool("abort_on_error", w.opts.AbortOnError),
	)

	if err := w.startRoot(); err != nil {
		if w.ctx.Err() != nil {
			w.halt(w.cancellationError())
			return
		}
		w.logger.Warn("root rejected", zap.Error(err))
		w.sink.abort(err)
		return
	}

	for {
		w.drain()
		if w.outstanding == 0 && (w.state == stateCanceled || w.frontier.len() == 0) {
			break
		}

		// After cancellation only completions matter.
		var room chan struct{}
		var ctxDone <-chan struct{}
		if w.state != stateCanceled {
			room = w.sink.room
			ctxDone = w.ctx.Done()
		}

		select {
		case res := <-w.results:
			w.complete(res)
		case <-room:
		case <-ctxDone:
			w.halt(w.cancellationError())
		}
	}

	w.finish()
}

// startRoot validates the root and seeds the frontier with its children.
func (w *walker[T]) startRoot() error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	st, err := w.source.Stat(w.ctx, w.root)
	if err != nil {
		return invalidRoot(w.root, err)
	}
	if !st.IsDirectory {
		return invalidRoot(w.root, nil)
	}

	children, err := w.source.ReadDir(w.ctx, w.root)
	if err != nil {
		return Normalize("readdir", w.root, err)
	}
	w.stats.expanded.Add(1)
	w.frontier.pushChildren(children, 1)
	return nil
}

// drain pops frontier items until a gate closes or the frontier runs dry.
func (w *walker[T]) drain() {
	if w.state != stateIdle {
		return
	}
	w.state = stateActive
	defer w.pause()

	for w.frontier.len() > 0 {
		if w.ctx.Err() != nil {
			w.halt(w.cancellationError())
			return
		}
		// Resumed by the next completed expansion.
		if w.opts.Concurrency > 0 && w.outstanding >= w.opts.Concurrency {
			return
		}
		// Resumed by the next consumer pull.
		if w.sink.desiredSize() <= 0 {
			return
		}

		item := w.frontier.pop()
		if w.opts.MaxDepth > 0 && item.Depth > w.opts.MaxDepth {
			continue
		}

		w.emit(item)

		if w.opts.MaxDepth > 0 && item.Depth == w.opts.MaxDepth {
			continue
		}
		switch item.Kind {
		case EntryDirectory:
			w.expand(item)
		case EntrySymlink:
			w.expandSymlink(item)
		}
	}
}

func (w *walker[T]) pause() {
	if w.state == stateActive {
		w.state = stateIdle
	}
}

func (w *walker[T]) emit(item DirEntry) {
	if w.sink.enqueue(w.project(item)) {
		w.stats.recordEmit(item.Kind)
	}
}

// expand lists dir on its own goroutine. The result comes back through
// w.results and is applied by complete on the scheduler goroutine.
func (w *walker[T]) expand(dir DirEntry) {
	w.outstanding++
	w.stats.recordOutstanding(w.outstanding)

	go func() {
		children, err := w.source.ReadDir(w.ctx, dir.Path)
		w.results <- expansion{dir: dir, children: children, err: err}
	}()
}

// expandSymlink is where link resolution would hook in. Links are emitted as
// links and never followed.
func (w *walker[T]) expandSymlink(link DirEntry) {
	w.logger.Debug("not following symlink", zap.String("path", link.Path), zap.Int("depth", link.Depth))
}

func (w *walker[T]) complete(res expansion) {
	w.outstanding--
	if res.err != nil {
		w.stats.errors.Add(1)
	} else {
		w.stats.expanded.Add(1)
	}

	// A listing that raced the cancellation must not turn into a walk error.
	if w.state != stateCanceled && w.ctx.Err() != nil {
		w.halt(w.cancellationError())
	}
	if w.state == stateCanceled {
		w.logger.Debug("dropping expansion after cancel",
			zap.String("path", res.dir.Path),
			zap.Int("outstanding", w.outstanding),
		)
		return
	}

	if res.err != nil {
		err := Normalize("readdir", res.dir.Path, res.err)
		if w.opts.AbortOnError {
			w.logger.Warn("aborting walk", zap.String("path", res.dir.Path), zap.Error(err))
			w.halt(err)
			return
		}
		w.logger.Warn("directory listing failed", zap.String("path", res.dir.Path), zap.Error(err))
		w.errs = append(w.errs, err)
		return
	}

	w.frontier.pushChildren(res.children, res.dir.Depth+1)
}

// halt moves the walk to its terminal canceled state and ends the stream with
// err, or io.EOF when err is nil. Outstanding expansions are still awaited by
// run.
func (w *walker[T]) halt(err error) {
	if w.state == stateCanceled {
		return
	}
	w.state = stateCanceled
	w.frontier.reset()
	w.sink.abort(err)
	w.logger.Debug("walk halted", zap.Int("outstanding", w.outstanding), zap.Error(err))
}

// cancellationError is the error a consumer sees after the walk context ended.
// A consumer-requested cancel ends the stream cleanly.
func (w *walker[T]) cancellationError() error {
	cause := context.Cause(w.ctx)
	if errors.Is(cause, errConsumerCanceled) {
		return nil
	}
	return cause
}

func (w *walker[T]) finish() {
	stats := w.stats.snapshot()
	fields := []zap.Field{
		zap.Int64("emitted", stats.EntriesEmitted),
		zap.Int64("expanded", stats.DirsExpanded),
		zap.Int64("errors", stats.ErrorCount),
		zap.Int64("peak_outstanding", stats.PeakOutstanding),
	}

	if w.state == stateCanceled {
		w.logger.Debug("walk canceled", fields...)
		return
	}
	if len(w.errs) > 0 {
		w.logger.Warn("walk finished with errors", append(fields, zap.Int("failed_dirs", len(w.errs)))...)
		w.sink.close(&AggregateError{Errors: w.errs})
		return
	}
	w.logger.Info("walk finished", fields...)
	w.sink.close(nil)
}
