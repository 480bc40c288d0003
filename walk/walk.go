// Package walk is the public API of streamwalk: a recursive directory walker
// that is bounded in depth and in simultaneous directory reads, and whose
// results are pulled through a backpressured stream that can be canceled
// while reads are in flight.
package walk

import (
	"context"

	internal "github.com/TFMV/streamwalk/internal/walk"
	"go.uber.org/zap"
)

// Re-export the types from the internal package
type (
	// Stream is a lazily produced, single-consumer sequence of walk results.
	Stream[T any] = internal.Stream[T]

	// Options configures a walk.
	Options = internal.Options

	// DirEntry is one entry discovered during traversal.
	DirEntry = internal.DirEntry

	// EntryKind is the coarse type of a directory entry.
	EntryKind = internal.EntryKind

	// Source lists directories and stats paths for the walker.
	Source = internal.Source

	// FileStat is the subset of stat information the walker consumes.
	FileStat = internal.FileStat

	// MemorySource is an in-memory Source for tests and simulations.
	MemorySource = internal.MemorySource

	// OSSource reads the host filesystem.
	OSSource = internal.OSSource

	// Stats holds traversal counters.
	Stats = internal.Stats

	// ProgressFn is called periodically with traversal statistics.
	ProgressFn = internal.ProgressFn

	// LogLevel defines the verbosity of logging.
	LogLevel = internal.LogLevel

	// Error is a normalized filesystem failure.
	Error = internal.Error

	// ErrorKind classifies a traversal failure.
	ErrorKind = internal.ErrorKind

	// AggregateError carries every failure collected by a walk.
	AggregateError = internal.AggregateError

	// AnalyzeResult summarizes one walk.
	AnalyzeResult = internal.AnalyzeResult

	// Analyzer consumes a walk and aggregates what it sees.
	Analyzer = internal.Analyzer

	// Re-export watch types
	WatchEvent   = internal.WatchEvent
	WatchOptions = internal.WatchOptions
	WatchMessage = internal.WatchMessage
	WatchResult  = internal.WatchResult
	WatchHandler = internal.WatchHandler
)

const (
	// Entry kinds
	EntryFile      = internal.EntryFile
	EntryDirectory = internal.EntryDirectory
	EntrySymlink   = internal.EntrySymlink
	EntryOther     = internal.EntryOther

	// Error kinds
	KindInternal           = internal.KindInternal
	KindInvalidRoot        = internal.KindInvalidRoot
	KindNotFound           = internal.KindNotFound
	KindNoPermission       = internal.KindNoPermission
	KindTooManyOpenHandles = internal.KindTooManyOpenHandles
	KindAggregate          = internal.KindAggregate

	// Log levels
	LogLevelError = internal.LogLevelError
	LogLevelWarn  = internal.LogLevelWarn
	LogLevelInfo  = internal.LogLevelInfo
	LogLevelDebug = internal.LogLevelDebug

	// Watch event constants
	EventCreate = internal.EventCreate
	EventModify = internal.EventModify
	EventDelete = internal.EventDelete
	EventRename = internal.EventRename
	EventChmod  = internal.EventChmod

	DefaultProgressInterval = internal.DefaultProgressInterval
)

// Sentinels for errors.Is.
var (
	ErrInternal           = internal.ErrInternal
	ErrInvalidRoot        = internal.ErrInvalidRoot
	ErrNotFound           = internal.ErrNotFound
	ErrNoPermission       = internal.ErrNoPermission
	ErrTooManyOpenHandles = internal.ErrTooManyOpenHandles
)

// Walk streams the paths below root. The root itself is not emitted.
func Walk(ctx context.Context, root string, opts Options) *Stream[string] {
	return internal.Walk(ctx, root, opts)
}

// WalkEntries streams DirEntry records for everything below root.
func WalkEntries(ctx context.Context, root string, opts Options) *Stream[DirEntry] {
	return internal.WalkEntries(ctx, root, opts)
}

// WalkAny streams DirEntry records when opts.WithDirent is set and paths otherwise.
func WalkAny(ctx context.Context, root string, opts Options) *Stream[any] {
	return internal.WalkAny(ctx, root, opts)
}

// NewOSSource returns a Source backed by the operating system.
func NewOSSource() *OSSource {
	return internal.NewOSSource()
}

// NewMemorySource creates an in-memory tree containing only root.
func NewMemorySource(root string) *MemorySource {
	return internal.NewMemorySource(root)
}

// NewAnalyzer creates an analyzer that walks with opts.
func NewAnalyzer(opts Options) *Analyzer {
	return internal.NewAnalyzer(opts)
}

// KindOf classifies err.
func KindOf(err error) ErrorKind {
	return internal.KindOf(err)
}

// Normalize maps a native error to an *Error.
func Normalize(op, path string, err error) *Error {
	return internal.Normalize(op, path, err)
}

// NewLogger creates a zap logger with the specified log level.
func NewLogger(level LogLevel) *zap.Logger {
	return internal.NewLogger(level)
}

// ParseLogLevel maps a level name to a LogLevel.
func ParseLogLevel(name string) LogLevel {
	return internal.ParseLogLevel(name)
}

// Watch monitors root for filesystem changes until ctx ends.
func Watch(ctx context.Context, root string, opts WatchOptions, handler WatchHandler) error {
	return internal.Watch(ctx, root, opts, handler)
}

// WatchWithFormat watches for filesystem changes and prints formatted events.
func WatchWithFormat(ctx context.Context, root string, opts WatchOptions, formatTemplate string) error {
	return internal.WatchWithFormat(ctx, root, opts, formatTemplate)
}

// FormatWatchMessage expands the placeholders of template for msg.
func FormatWatchMessage(template string, msg WatchMessage) string {
	return internal.FormatWatchMessage(template, msg)
}

// ParseWatchEvent maps an event name to a WatchEvent.
func ParseWatchEvent(name string) (WatchEvent, error) {
	return internal.ParseWatchEvent(name)
}
