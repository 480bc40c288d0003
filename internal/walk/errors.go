package streamwalk

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"syscall"
)

// ErrorKind classifies a traversal failure.
type ErrorKind int

const (
	KindInternal           ErrorKind = iota // Unclassified failure, cause preserved
	KindInvalidRoot                         // Root path is missing or not a directory
	KindNotFound                            // Entry vanished or never existed
	KindNoPermission                        // Access denied
	KindTooManyOpenHandles                  // Process or system descriptor limit hit
	KindAggregate                           // Several failures collected in collect mode
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidRoot:
		return "invalid root"
	case KindNotFound:
		return "not found"
	case KindNoPermission:
		return "no permission"
	case KindTooManyOpenHandles:
		return "too many open handles"
	case KindAggregate:
		return "aggregate"
	default:
		return "internal error"
	}
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrInternal           = &Error{Kind: KindInternal}
	ErrInvalidRoot        = &Error{Kind: KindInvalidRoot}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrNoPermission       = &Error{Kind: KindNoPermission}
	ErrTooManyOpenHandles = &Error{Kind: KindTooManyOpenHandles}
)

var errNotDirectory = errors.New("path is not a directory")

// Error is a normalized filesystem failure.
type Error struct {
	Kind ErrorKind
	// Op is the operation that failed: "stat", "readdir" or "walk".
	Op string
	// Path is the path the operation was applied to.
	Path string
	// Err is the native cause.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("streamwalk: ")
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteByte(' ')
	}
	if e.Path != "" {
		fmt.Fprintf(&b, "%q: ", e.Path)
	}
	b.WriteString(e.Kind.String())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Path == "" && t.Err == nil && t.Kind == e.Kind
}

// AggregateError carries every failure gathered by a walk that did not abort on
// error. Errors are kept in the order they were observed.
type AggregateError struct {
	Errors []*Error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("streamwalk: 1 error occurred: %v", e.Errors[0])
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("streamwalk: %d errors occurred:\n\t%s", len(e.Errors), strings.Join(msgs, "\n\t"))
}

func (e *AggregateError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// KindOf classifies err. Errors that are neither *Error nor *AggregateError
// are reported as KindInternal.
func KindOf(err error) ErrorKind {
	var agg *AggregateError
	if errors.As(err, &agg) {
		return KindAggregate
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Normalize maps a native error to an *Error. An *Error is returned as is.
func Normalize(op, path string, err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: classify(err), Op: op, Path: path, Err: err}
}

func classify(err error) ErrorKind {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindNoPermission
	case errors.Is(err, syscall.EMFILE), errors.Is(err, syscall.ENFILE):
		return KindTooManyOpenHandles
	default:
		return KindInternal
	}
}

// invalidRoot wraps a root validation failure. A normalized cause stays
// reachable through errors.Is/As.
func invalidRoot(path string, cause error) *Error {
	if cause == nil {
		cause = errNotDirectory
	} else {
		cause = Normalize("stat", path, cause)
	}
	return &Error{Kind: KindInvalidRoot, Op: "stat", Path: path, Err: cause}
}
