package streamwalk

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/karrick/godirwalk"
)

// EntryKind is the coarse type of a directory entry.
type EntryKind int

const (
	EntryFile      EntryKind = iota // Regular file
	EntryDirectory                  // Directory
	EntrySymlink                    // Symbolic link, never followed
	EntryOther                      // Device, FIFO, socket or unknown
)

func (k EntryKind) String() string {
	switch k {
	case EntryFile:
		return "file"
	case EntryDirectory:
		return "dir"
	case EntrySymlink:
		return "symlink"
	default:
		return "other"
	}
}

// MarshalText lets entries render their kind by name in JSON output.
func (k EntryKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// DirEntry is one entry discovered during traversal.
type DirEntry struct {
	// Depth is 1 for children of the walk root, 2 for their children and so on.
	Depth int `json:"depth"`
	// Kind is the entry type as reported by the directory listing.
	Kind EntryKind `json:"kind"`
	// Path is the root joined with every name down to the entry.
	Path string `json:"path"`
	// Mode holds the type bits reported by the source, zero for regular files.
	Mode fs.FileMode `json:"-"`
}

// IsDir reports whether the entry is a directory.
func (d DirEntry) IsDir() bool { return d.Kind == EntryDirectory }

// Type names the entry type with finer detail than Kind.
func (d DirEntry) Type() string {
	switch {
	case d.Mode&fs.ModeNamedPipe != 0:
		return "fifo"
	case d.Mode&fs.ModeSocket != 0:
		return "socket"
	case d.Mode&fs.ModeCharDevice != 0:
		return "char-device"
	case d.Mode&fs.ModeDevice != 0:
		return "block-device"
	}
	if d.Kind == EntryOther {
		return "unknown"
	}
	return d.Kind.String()
}

// kindOf folds file mode type bits into an EntryKind.
func kindOf(mode fs.FileMode) EntryKind {
	switch {
	case mode&fs.ModeSymlink != 0:
		return EntrySymlink
	case mode.IsDir():
		return EntryDirectory
	case mode.IsRegular():
		return EntryFile
	default:
		return EntryOther
	}
}

// FileStat is the subset of stat information the walker consumes.
type FileStat struct {
	IsDirectory    bool
	IsSymbolicLink bool
	Mode           fs.FileMode
	Size           int64
	ModTime        time.Time
}

// Source lists directories and stats paths for the walker.
//
// ReadDir returns the immediate children of path in the order the listing
// produced them, with Depth left at zero. Implementations must be safe for
// concurrent use; the walker calls ReadDir from several goroutines when
// concurrency allows it.
type Source interface {
	ReadDir(ctx context.Context, path string) ([]DirEntry, error)
	Stat(ctx context.Context, path string) (FileStat, error)
}

// OSSource reads the host filesystem through godirwalk.
type OSSource struct {
	scratch sync.Pool
}

// NewOSSource returns a Source backed by the operating system.
func NewOSSource() *OSSource {
	return &OSSource{
		scratch: sync.Pool{
			New: func() any {
				buf := make([]byte, godirwalk.MinimumScratchBufferSize)
				return &buf
			},
		},
	}
}

// ReadDir lists path. The context is checked before the read starts; a read in
// progress always runs to completion.
func (s *OSSource) ReadDir(ctx context.Context, path string) ([]DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	buf := s.scratch.Get().(*[]byte)
	dirents, err := godirwalk.ReadDirents(path, *buf)
	s.scratch.Put(buf)
	if err != nil {
		return nil, err
	}

	entries := make([]DirEntry, 0, len(dirents))
	for _, de := range dirents {
		mode := de.ModeType()
		entries = append(entries, DirEntry{
			Kind: kindOf(mode),
			Path: filepath.Join(path, de.Name()),
			Mode: mode,
		})
	}
	return entries, nil
}

// Stat follows symbolic links, so a link to a directory is a valid root.
// IsSymbolicLink still reports the link itself.
func (s *OSSource) Stat(ctx context.Context, path string) (FileStat, error) {
	if err := ctx.Err(); err != nil {
		return FileStat{}, err
	}
	link, err := os.Lstat(path)
	if err != nil {
		return FileStat{}, err
	}
	info := link
	if link.Mode()&fs.ModeSymlink != 0 {
		if info, err = os.Stat(path); err != nil {
			return FileStat{}, err
		}
	}
	return FileStat{
		IsDirectory:    info.IsDir(),
		IsSymbolicLink: link.Mode()&fs.ModeSymlink != 0,
		Mode:           info.Mode(),
		Size:           info.Size(),
		ModTime:        info.ModTime(),
	}, nil
}
