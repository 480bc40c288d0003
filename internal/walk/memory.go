package streamwalk

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"sync"
	"time"
)

var errNotDir = errors.New("not a directory")

type memNode struct {
	kind     EntryKind
	children []string // names in insertion order
}

// MemorySource is an in-memory Source. Listings return children in insertion
// order. Reads can be delayed, blocked or failed per path, which makes it the
// source of choice for exercising scheduling behaviour deterministically.
type MemorySource struct {
	mu       sync.Mutex
	nodes    map[string]*memNode
	failures map[string]error
	blocks   map[string]chan struct{}
	latency  time.Duration

	inFlight int
	peak     int
	reads    []string
}

// NewMemorySource creates an empty tree containing only root.
func NewMemorySource(root string) *MemorySource {
	m := &MemorySource{
		nodes:    make(map[string]*memNode),
		failures: make(map[string]error),
		blocks:   make(map[string]chan struct{}),
	}
	m.nodes[filepath.Clean(root)] = &memNode{kind: EntryDirectory}
	return m
}

// AddFile adds a regular file, creating missing parent directories.
func (m *MemorySource) AddFile(path string) *MemorySource { return m.add(path, EntryFile) }

// AddDir adds a directory, creating missing parent directories.
func (m *MemorySource) AddDir(path string) *MemorySource { return m.add(path, EntryDirectory) }

// AddSymlink adds a symbolic link entry.
func (m *MemorySource) AddSymlink(path string) *MemorySource { return m.add(path, EntrySymlink) }

// AddOther adds an entry that is neither file, directory nor link.
func (m *MemorySource) AddOther(path string) *MemorySource { return m.add(path, EntryOther) }

func (m *MemorySource) add(path string, kind EntryKind) *MemorySource {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	if n, ok := m.nodes[path]; ok {
		n.kind = kind
		return m
	}
	m.nodes[path] = &memNode{kind: kind}

	// Link into the parent chain.
	for child := path; ; {
		parent := filepath.Dir(child)
		if parent == child {
			break
		}
		p, ok := m.nodes[parent]
		if !ok {
			p = &memNode{kind: EntryDirectory}
			m.nodes[parent] = p
		}
		name := filepath.Base(child)
		if !containsName(p.children, name) {
			p.children = append(p.children, name)
		}
		if ok {
			break
		}
		child = parent
	}
	return m
}

// Fail makes every ReadDir and Stat of path return err.
func (m *MemorySource) Fail(path string, err error) *MemorySource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[filepath.Clean(path)] = err
	return m
}

// SetLatency delays every ReadDir by d.
func (m *MemorySource) SetLatency(d time.Duration) *MemorySource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = d
	return m
}

// Block holds ReadDir of path until the returned release function is called.
// The held read ignores context cancellation, like a real syscall would.
func (m *MemorySource) Block(path string) (release func()) {
	ch := make(chan struct{})
	m.mu.Lock()
	m.blocks[filepath.Clean(path)] = ch
	m.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// InFlight returns the number of ReadDir calls currently running.
func (m *MemorySource) InFlight() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight
}

// Peak returns the highest number of simultaneous ReadDir calls observed.
func (m *MemorySource) Peak() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.peak
}

// Reads returns the paths passed to ReadDir, in call order.
func (m *MemorySource) Reads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.reads...)
}

func (m *MemorySource) ReadDir(ctx context.Context, path string) ([]DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path = filepath.Clean(path)

	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.peak {
		m.peak = m.inFlight
	}
	m.reads = append(m.reads, path)
	latency := m.latency
	block := m.blocks[path]
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if latency > 0 {
		time.Sleep(latency)
	}
	if block != nil {
		<-block
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.failures[path]; ok {
		return nil, err
	}
	n, ok := m.nodes[path]
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: path, Err: fs.ErrNotExist}
	}
	if n.kind != EntryDirectory {
		return nil, &fs.PathError{Op: "readdir", Path: path, Err: errNotDir}
	}

	entries := make([]DirEntry, 0, len(n.children))
	for _, name := range n.children {
		childPath := filepath.Join(path, name)
		child := m.nodes[childPath]
		entries = append(entries, DirEntry{Kind: child.kind, Path: childPath, Mode: modeOf(child.kind)})
	}
	return entries, nil
}

func (m *MemorySource) Stat(ctx context.Context, path string) (FileStat, error) {
	if err := ctx.Err(); err != nil {
		return FileStat{}, err
	}
	path = filepath.Clean(path)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.failures[path]; ok {
		return FileStat{}, err
	}
	n, ok := m.nodes[path]
	if !ok {
		return FileStat{}, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
	}
	return FileStat{
		IsDirectory:    n.kind == EntryDirectory,
		IsSymbolicLink: n.kind == EntrySymlink,
		Mode:           modeOf(n.kind),
	}, nil
}

func modeOf(kind EntryKind) fs.FileMode {
	switch kind {
	case EntryDirectory:
		return fs.ModeDir
	case EntrySymlink:
		return fs.ModeSymlink
	case EntryOther:
		return fs.ModeIrregular
	default:
		return 0
	}
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
