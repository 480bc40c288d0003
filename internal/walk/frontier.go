package streamwalk

// frontier is the scheduler's worklist of discovered entries that have not been
// emitted yet. It is a stack: the entry pushed last is popped first, so the
// children of a directory come out in the reverse of their listing order and
// freshly expanded directories are visited before older queued siblings.
//
// A frontier is owned by a single scheduler goroutine and is not safe for
// concurrent use.
type frontier struct {
	items    []DirEntry
	maxDepth int // 0 means unbounded
}

func newFrontier(maxDepth int) *frontier {
	return &frontier{maxDepth: maxDepth}
}

// pushChildren appends the children of a directory at depth, in listing order.
// Children beyond the depth bound are never stored.
func (f *frontier) pushChildren(children []DirEntry, depth int) int {
	if f.maxDepth > 0 && depth > f.maxDepth {
		return 0
	}
	for _, c := range children {
		c.Depth = depth
		f.items = append(f.items, c)
	}
	return len(children)
}

func (f *frontier) pop() DirEntry {
	n := len(f.items) - 1
	item := f.items[n]
	f.items[n] = DirEntry{}
	f.items = f.items[:n]
	return item
}

func (f *frontier) len() int { return len(f.items) }

// reset drops every pending entry.
func (f *frontier) reset() {
	f.items = nil
}
