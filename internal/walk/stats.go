package streamwalk

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultProgressInterval is used when Options.Progress is set without an interval.
const DefaultProgressInterval = 500 * time.Millisecond

// ProgressFn is called periodically with traversal statistics.
// It runs on its own goroutine, never on the scheduler's.
type ProgressFn func(stats Stats)

// Stats is a snapshot of traversal counters.
type Stats struct {
	EntriesEmitted  int64         // Items handed to the sink
	FilesEmitted    int64         // Regular files among them
	DirsEmitted     int64         // Directories among them
	SymlinksEmitted int64         // Symbolic links among them
	OtherEmitted    int64         // Everything else
	DirsExpanded    int64         // Directory listings that completed
	ErrorCount      int64         // Listing failures, including dropped ones
	PeakOutstanding int64         // Highest number of simultaneous listings
	ElapsedTime     time.Duration // Time since the walk started
	EntriesPerSec   float64       // Emission rate
}

// counters is updated by the scheduler and read by Stats and the progress
// reporter.
type counters struct {
	start time.Time

	emitted  atomic.Int64
	files    atomic.Int64
	dirs     atomic.Int64
	symlinks atomic.Int64
	other    atomic.Int64
	expanded atomic.Int64
	errors   atomic.Int64
	peak     atomic.Int64

	finished atomic.Int64 // elapsed nanoseconds, frozen once the walk ends
}

func newCounters() *counters {
	return &counters{start: time.Now()}
}

func (c *counters) recordEmit(kind EntryKind) {
	c.emitted.Add(1)
	switch kind {
	case EntryFile:
		c.files.Add(1)
	case EntryDirectory:
		c.dirs.Add(1)
	case EntrySymlink:
		c.symlinks.Add(1)
	default:
		c.other.Add(1)
	}
}

func (c *counters) recordOutstanding(n int) {
	for {
		cur := c.peak.Load()
		if int64(n) <= cur || c.peak.CompareAndSwap(cur, int64(n)) {
			return
		}
	}
}

func (c *counters) finish() {
	c.finished.CompareAndSwap(0, int64(time.Since(c.start)))
}

func (c *counters) snapshot() Stats {
	s := Stats{
		EntriesEmitted:  c.emitted.Load(),
		FilesEmitted:    c.files.Load(),
		DirsEmitted:     c.dirs.Load(),
		SymlinksEmitted: c.symlinks.Load(),
		OtherEmitted:    c.other.Load(),
		DirsExpanded:    c.expanded.Load(),
		ErrorCount:      c.errors.Load(),
		PeakOutstanding: c.peak.Load(),
	}
	if f := c.finished.Load(); f > 0 {
		s.ElapsedTime = time.Duration(f)
	} else {
		s.ElapsedTime = time.Since(c.start)
	}
	s.updateDerivedStats()
	return s
}

// updateDerivedStats calculates derived statistics like rates.
func (s *Stats) updateDerivedStats() {
	elapsedSec := s.ElapsedTime.Seconds()
	if elapsedSec > 0 && s.EntriesEmitted > 0 {
		s.EntriesPerSec = float64(s.EntriesEmitted) / elapsedSec
	} else {
		s.EntriesPerSec = 0
	}
}

// reportProgress calls fn every interval until done is closed, then once more
// with the final numbers.
func reportProgress(c *counters, fn ProgressFn, interval time.Duration, done <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			fn(c.snapshot())
			return
		case <-ticker.C:
			fn(c.snapshot())
		}
	}
}
