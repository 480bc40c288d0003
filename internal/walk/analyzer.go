package streamwalk

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// AnalyzeResult summarizes the entries produced by one walk.
type AnalyzeResult struct {
	Root      string
	Entries   int64                // Total entries emitted
	KindStats map[EntryKind]int64  // Entries per kind
	TypeStats map[string]TypeStats // Files per extension
	ByDepth   []int64              // ByDepth[d-1] counts entries at depth d
	Deepest   string               // Path of the first entry seen at the greatest depth
	Errors    []*Error             // Listing failures collected during the walk
	Stats     Stats                // Final walk counters
}

// TypeStats holds statistics for a file extension
type TypeStats struct {
	Count int64 // Number of files
}

// Analyzer consumes a walk and aggregates what it sees.
type Analyzer struct {
	opts          Options
	includeHidden bool
}

// NewAnalyzer creates an analyzer that walks with opts. Collect mode is
// forced so that one unreadable directory does not hide the rest of the tree.
func NewAnalyzer(opts Options) *Analyzer {
	opts.AbortOnError = false
	return &Analyzer{opts: opts, includeHidden: true}
}

// SetIncludeHidden controls whether dot entries, and everything below a dot
// directory, are counted.
func (a *Analyzer) SetIncludeHidden(include bool) {
	a.includeHidden = include
}

// Analyze walks root to completion. A fatal walk error is returned; collected
// listing failures end up in AnalyzeResult.Errors.
func (a *Analyzer) Analyze(ctx context.Context, root string) (*AnalyzeResult, error) {
	root = filepath.Clean(root)
	result := &AnalyzeResult{
		Root:      root,
		KindStats: make(map[EntryKind]int64),
		TypeStats: make(map[string]TypeStats),
	}

	stream := WalkEntries(ctx, root, a.opts)
	for entry, err := range stream.All(ctx) {
		if err != nil {
			var agg *AggregateError
			if errors.As(err, &agg) {
				result.Errors = agg.Errors
				break
			}
			return nil, err
		}
		if !a.includeHidden && hiddenBelow(root, entry.Path) {
			continue
		}
		result.add(entry)
	}

	<-stream.Done()
	result.Stats = stream.Stats()
	return result, nil
}

func (r *AnalyzeResult) add(entry DirEntry) {
	r.Entries++
	r.KindStats[entry.Kind]++

	for len(r.ByDepth) < entry.Depth {
		r.ByDepth = append(r.ByDepth, 0)
	}
	if entry.Depth > 0 {
		r.ByDepth[entry.Depth-1]++
		if entry.Depth == len(r.ByDepth) && r.ByDepth[entry.Depth-1] == 1 {
			r.Deepest = entry.Path
		}
	}

	if entry.Kind != EntryFile {
		return
	}
	ext := strings.ToLower(filepath.Ext(entry.Path))
	if ext == "" {
		ext = "(no extension)"
	}
	stats := r.TypeStats[ext]
	stats.Count++
	r.TypeStats[ext] = stats
}

// String returns a string representation of the analysis results
func (r *AnalyzeResult) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Walk Report: %s\n", r.Root))
	sb.WriteString(fmt.Sprintf("Entries: %d\n", r.Entries))
	sb.WriteString(fmt.Sprintf("Files: %d\n", r.KindStats[EntryFile]))
	sb.WriteString(fmt.Sprintf("Directories: %d\n", r.KindStats[EntryDirectory]))
	sb.WriteString(fmt.Sprintf("Symlinks: %d\n", r.KindStats[EntrySymlink]))
	sb.WriteString(fmt.Sprintf("Other: %d\n", r.KindStats[EntryOther]))

	if len(r.ByDepth) > 0 {
		sb.WriteString("\nEntries by depth:\n")
		for i, n := range r.ByDepth {
			sb.WriteString(fmt.Sprintf("  %d: %d\n", i+1, n))
		}
		sb.WriteString(fmt.Sprintf("Deepest: %s\n", r.Deepest))
	}

	if len(r.TypeStats) > 0 {
		exts := make([]string, 0, len(r.TypeStats))
		for ext := range r.TypeStats {
			exts = append(exts, ext)
		}
		sort.Slice(exts, func(i, j int) bool {
			ci, cj := r.TypeStats[exts[i]].Count, r.TypeStats[exts[j]].Count
			if ci != cj {
				return ci > cj
			}
			return exts[i] < exts[j]
		})
		sb.WriteString("\nFiles by extension:\n")
		for _, ext := range exts {
			sb.WriteString(fmt.Sprintf("  %s: %d\n", ext, r.TypeStats[ext].Count))
		}
	}

	if len(r.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, err := range r.Errors {
			sb.WriteString(fmt.Sprintf("  %v\n", err))
		}
	}

	sb.WriteString(fmt.Sprintf("\nDirectories listed: %d, peak concurrent listings: %d, elapsed: %s\n",
		r.Stats.DirsExpanded, r.Stats.PeakOutstanding, r.Stats.ElapsedTime))
	return sb.String()
}

// hiddenBelow reports whether path has a dot element below root.
func hiddenBelow(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return isHidden(path)
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if len(part) > 1 && strings.HasPrefix(part, ".") && part != ".." {
			return true
		}
	}
	return false
}
