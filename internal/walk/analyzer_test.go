package streamwalk

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	src := NewMemorySource("/r").
		AddFile("/r/main.go").
		AddFile("/r/README").
		AddFile("/r/pkg/a.go").
		AddFile("/r/pkg/deep/b.GO").
		AddFile("/r/pkg/deep/c.txt").
		AddSymlink("/r/link")

	result, err := NewAnalyzer(Options{Source: src, Concurrency: 2}).Analyze(context.Background(), "/r")
	require.NoError(t, err)

	assert.Equal(t, int64(8), result.Entries)
	assert.Equal(t, int64(5), result.KindStats[EntryFile])
	assert.Equal(t, int64(2), result.KindStats[EntryDirectory])
	assert.Equal(t, int64(1), result.KindStats[EntrySymlink])
	assert.Equal(t, []int64{4, 2, 2}, result.ByDepth)
	assert.Contains(t, []string{"/r/pkg/deep/b.GO", "/r/pkg/deep/c.txt"}, result.Deepest)

	assert.Equal(t, TypeStats{Count: 3}, result.TypeStats[".go"])
	assert.Equal(t, TypeStats{Count: 1}, result.TypeStats[".txt"])
	assert.Equal(t, TypeStats{Count: 1}, result.TypeStats["(no extension)"])
	assert.Empty(t, result.Errors)
	assert.Equal(t, int64(3), result.Stats.DirsExpanded)

	report := result.String()
	assert.Contains(t, report, "Entries: 8")
	assert.Contains(t, report, ".go: 3")
}

func TestAnalyzeCollectsErrors(t *testing.T) {
	result, err := NewAnalyzer(Options{Source: failingSource(), AbortOnError: true}).Analyze(context.Background(), "/r")
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "/r/bad", result.Errors[0].Path)
	assert.Equal(t, int64(4), result.Entries)
	assert.Contains(t, result.String(), "Errors:")
}

func TestAnalyzeHidden(t *testing.T) {
	src := NewMemorySource("/r").
		AddFile("/r/.git/config").
		AddFile("/r/.env").
		AddFile("/r/visible.txt")

	a := NewAnalyzer(Options{Source: src})
	a.SetIncludeHidden(false)
	result, err := a.Analyze(context.Background(), "/r")
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Entries)

	a.SetIncludeHidden(true)
	result, err = a.Analyze(context.Background(), "/r")
	require.NoError(t, err)
	assert.Equal(t, int64(4), result.Entries)
}

func TestAnalyzeInvalidRoot(t *testing.T) {
	src := NewMemorySource("/r")
	src.Fail("/r", fs.ErrNotExist)
	_, err := NewAnalyzer(Options{Source: src}).Analyze(context.Background(), "/r")
	assert.ErrorIs(t, err, ErrInvalidRoot)
}
